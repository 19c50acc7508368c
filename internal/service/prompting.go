package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/forecast-service/internal/model"
)

// Prompt construction. Each horizon gets its own checklist of signals,
// sized to the horizon's MaxSignals, and a strict JSON reply contract
// matching forecastPayload.

var dailySignals = []string{
	"RSI positioning relative to overbought/oversold bands",
	"MACD line versus signal line and histogram momentum",
	"Price versus 20-day SMA and Bollinger band placement",
	"Volume ratio confirming or contradicting the move",
	"Detected chart patterns and their polarity",
	"News and social sentiment over the last sessions",
}

var swingSignals = []string{
	"Multi-day trend structure and momentum",
	"Market regime and benchmark index behaviour",
	"Fundamental backdrop and sector positioning",
}

// BuildPrompt renders the full forecasting prompt for one symbol and
// horizon, settling on targetDate.
func BuildPrompt(snap *model.FeatureSnapshot, horizon model.Horizon, targetDate time.Time) string {
	var b strings.Builder

	switch horizon {
	case model.HorizonDaily:
		fmt.Fprintf(&b, "Forecast the next trading day (%s) for %s.\n\n",
			targetDate.Format("2006-01-02"), snap.Symbol.Name)
	case model.HorizonWeekly:
		fmt.Fprintf(&b, "Forecast the trading week ending Friday %s for %s.\n\n",
			targetDate.Format("2006-01-02"), snap.Symbol.Name)
	default:
		fmt.Fprintf(&b, "Forecast the calendar month ending %s for %s.\n\n",
			targetDate.Format("2006-01-02"), snap.Symbol.Name)
	}

	writeMarketContext(&b, snap)

	signals := dailySignals
	if horizon != model.HorizonDaily {
		signals = swingSignals
	}
	b.WriteString("Work through these signals in order and count how many agree with your directional call:\n")
	for i, s := range signals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}

	fmt.Fprintf(&b, "\nA realistic move for this horizon stays within +/-%.1f%%.\n", horizon.MoveClamp())

	b.WriteString("\nReply with exactly one JSON object, no prose outside it:\n")
	fmt.Fprintf(&b, `{
  "direction": "UP | DOWN | NEUTRAL",
  "predicted_move_percent": <float>,
  "confidence_score": <int 1-10>,
  "probability": <float 0-1>,
  "target_min": <float, expected low price>,
  "target_max": <float, expected high price>,
  "risk_level": "LOW | MEDIUM | HIGH",
  "rationale": "<2-3 sentences>",
  "key_factors": ["<factor>", "..."],
  "technical_score": <float 0-100>,
  "market_score": <float 0-10>,
  "sentiment_score": <float 0-10>,
  "signals_aligned": <int 0-%d>
}`, horizon.MaxSignals())

	return b.String()
}

// writeMarketContext renders every available feature section. Missing
// sections are stated as unavailable so the model does not hallucinate
// data it was never given.
func writeMarketContext(b *strings.Builder, snap *model.FeatureSnapshot) {
	b.WriteString("=== MARKET CONTEXT ===\n")

	if snap.LatestBar != nil {
		fmt.Fprintf(b, "Last close (%s): %.2f, day move %+.2f%%, volume %d\n",
			snap.LatestBar.Date.Format("2006-01-02"),
			snap.LatestBar.Close, snap.LatestBar.ChangePct(), snap.LatestBar.Volume)
	} else {
		b.WriteString("Price data: unavailable\n")
	}

	if ind := snap.Indicators; ind != nil {
		b.WriteString("Technicals:")
		if ind.RSI != nil {
			fmt.Fprintf(b, " RSI %.1f,", *ind.RSI)
		}
		if ind.MACD != nil && ind.MACDSignal != nil {
			fmt.Fprintf(b, " MACD %.3f vs signal %.3f,", *ind.MACD, *ind.MACDSignal)
		}
		if ind.SMA20 != nil {
			fmt.Fprintf(b, " SMA20 %.2f,", *ind.SMA20)
		}
		if ind.BBUpper != nil && ind.BBLower != nil {
			fmt.Fprintf(b, " Bollinger %.2f-%.2f,", *ind.BBLower, *ind.BBUpper)
		}
		fmt.Fprintf(b, " volume ratio %.2f\n", snap.VolumeRatio())
	} else {
		b.WriteString("Technicals: unavailable\n")
	}

	if f := snap.Fundamentals; f != nil && !snap.Symbol.IsIndex() {
		b.WriteString("Fundamentals:")
		if f.PERatio != nil {
			fmt.Fprintf(b, " P/E %.1f,", *f.PERatio)
		}
		if f.ROE != nil {
			fmt.Fprintf(b, " ROE %.1f%%,", *f.ROE)
		}
		if f.DebtToEquity != nil {
			fmt.Fprintf(b, " D/E %.2f,", *f.DebtToEquity)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "Macro: trend regime %s, volatility regime %s",
		snap.Macro.TrendRegime, snap.Macro.VolatilityRegime)
	if snap.Macro.IndexChangePct != nil {
		fmt.Fprintf(b, ", benchmark index %+.2f%% today", *snap.Macro.IndexChangePct)
	}
	if snap.Macro.CrudeOil != nil {
		fmt.Fprintf(b, ", crude %.1f", *snap.Macro.CrudeOil)
	}
	if snap.Macro.FXRate != nil {
		fmt.Fprintf(b, ", USD/INR %.2f", *snap.Macro.FXRate)
	}
	b.WriteString("\n")

	if len(snap.Patterns) > 0 {
		b.WriteString("Chart patterns:")
		for _, p := range snap.Patterns {
			fmt.Fprintf(b, " %s (%s)", p.Pattern, p.Signal)
		}
		b.WriteString("\n")
	}

	if a := snap.Analogues; a != nil && a.Matches > 0 {
		fmt.Fprintf(b, "Historical analogues: %d similar setups, %.0f%% closed up next day, mean next-day return %+.2f%% (best %+.2f%%, worst %+.2f%%)\n",
			a.Matches, a.WinRate*100, a.MeanReturn, a.BestReturn, a.WorstReturn)
	}

	if s := snap.Seasonality; s != nil && s.YearsAnalyzed > 0 {
		fmt.Fprintf(b, "Seasonality: %s over %d prior years for %s, mean return %+.2f%%\n",
			s.Pattern, s.YearsAnalyzed, s.Period, s.MeanReturn)
	}

	writeHeadlines(b, "Recent news", snap.News)
	writeHeadlines(b, "Social chatter", snap.SocialMomentum)

	b.WriteString("\n")
}

func writeHeadlines(b *strings.Builder, label string, items []model.NewsItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, n := range items {
		fmt.Fprintf(b, "- [%s] %s\n", n.Source, n.Title)
	}
}
