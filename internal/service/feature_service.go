package service

import (
	"context"
	"math"
	"time"

	"github.com/yourorg/forecast-service/internal/client"
	"github.com/yourorg/forecast-service/internal/model"
	"github.com/yourorg/forecast-service/internal/repository"

	"go.uber.org/zap"
)

const (
	analogueRSIBand   = 10.0
	patternLookback   = 5
	seasonalYearsBack = 3
)

// FeatureService assembles the per-symbol input bundle for a forecast.
// Every upstream source is optional: a missing section degrades the
// prompt with a neutral default instead of failing the request.
type FeatureService struct {
	marketData  *repository.MarketDataRepository
	macro       *repository.MacroRepository
	news        *client.NewsClient
	historyDays int
	newsLimit   int
	logger      *zap.Logger
}

// NewFeatureService creates a new feature service
func NewFeatureService(
	marketData *repository.MarketDataRepository,
	macro *repository.MacroRepository,
	news *client.NewsClient,
	historyDays int,
	newsLimit int,
	logger *zap.Logger,
) *FeatureService {
	return &FeatureService{
		marketData:  marketData,
		macro:       macro,
		news:        news,
		historyDays: historyDays,
		newsLimit:   newsLimit,
		logger:      logger,
	}
}

// Snapshot builds the feature bundle for one symbol as of now. Only a
// database failure is an error; absent data is represented, not raised.
func (s *FeatureService) Snapshot(ctx context.Context, sym model.Symbol, now time.Time) (*model.FeatureSnapshot, error) {
	snap := &model.FeatureSnapshot{
		Symbol: sym,
		Macro:  model.UnknownMacroContext(),
	}

	bar, err := s.marketData.LatestBar(ctx, sym.Ticker)
	if err != nil {
		return nil, err
	}
	snap.LatestBar = bar

	bars, err := s.marketData.History(ctx, sym.Ticker, s.historyDays)
	if err != nil {
		return nil, err
	}
	snap.BarsAvailable = len(bars)

	snap.Indicators, err = s.marketData.LatestIndicators(ctx, sym.Ticker)
	if err != nil {
		return nil, err
	}

	if !sym.IsIndex() {
		snap.Fundamentals, err = s.marketData.LatestFundamentals(ctx, sym.Ticker)
		if err != nil {
			return nil, err
		}
	}

	macro, err := s.macro.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if macro != nil {
		snap.Macro = *macro
	}

	snap.Patterns, err = s.marketData.RecentPatterns(ctx, sym.Ticker, patternLookback)
	if err != nil {
		return nil, err
	}

	analogueRows, err := s.marketData.AnalogueHistory(ctx, sym.Ticker, s.historyDays)
	if err != nil {
		return nil, err
	}
	snap.Analogues = SummarizeAnalogues(snap.Indicators, analogueRows)

	snap.Seasonality, err = s.seasonality(ctx, sym.Ticker, now)
	if err != nil {
		return nil, err
	}

	// News failures only cost headline context.
	if s.news != nil {
		if items, err := s.news.Search(ctx, sym.Name+" stock latest news", s.newsLimit); err == nil {
			snap.News = items
		}
		if items, err := s.news.Search(ctx, sym.Name+" share investor discussion", s.newsLimit); err == nil {
			snap.SocialMomentum = items
		}
	}

	return snap, nil
}

// seasonality looks at the same upcoming calendar month across prior
// years.
func (s *FeatureService) seasonality(ctx context.Context, ticker string, now time.Time) (*model.SeasonalitySummary, error) {
	targetMonth := now.AddDate(0, 1, 0)

	var yearReturns []float64
	for back := 1; back <= seasonalYearsBack; back++ {
		bars, err := s.marketData.SeasonalWindow(ctx, ticker, targetMonth.Year()-back, targetMonth.Month())
		if err != nil {
			return nil, err
		}
		if len(bars) < 2 {
			continue
		}
		first, last := bars[0], bars[len(bars)-1]
		if first.Open == 0 {
			continue
		}
		yearReturns = append(yearReturns, (last.Close-first.Open)/first.Open*100)
	}

	if len(yearReturns) == 0 {
		return nil, nil
	}

	var sum float64
	for _, r := range yearReturns {
		sum += r
	}
	mean := sum / float64(len(yearReturns))

	pattern := "MIXED"
	if mean > 0.5 {
		pattern = "BULLISH"
	} else if mean < -0.5 {
		pattern = "BEARISH"
	}

	return &model.SeasonalitySummary{
		Pattern:       pattern,
		MeanReturn:    mean,
		YearsAnalyzed: len(yearReturns),
		Period:        targetMonth.Month().String(),
	}, nil
}

// SummarizeAnalogues aggregates historical days whose technical setup
// resembled the current one: RSI within a fixed band and, when both sides
// report MACD, the same MACD-versus-signal relationship. Returns nil when
// there is no current reading to match against.
func SummarizeAnalogues(current *model.IndicatorRow, rows []model.AnalogueRow) *model.AnalogueSummary {
	if current == nil || current.RSI == nil {
		return nil
	}
	currentRSI := *current.RSI

	var currentBullish *bool
	if current.MACD != nil && current.MACDSignal != nil {
		b := *current.MACD > *current.MACDSignal
		currentBullish = &b
	}

	summary := &model.AnalogueSummary{}
	var wins int
	first := true

	for _, row := range rows {
		if row.RSI == nil || row.NextReturn == nil {
			continue
		}
		if math.Abs(*row.RSI-currentRSI) > analogueRSIBand {
			continue
		}
		if currentBullish != nil && row.MACD != nil && row.MACDSignal != nil {
			if (*row.MACD > *row.MACDSignal) != *currentBullish {
				continue
			}
		}

		ret := *row.NextReturn
		summary.Matches++
		summary.MeanReturn += ret
		if ret > 0 {
			wins++
		}
		if first || ret > summary.BestReturn {
			summary.BestReturn = ret
		}
		if first || ret < summary.WorstReturn {
			summary.WorstReturn = ret
		}
		first = false
	}

	if summary.Matches == 0 {
		return summary
	}
	summary.MeanReturn /= float64(summary.Matches)
	summary.WinRate = float64(wins) / float64(summary.Matches)
	return summary
}
