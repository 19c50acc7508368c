package model

import "time"

// Bar is one OHLCV price bar as stored by the market-data collector.
type Bar struct {
	Symbol string    `db:"symbol" json:"symbol"`
	Date   time.Time `db:"date" json:"date"`
	Open   float64   `db:"open" json:"open"`
	High   float64   `db:"high" json:"high"`
	Low    float64   `db:"low" json:"low"`
	Close  float64   `db:"close" json:"close"`
	Volume int64     `db:"volume" json:"volume"`
}

// ChangePct returns the open-to-close move of the bar in percent.
func (b Bar) ChangePct() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}

// IndicatorRow is the latest technical-indicator snapshot for a ticker,
// produced by the upstream signal provider.
type IndicatorRow struct {
	Symbol        string    `db:"symbol" json:"symbol"`
	Date          time.Time `db:"date" json:"date"`
	RSI           *float64  `db:"rsi" json:"rsi,omitempty"`
	MACD          *float64  `db:"macd" json:"macd,omitempty"`
	MACDSignal    *float64  `db:"macd_signal" json:"macd_signal,omitempty"`
	MACDHistogram *float64  `db:"macd_histogram" json:"macd_histogram,omitempty"`
	BBUpper       *float64  `db:"bb_upper" json:"bb_upper,omitempty"`
	BBMiddle      *float64  `db:"bb_middle" json:"bb_middle,omitempty"`
	BBLower       *float64  `db:"bb_lower" json:"bb_lower,omitempty"`
	SMA20         *float64  `db:"sma_20" json:"sma_20,omitempty"`
	VolumeRatio   *float64  `db:"volume_ratio" json:"volume_ratio,omitempty"`
}

// AnalogueRow joins a historical indicator reading with the return realized
// on the following trading day. Used for scenario matching.
type AnalogueRow struct {
	Date       time.Time `db:"date"`
	RSI        *float64  `db:"rsi"`
	MACD       *float64  `db:"macd"`
	MACDSignal *float64  `db:"macd_signal"`
	NextReturn *float64  `db:"next_return"`
}

// Fundamentals is the latest fundamental snapshot for a stock.
type Fundamentals struct {
	Symbol       string    `db:"symbol" json:"symbol"`
	Date         time.Time `db:"date" json:"date"`
	PERatio      *float64  `db:"pe_ratio" json:"pe_ratio,omitempty"`
	ROE          *float64  `db:"roe" json:"roe,omitempty"`
	ROCE         *float64  `db:"roce" json:"roce,omitempty"`
	DebtToEquity *float64  `db:"debt_to_equity" json:"debt_to_equity,omitempty"`
	MarketCap    *float64  `db:"market_cap" json:"market_cap,omitempty"`
}

// MacroContext is the daily global-macro snapshot: benchmark index level,
// commodity price, FX rate, and the detected market regimes.
type MacroContext struct {
	Date             time.Time `db:"date" json:"date"`
	IndexClose       *float64  `db:"index_close" json:"index_close,omitempty"`
	IndexChangePct   *float64  `db:"index_change_pct" json:"index_change_pct,omitempty"`
	CrudeOil         *float64  `db:"crude_oil" json:"crude_oil,omitempty"`
	FXRate           *float64  `db:"fx_rate" json:"fx_rate,omitempty"`
	TrendRegime      string    `db:"trend_regime" json:"trend_regime"`
	VolatilityRegime string    `db:"volatility_regime" json:"volatility_regime"`
}

// UnknownMacroContext is the neutral default used when no macro snapshot
// exists yet; the forecast pipeline must not fail on a missing row.
func UnknownMacroContext() MacroContext {
	return MacroContext{TrendRegime: "UNKNOWN", VolatilityRegime: "UNKNOWN"}
}
