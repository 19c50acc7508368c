package model

import "time"

// NewsItem is a headline returned by the news-corpus semantic search.
// The pipeline only ever renders these into prompt context; it never
// parses them structurally.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Snippet     string    `json:"snippet"`
	PublishedAt time.Time `json:"published_at"`
}

// PatternSignal is one detected chart pattern with its polarity and the
// support/resistance levels it implies.
type PatternSignal struct {
	Symbol     string    `db:"symbol" json:"symbol"`
	Date       time.Time `db:"date" json:"date"`
	Pattern    string    `db:"pattern" json:"pattern"`
	Signal     string    `db:"signal" json:"signal"`
	Support    *float64  `db:"support" json:"support,omitempty"`
	Resistance *float64  `db:"resistance" json:"resistance,omitempty"`
}

// AnalogueSummary aggregates the outcomes of historical days whose
// technical setup resembled the current one.
type AnalogueSummary struct {
	Matches     int     `json:"matches"`
	WinRate     float64 `json:"win_rate"`
	MeanReturn  float64 `json:"mean_return"`
	BestReturn  float64 `json:"best_return"`
	WorstReturn float64 `json:"worst_return"`
}

// SeasonalitySummary describes how the symbol behaved during the same
// calendar period in prior years.
type SeasonalitySummary struct {
	Pattern       string  `json:"pattern"`
	MeanReturn    float64 `json:"mean_return"`
	YearsAnalyzed int     `json:"years_analyzed"`
	Period        string  `json:"period"`
}

// FeatureSnapshot is the per-symbol input bundle for one forecast request.
// It is recomputed on every request and never persisted. Any upstream
// source may be missing; absent sections carry neutral defaults instead
// of failing the request.
type FeatureSnapshot struct {
	Symbol         Symbol
	LatestBar      *Bar
	Indicators     *IndicatorRow
	Fundamentals   *Fundamentals
	Macro          MacroContext
	Patterns       []PatternSignal
	Analogues      *AnalogueSummary
	Seasonality    *SeasonalitySummary
	News           []NewsItem
	SocialMomentum []NewsItem
	BarsAvailable  int
}

// VolumeRatio returns the reported volume ratio, defaulting to 1.0 (average
// volume) when the indicator provider has no reading.
func (f *FeatureSnapshot) VolumeRatio() float64 {
	if f.Indicators != nil && f.Indicators.VolumeRatio != nil {
		return *f.Indicators.VolumeRatio
	}
	return 1.0
}

// RSI returns the latest RSI reading, defaulting to the neutral 50 when
// the indicator provider has no reading.
func (f *FeatureSnapshot) RSI() float64 {
	if f.Indicators != nil && f.Indicators.RSI != nil {
		return *f.Indicators.RSI
	}
	return 50
}
