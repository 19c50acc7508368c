package model

import "time"

// Horizon is the forecast granularity.
type Horizon string

const (
	HorizonDaily   Horizon = "DAILY"
	HorizonWeekly  Horizon = "WEEKLY"
	HorizonMonthly Horizon = "MONTHLY"
)

// Horizons lists all granularities in pipeline order.
var Horizons = []Horizon{HorizonDaily, HorizonWeekly, HorizonMonthly}

// Valid reports whether h is a known horizon.
func (h Horizon) Valid() bool {
	switch h {
	case HorizonDaily, HorizonWeekly, HorizonMonthly:
		return true
	}
	return false
}

// MoveClamp returns the realistic band (in percent, symmetric around zero)
// for a predicted move at this horizon. Model replies outside the band are
// clamped, not rejected.
func (h Horizon) MoveClamp() float64 {
	switch h {
	case HorizonDaily:
		return 2.5
	case HorizonWeekly:
		return 6.0
	default:
		return 12.0
	}
}

// MaxSignals returns the size of the fixed signal set the forecaster is
// asked to check for confluence at this horizon.
func (h Horizon) MaxSignals() int {
	if h == HorizonDaily {
		return 6
	}
	return 3
}

// Direction is a directional call.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// PredictionStatus tags where a record sits in its lifecycle. Transitions
// only move forward: OPEN -> VERIFIED -> SCORED.
type PredictionStatus string

const (
	StatusOpen     PredictionStatus = "OPEN"
	StatusVerified PredictionStatus = "VERIFIED"
	StatusScored   PredictionStatus = "SCORED"
)

// PredictionRecord is the durable unit of work: one forecast for one
// (symbol, horizon, target period), carried from creation through outcome
// verification and scoring.
type PredictionRecord struct {
	ID           int64            `db:"id" json:"id"`
	Symbol       string           `db:"symbol" json:"symbol"`
	Horizon      Horizon          `db:"horizon" json:"horizon"`
	TargetPeriod string           `db:"target_period" json:"target_period"`
	TargetDate   time.Time        `db:"target_date" json:"target_date"`
	Status       PredictionStatus `db:"status" json:"status"`

	// Forecast payload.
	Direction      Direction `db:"direction" json:"direction"`
	PredictedMove  float64   `db:"predicted_move" json:"predicted_move"`
	Confidence     int       `db:"confidence_score" json:"confidence_score"`
	RawConfidence  int       `db:"raw_confidence" json:"raw_confidence"`
	Probability    float64   `db:"probability" json:"probability"`
	TargetMin      *float64  `db:"target_min" json:"target_min,omitempty"`
	TargetMax      *float64  `db:"target_max" json:"target_max,omitempty"`
	RiskLevel      string    `db:"risk_level" json:"risk_level,omitempty"`
	Rationale      string    `db:"rationale" json:"rationale"`
	KeyFactors     string    `db:"key_factors" json:"key_factors,omitempty"`
	TechnicalScore float64   `db:"technical_score" json:"technical_score"`
	MarketScore    float64   `db:"market_score" json:"market_score"`
	SentimentScore float64   `db:"sentiment_score" json:"sentiment_score"`
	SignalsAligned int       `db:"signals_aligned" json:"signals_aligned"`

	// Outcome fields, nil until the target period has elapsed and market
	// data for it exists.
	RealizedOpen  *float64 `db:"realized_open" json:"realized_open,omitempty"`
	RealizedClose *float64 `db:"realized_close" json:"realized_close,omitempty"`

	// Derived fields, nil until scored.
	WasCorrect    *bool    `db:"was_correct" json:"was_correct,omitempty"`
	AccuracyScore *float64 `db:"accuracy_score" json:"accuracy_score,omitempty"`
	ErrorMargin   *float64 `db:"error_margin" json:"error_margin,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
