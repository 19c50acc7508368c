package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/go-playground/validator/v10"
)

var forecastValidate = validator.New()

// ParsedForecast is a normalized forecaster reply: every field populated,
// every numeric inside its allowed range.
type ParsedForecast struct {
	Direction      model.Direction `validate:"oneof=UP DOWN NEUTRAL"`
	PredictedMove  float64
	Confidence     int     `validate:"min=1,max=10"`
	Probability    float64 `validate:"min=0,max=1"`
	TargetMin      *float64
	TargetMax      *float64
	RiskLevel      string
	Rationale      string
	KeyFactors     []string
	TechnicalScore float64
	MarketScore    float64
	SentimentScore float64
	SignalsAligned int
}

// forecastPayload mirrors the JSON shape requested from the model.
// Pointer fields distinguish "absent" from zero so defaults only fill
// real gaps.
type forecastPayload struct {
	Direction      *string  `json:"direction"`
	PredictedMove  *float64 `json:"predicted_move_percent"`
	Confidence     *int     `json:"confidence_score"`
	Probability    *float64 `json:"probability"`
	TargetMin      *float64 `json:"target_min"`
	TargetMax      *float64 `json:"target_max"`
	RiskLevel      *string  `json:"risk_level"`
	Rationale      *string  `json:"rationale"`
	KeyFactors     []string `json:"key_factors"`
	TechnicalScore *float64 `json:"technical_score"`
	MarketScore    *float64 `json:"market_score"`
	SentimentScore *float64 `json:"sentiment_score"`
	SignalsAligned *int     `json:"signals_aligned"`
}

// extractJSON pulls the JSON object out of a model reply. Fenced blocks
// are preferred; failing that, the outermost brace span is taken.
func extractJSON(raw string) (string, bool) {
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		rest := raw[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}

	if idx := strings.Index(raw, "```"); idx >= 0 {
		rest := raw[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], true
	}

	return "", false
}

// ParseForecast interprets a raw forecaster reply for one horizon.
// Malformed replies fail with ErrParse; partially filled replies are
// completed with neutral defaults and out-of-range numerics are clamped
// rather than rejected.
func ParseForecast(raw string, horizon model.Horizon) (*ParsedForecast, error) {
	text, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", model.ErrParse)
	}

	var payload forecastPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrParse, err)
	}

	parsed := &ParsedForecast{
		Direction:      model.DirectionNeutral,
		Confidence:     5,
		Probability:    0.5,
		TechnicalScore: 5.0,
		MarketScore:    5.0,
		SentimentScore: 5.0,
	}

	if payload.Direction != nil {
		switch d := model.Direction(strings.ToUpper(strings.TrimSpace(*payload.Direction))); d {
		case model.DirectionUp, model.DirectionDown, model.DirectionNeutral:
			parsed.Direction = d
		}
	}

	if payload.PredictedMove != nil {
		parsed.PredictedMove = clampFloat(*payload.PredictedMove, -horizon.MoveClamp(), horizon.MoveClamp())
	}
	if payload.Confidence != nil {
		parsed.Confidence = clampInt(*payload.Confidence, 1, 10)
	}
	if payload.Probability != nil {
		parsed.Probability = clampFloat(*payload.Probability, 0, 1)
	}
	if payload.TechnicalScore != nil {
		parsed.TechnicalScore = clampFloat(*payload.TechnicalScore, 0, 100)
	}
	if payload.MarketScore != nil {
		parsed.MarketScore = clampFloat(*payload.MarketScore, 0, 10)
	}
	if payload.SentimentScore != nil {
		parsed.SentimentScore = clampFloat(*payload.SentimentScore, 0, 10)
	}
	if payload.SignalsAligned != nil {
		parsed.SignalsAligned = clampInt(*payload.SignalsAligned, 0, horizon.MaxSignals())
	}

	parsed.TargetMin = payload.TargetMin
	parsed.TargetMax = payload.TargetMax
	if payload.RiskLevel != nil {
		parsed.RiskLevel = strings.ToUpper(strings.TrimSpace(*payload.RiskLevel))
	}
	if payload.Rationale != nil {
		parsed.Rationale = strings.TrimSpace(*payload.Rationale)
	}
	parsed.KeyFactors = payload.KeyFactors

	if err := forecastValidate.Struct(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrParse, err)
	}

	return parsed, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
