package service

import (
	"math"

	"github.com/yourorg/forecast-service/internal/model"
)

// CalibrationInput carries everything the deterministic confidence rules
// look at. All values come from the parsed forecast and the feature
// snapshot; the rules themselves never consult external state.
type CalibrationInput struct {
	Direction      model.Direction
	SignalsAligned int
	MaxSignals     int
	VolumeRatio    float64
	SentimentScore float64
	TechnicalScore float64
	// Adjustment is the symbol's live performance-feedback term, already
	// bounded to [-2, +2] by the evaluator.
	Adjustment float64
}

// Calibrate applies the fixed rule set to the model's self-reported
// confidence and returns the final score on the 1..10 scale. Rules are
// cumulative and applied in a fixed order; only the final sum is clamped.
func Calibrate(raw int, in CalibrationInput) int {
	score := raw

	// Signal confluence. Full alignment earns trust, near-full a little,
	// and half or worse is a contradiction the model glossed over.
	switch {
	case in.MaxSignals > 0 && in.SignalsAligned == in.MaxSignals:
		score += 2
	case in.MaxSignals > 0 && in.SignalsAligned == in.MaxSignals-1:
		score++
	case in.MaxSignals > 0 && in.SignalsAligned <= in.MaxSignals/2:
		score -= 2
	}

	// Volume confirmation.
	if in.VolumeRatio < 0.5 {
		score--
	} else if in.VolumeRatio > 1.5 {
		score++
	}

	// Sentiment agreement. Deep pessimism argues against an UP call and
	// for a DOWN call.
	if in.SentimentScore >= 8 {
		score++
	} else if in.SentimentScore <= 3 {
		if in.Direction == model.DirectionUp {
			score -= 2
		} else if in.Direction == model.DirectionDown {
			score++
		}
	}

	// Extreme technicals tend to mean-revert against the crowd.
	if in.TechnicalScore > 80 && in.Direction == model.DirectionUp {
		score--
	}
	if in.TechnicalScore < 20 && in.Direction == model.DirectionDown {
		score--
	}

	// Performance feedback lands last so a strong or weak track record
	// shifts the whole rule stack, not just the raw score.
	score += int(math.Round(in.Adjustment))

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}
