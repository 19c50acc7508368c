package service

import (
	"math"
	"sort"
	"time"

	"github.com/yourorg/forecast-service/internal/model"
)

// directionThreshold is the dead band, in percent, inside which a realized
// move counts as NEUTRAL.
const directionThreshold = 0.2

// performanceWindow is how many recent scored predictions feed a
// performance snapshot.
const performanceWindow = 10

// RealizedMove returns the open-to-close move of a settled period in
// percent.
func RealizedMove(openPrice, closePrice float64) float64 {
	if openPrice == 0 {
		return 0
	}
	return (closePrice - openPrice) / openPrice * 100
}

// RealizedDirection classifies a realized move. The comparisons are
// strict: a move of exactly +0.2% is NEUTRAL.
func RealizedDirection(movePct float64) model.Direction {
	if movePct > directionThreshold {
		return model.DirectionUp
	}
	if movePct < -directionThreshold {
		return model.DirectionDown
	}
	return model.DirectionNeutral
}

// OutcomeScore is the derived result of comparing a forecast with its
// realized period.
type OutcomeScore struct {
	RealizedMove  float64
	WasCorrect    bool
	ErrorMargin   float64
	AccuracyScore float64
}

// ScoreOutcome grades one settled forecast. Directional correctness
// dominates (70%) with magnitude precision contributing the rest; a
// magnitude error of 10 points or more zeroes the precision component.
func ScoreOutcome(predicted model.Direction, predictedMove, realizedOpen, realizedClose float64) OutcomeScore {
	move := RealizedMove(realizedOpen, realizedClose)
	correct := RealizedDirection(move) == predicted
	errMargin := math.Abs(predictedMove - move)

	hit := 0.0
	if correct {
		hit = 1.0
	}
	precision := math.Max(0, 1-errMargin/10)

	return OutcomeScore{
		RealizedMove:  move,
		WasCorrect:    correct,
		ErrorMargin:   errMargin,
		AccuracyScore: 0.7*hit + 0.3*precision,
	}
}

// ComputeConfidenceAdjustment maps a rolling accuracy rate (in percent)
// to the confidence feedback term. Accuracy above 70% earns up to +2,
// below 50% costs up to -2, and the band between is deliberately flat so
// ordinary variance does not whipsaw confidence.
func ComputeConfidenceAdjustment(accuracyRate float64) float64 {
	if accuracyRate >= 70 {
		return math.Min(2, (accuracyRate-70)/15)
	}
	if accuracyRate < 50 {
		return math.Max(-2, (accuracyRate-50)/15)
	}
	return 0
}

// BuildPerformanceSnapshot aggregates a symbol's scored history into a
// snapshot. Only the ten most recent settled periods count, ordered by
// target date, so old results age out of the feedback loop.
func BuildPerformanceSnapshot(symbol string, asOf time.Time, scored []model.PredictionRecord) model.PerformanceSnapshot {
	records := make([]model.PredictionRecord, len(scored))
	copy(records, scored)
	sort.Slice(records, func(i, j int) bool {
		return records[i].TargetDate.After(records[j].TargetDate)
	})
	if len(records) > performanceWindow {
		records = records[:performanceWindow]
	}

	snap := model.PerformanceSnapshot{
		Symbol:         symbol,
		EvaluationDate: asOf,
	}

	var confidenceSum, accuracySum float64
	for _, rec := range records {
		snap.TotalPredictions++
		if rec.WasCorrect != nil && *rec.WasCorrect {
			snap.CorrectPredictions++
		}
		confidenceSum += float64(rec.Confidence)
		if rec.AccuracyScore != nil {
			accuracySum += *rec.AccuracyScore
		}
	}

	if snap.TotalPredictions > 0 {
		snap.AccuracyRate = float64(snap.CorrectPredictions) / float64(snap.TotalPredictions) * 100
		snap.AvgConfidence = confidenceSum / float64(snap.TotalPredictions)
		snap.AvgAccuracyScore = accuracySum / float64(snap.TotalPredictions)
		snap.ConfidenceAdjustment = ComputeConfidenceAdjustment(snap.AccuracyRate)
	}

	return snap
}
