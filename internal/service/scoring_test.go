package service

import (
	"testing"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealizedMove(t *testing.T) {
	assert.InDelta(t, -0.5, RealizedMove(100, 99.5), 1e-9)
	assert.InDelta(t, 1.0, RealizedMove(100, 101), 1e-9)
	assert.Zero(t, RealizedMove(0, 50))
}

func TestRealizedDirectionDeadBand(t *testing.T) {
	assert.Equal(t, model.DirectionUp, RealizedDirection(0.21))
	assert.Equal(t, model.DirectionDown, RealizedDirection(-0.21))

	// Exactly at the threshold counts as NEUTRAL on both sides.
	assert.Equal(t, model.DirectionNeutral, RealizedDirection(0.2))
	assert.Equal(t, model.DirectionNeutral, RealizedDirection(-0.2))
	assert.Equal(t, model.DirectionNeutral, RealizedDirection(0))
}

func TestScoreOutcomeWrongDirection(t *testing.T) {
	// Predicted UP +1.0%, realized -0.5%: miss, with a 1.5 point error.
	out := ScoreOutcome(model.DirectionUp, 1.0, 100, 99.5)

	assert.False(t, out.WasCorrect)
	assert.InDelta(t, -0.5, out.RealizedMove, 1e-9)
	assert.InDelta(t, 1.5, out.ErrorMargin, 1e-9)
	assert.InDelta(t, 0.255, out.AccuracyScore, 1e-9)
}

func TestScoreOutcomePerfectCall(t *testing.T) {
	out := ScoreOutcome(model.DirectionUp, 1.0, 100, 101)

	assert.True(t, out.WasCorrect)
	assert.InDelta(t, 0, out.ErrorMargin, 1e-9)
	assert.InDelta(t, 1.0, out.AccuracyScore, 1e-9)
}

func TestScoreOutcomeLargeErrorZeroesPrecision(t *testing.T) {
	// Correct direction but a 12-point magnitude miss: only the hit
	// component survives.
	out := ScoreOutcome(model.DirectionUp, 12.5, 100, 100.5)

	assert.True(t, out.WasCorrect)
	assert.InDelta(t, 0.7, out.AccuracyScore, 1e-9)
}

func TestComputeConfidenceAdjustment(t *testing.T) {
	assert.InDelta(t, 2.0, ComputeConfidenceAdjustment(100), 1e-9)
	assert.InDelta(t, 1.0, ComputeConfidenceAdjustment(85), 1e-9)
	assert.InDelta(t, 0.0, ComputeConfidenceAdjustment(70), 1e-9)

	// The 50-70 band is flat.
	assert.Zero(t, ComputeConfidenceAdjustment(69))
	assert.Zero(t, ComputeConfidenceAdjustment(55))
	assert.Zero(t, ComputeConfidenceAdjustment(50))

	assert.InDelta(t, -1.0, ComputeConfidenceAdjustment(35), 1e-9)
	assert.InDelta(t, -2.0, ComputeConfidenceAdjustment(20), 1e-9)
	assert.InDelta(t, -2.0, ComputeConfidenceAdjustment(0), 1e-9)
}

func scoredRecord(targetDate time.Time, correct bool, confidence int, accuracy float64) model.PredictionRecord {
	return model.PredictionRecord{
		Symbol:        "RELIANCE",
		Horizon:       model.HorizonDaily,
		Status:        model.StatusScored,
		TargetDate:    targetDate,
		Confidence:    confidence,
		WasCorrect:    &correct,
		AccuracyScore: &accuracy,
	}
}

func TestBuildPerformanceSnapshotRollingWindow(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Twelve scored records; the two oldest are both misses and must age
	// out of the ten-record window.
	var records []model.PredictionRecord
	records = append(records,
		scoredRecord(base, false, 5, 0),
		scoredRecord(base.AddDate(0, 0, 1), false, 5, 0),
	)
	for i := 2; i < 12; i++ {
		records = append(records, scoredRecord(base.AddDate(0, 0, i), true, 8, 0.85))
	}

	snap := BuildPerformanceSnapshot("RELIANCE", base.AddDate(0, 0, 20), records)

	require.Equal(t, 10, snap.TotalPredictions)
	assert.Equal(t, 10, snap.CorrectPredictions)
	assert.InDelta(t, 100.0, snap.AccuracyRate, 1e-9)
	assert.InDelta(t, 8.0, snap.AvgConfidence, 1e-9)
	assert.InDelta(t, 0.85, snap.AvgAccuracyScore, 1e-9)
	assert.InDelta(t, 2.0, snap.ConfidenceAdjustment, 1e-9)
}

func TestBuildPerformanceSnapshotMixedRecord(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var records []model.PredictionRecord
	for i := 0; i < 6; i++ {
		records = append(records, scoredRecord(base.AddDate(0, 0, i), true, 7, 0.9))
	}
	for i := 6; i < 10; i++ {
		records = append(records, scoredRecord(base.AddDate(0, 0, i), false, 6, 0.1))
	}

	snap := BuildPerformanceSnapshot("TCS", base.AddDate(0, 0, 15), records)

	assert.Equal(t, 10, snap.TotalPredictions)
	assert.Equal(t, 6, snap.CorrectPredictions)
	assert.InDelta(t, 60.0, snap.AccuracyRate, 1e-9)
	// 60% sits in the flat band: no feedback either way.
	assert.Zero(t, snap.ConfidenceAdjustment)
}

func TestBuildPerformanceSnapshotEmpty(t *testing.T) {
	snap := BuildPerformanceSnapshot("INFY", time.Now(), nil)

	assert.Zero(t, snap.TotalPredictions)
	assert.Zero(t, snap.AccuracyRate)
	assert.Zero(t, snap.ConfidenceAdjustment)
}
