package model

import "time"

// PerformanceSnapshot is one append-only evaluation of a symbol's recent
// forecasting record. The calibration step always reads the most recent
// snapshot; history is kept for the archive views.
type PerformanceSnapshot struct {
	ID                   int64     `db:"id" json:"id"`
	Symbol               string    `db:"symbol" json:"symbol"`
	EvaluationDate       time.Time `db:"evaluation_date" json:"evaluation_date"`
	TotalPredictions     int       `db:"total_predictions" json:"total_predictions"`
	CorrectPredictions   int       `db:"correct_predictions" json:"correct_predictions"`
	AccuracyRate         float64   `db:"accuracy_rate" json:"accuracy_rate"`
	AvgConfidence        float64   `db:"avg_confidence" json:"avg_confidence"`
	AvgAccuracyScore     float64   `db:"avg_accuracy_score" json:"avg_accuracy_score"`
	ConfidenceAdjustment float64   `db:"confidence_adjustment" json:"confidence_adjustment"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}
