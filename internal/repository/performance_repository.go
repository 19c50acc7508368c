package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PerformanceRepository handles database operations for performance snapshots
type PerformanceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPerformanceRepository creates a new performance repository
func NewPerformanceRepository(db *sqlx.DB, logger *zap.Logger) *PerformanceRepository {
	return &PerformanceRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a performance snapshot. Snapshots are never updated in
// place; the latest row per symbol is the live adjustment.
func (r *PerformanceRepository) Insert(ctx context.Context, snap *model.PerformanceSnapshot) error {
	query := `
		INSERT INTO performance_snapshots (
			symbol, evaluation_date, total_predictions, correct_predictions,
			accuracy_rate, avg_confidence, avg_accuracy_score, confidence_adjustment,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		snap.Symbol, snap.EvaluationDate, snap.TotalPredictions, snap.CorrectPredictions,
		snap.AccuracyRate, snap.AvgConfidence, snap.AvgAccuracyScore, snap.ConfidenceAdjustment,
	).Scan(&snap.ID)

	if err != nil {
		r.logger.Error("Failed to insert performance snapshot",
			zap.Error(err),
			zap.String("symbol", snap.Symbol))
		return err
	}

	return nil
}

// Latest returns the most recent snapshot for a symbol, or nil when the
// symbol has no scored history yet.
func (r *PerformanceRepository) Latest(ctx context.Context, symbol string) (*model.PerformanceSnapshot, error) {
	query := `
		SELECT id, symbol, evaluation_date, total_predictions, correct_predictions,
		       accuracy_rate, avg_confidence, avg_accuracy_score, confidence_adjustment,
		       created_at
		FROM performance_snapshots
		WHERE symbol = $1
		ORDER BY evaluation_date DESC, id DESC
		LIMIT 1
	`

	var snap model.PerformanceSnapshot
	err := r.db.GetContext(ctx, &snap, query, symbol)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest performance snapshot",
			zap.Error(err),
			zap.String("symbol", symbol))
		return nil, err
	}

	return &snap, nil
}

// LatestAdjustment returns the live confidence adjustment for a symbol,
// defaulting to zero when no snapshot exists.
func (r *PerformanceRepository) LatestAdjustment(ctx context.Context, symbol string) (float64, error) {
	snap, err := r.Latest(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if snap == nil {
		return 0, nil
	}
	return snap.ConfidenceAdjustment, nil
}
