package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PredictionRepository handles database operations for prediction records
type PredictionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *sqlx.DB, logger *zap.Logger) *PredictionRepository {
	return &PredictionRepository{
		db:     db,
		logger: logger,
	}
}

const predictionColumns = `
	id, symbol, horizon, target_period, target_date, status,
	direction, predicted_move, confidence_score, raw_confidence, probability,
	target_min, target_max, risk_level, rationale, key_factors,
	technical_score, market_score, sentiment_score, signals_aligned,
	realized_open, realized_close, was_correct, accuracy_score, error_margin,
	created_at, updated_at`

// Upsert inserts a prediction or replaces the forecast payload of an
// existing OPEN record for the same (symbol, horizon, target period).
// The update deliberately never touches outcome or derived columns, and
// the conflict clause refuses to run at all once the record has left the
// OPEN state: overwriting realized data is an invariant violation, not a
// replace.
func (r *PredictionRepository) Upsert(ctx context.Context, rec *model.PredictionRecord) error {
	query := `
		INSERT INTO prediction_records (
			symbol, horizon, target_period, target_date, status,
			direction, predicted_move, confidence_score, raw_confidence, probability,
			target_min, target_max, risk_level, rationale, key_factors,
			technical_score, market_score, sentiment_score, signals_aligned,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		)
		ON CONFLICT (symbol, horizon, target_period)
		DO UPDATE SET
			target_date = EXCLUDED.target_date,
			direction = EXCLUDED.direction,
			predicted_move = EXCLUDED.predicted_move,
			confidence_score = EXCLUDED.confidence_score,
			raw_confidence = EXCLUDED.raw_confidence,
			probability = EXCLUDED.probability,
			target_min = EXCLUDED.target_min,
			target_max = EXCLUDED.target_max,
			risk_level = EXCLUDED.risk_level,
			rationale = EXCLUDED.rationale,
			key_factors = EXCLUDED.key_factors,
			technical_score = EXCLUDED.technical_score,
			market_score = EXCLUDED.market_score,
			sentiment_score = EXCLUDED.sentiment_score,
			signals_aligned = EXCLUDED.signals_aligned,
			updated_at = CURRENT_TIMESTAMP
		WHERE prediction_records.status = $20
		RETURNING id
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		rec.Symbol, rec.Horizon, rec.TargetPeriod, rec.TargetDate, model.StatusOpen,
		rec.Direction, rec.PredictedMove, rec.Confidence, rec.RawConfidence, rec.Probability,
		rec.TargetMin, rec.TargetMax, rec.RiskLevel, rec.Rationale, rec.KeyFactors,
		rec.TechnicalScore, rec.MarketScore, rec.SentimentScore, rec.SignalsAligned,
		model.StatusOpen,
	).Scan(&rec.ID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict row exists but is no longer OPEN.
			return model.ErrOutcomeLocked
		}
		r.logger.Error("Failed to upsert prediction",
			zap.Error(err),
			zap.String("symbol", rec.Symbol),
			zap.String("horizon", string(rec.Horizon)),
			zap.String("target_period", rec.TargetPeriod))
		return err
	}

	rec.Status = model.StatusOpen
	return nil
}

// FindOpenDue returns OPEN predictions whose target date has elapsed as of
// the given time and are therefore candidates for outcome verification.
func (r *PredictionRepository) FindOpenDue(ctx context.Context, asOf time.Time) ([]model.PredictionRecord, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction_records
		WHERE status = $1 AND target_date <= $2
		ORDER BY target_date, symbol
	`

	var records []model.PredictionRecord
	if err := r.db.SelectContext(ctx, &records, query, model.StatusOpen, asOf); err != nil {
		r.logger.Error("Failed to find due open predictions", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// FindUnscored returns VERIFIED predictions awaiting scoring. A crash
// between verification and scoring leaves rows here; the next evaluator
// pass picks them up.
func (r *PredictionRepository) FindUnscored(ctx context.Context) ([]model.PredictionRecord, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction_records
		WHERE status = $1
		ORDER BY target_date, symbol
	`

	var records []model.PredictionRecord
	if err := r.db.SelectContext(ctx, &records, query, model.StatusVerified); err != nil {
		r.logger.Error("Failed to find unscored predictions", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// AttachOutcome records the realized open/close for an OPEN prediction and
// advances it to VERIFIED. Attaching to a record in any other state is
// rejected: the lifecycle never moves backward.
func (r *PredictionRepository) AttachOutcome(ctx context.Context, id int64, openPrice, closePrice float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE prediction_records
		SET realized_open = $1, realized_close = $2, status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5
	`, openPrice, closePrice, model.StatusVerified, id, model.StatusOpen)

	if err != nil {
		r.logger.Error("Failed to attach outcome", zap.Error(err), zap.Int64("id", id))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrOutcomeLocked
	}

	return nil
}

// MarkScored writes the derived correctness fields for a VERIFIED
// prediction and advances it to its terminal SCORED state.
func (r *PredictionRepository) MarkScored(ctx context.Context, id int64, wasCorrect bool, accuracyScore, errorMargin float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE prediction_records
		SET was_correct = $1, accuracy_score = $2, error_margin = $3, status = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND status = $6
	`, wasCorrect, accuracyScore, errorMargin, model.StatusScored, id, model.StatusVerified)

	if err != nil {
		r.logger.Error("Failed to mark prediction scored", zap.Error(err), zap.Int64("id", id))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrOutcomeLocked
	}

	return nil
}

// Latest returns the most recent prediction for a symbol and horizon, or
// nil when none exists.
func (r *PredictionRepository) Latest(ctx context.Context, symbol string, horizon model.Horizon) (*model.PredictionRecord, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction_records
		WHERE symbol = $1 AND horizon = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec model.PredictionRecord
	err := r.db.GetContext(ctx, &rec, query, symbol, horizon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest prediction",
			zap.Error(err),
			zap.String("symbol", symbol),
			zap.String("horizon", string(horizon)))
		return nil, err
	}

	return &rec, nil
}

// FindByPeriod returns the prediction for an exact (symbol, horizon,
// target period) key, or nil when none exists.
func (r *PredictionRepository) FindByPeriod(ctx context.Context, symbol string, horizon model.Horizon, periodKey string) (*model.PredictionRecord, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction_records
		WHERE symbol = $1 AND horizon = $2 AND target_period = $3
	`

	var rec model.PredictionRecord
	err := r.db.GetContext(ctx, &rec, query, symbol, horizon, periodKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get prediction by period",
			zap.Error(err),
			zap.String("symbol", symbol),
			zap.String("target_period", periodKey))
		return nil, err
	}

	return &rec, nil
}

// FindByDateRange returns predictions for a symbol and horizon whose
// target date falls inside the optional date bounds, newest first, with
// offset pagination. The second return value is the total match count.
func (r *PredictionRepository) FindByDateRange(
	ctx context.Context,
	symbol string,
	horizon model.Horizon,
	startDate *time.Time,
	endDate *time.Time,
	limit int,
	offset int,
) ([]model.PredictionRecord, int, error) {
	where := "WHERE symbol = $1 AND horizon = $2"
	args := []interface{}{symbol, horizon}
	argCount := 3

	if startDate != nil {
		where += fmt.Sprintf(" AND target_date >= $%d", argCount)
		args = append(args, *startDate)
		argCount++
	}

	if endDate != nil {
		where += fmt.Sprintf(" AND target_date <= $%d", argCount)
		args = append(args, *endDate)
		argCount++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM prediction_records " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		r.logger.Error("Failed to count predictions", zap.Error(err), zap.String("symbol", symbol))
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM prediction_records
		%s
		ORDER BY target_date DESC
		LIMIT $%d OFFSET $%d
	`, predictionColumns, where, argCount, argCount+1)
	args = append(args, limit, offset)

	var records []model.PredictionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.Error("Failed to list predictions", zap.Error(err), zap.String("symbol", symbol))
		return nil, 0, err
	}

	return records, total, nil
}

// RecentScored returns up to limit SCORED predictions for a symbol,
// ordered by target-period date descending. This ordering, not scoring
// time, defines the rolling performance window.
func (r *PredictionRepository) RecentScored(ctx context.Context, symbol string, limit int) ([]model.PredictionRecord, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction_records
		WHERE symbol = $1 AND status = $2
		ORDER BY target_date DESC
		LIMIT $3
	`

	var records []model.PredictionRecord
	if err := r.db.SelectContext(ctx, &records, query, symbol, model.StatusScored, limit); err != nil {
		r.logger.Error("Failed to get recent scored predictions",
			zap.Error(err),
			zap.String("symbol", symbol))
		return nil, err
	}

	return records, nil
}

// SymbolsWithScored returns the symbols that have at least one SCORED
// prediction and therefore qualify for a performance snapshot.
func (r *PredictionRepository) SymbolsWithScored(ctx context.Context) ([]string, error) {
	var symbols []string
	err := r.db.SelectContext(ctx, &symbols, `
		SELECT DISTINCT symbol FROM prediction_records WHERE status = $1 ORDER BY symbol
	`, model.StatusScored)
	if err != nil {
		r.logger.Error("Failed to list symbols with scored predictions", zap.Error(err))
		return nil, err
	}

	return symbols, nil
}
