package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MacroRepository reads the daily global-macro snapshots.
type MacroRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMacroRepository creates a new macro repository
func NewMacroRepository(db *sqlx.DB, logger *zap.Logger) *MacroRepository {
	return &MacroRepository{
		db:     db,
		logger: logger,
	}
}

// Latest returns the most recent macro snapshot, or nil when the
// collector has never run.
func (r *MacroRepository) Latest(ctx context.Context) (*model.MacroContext, error) {
	var m model.MacroContext
	err := r.db.GetContext(ctx, &m, `
		SELECT date, index_close, index_change_pct, crude_oil, fx_rate,
		       trend_regime, volatility_regime
		FROM macro_context
		ORDER BY date DESC
		LIMIT 1
	`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get macro context", zap.Error(err))
		return nil, err
	}

	return &m, nil
}
