package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schemaStatements creates the tables the forecast core owns, plus the
// upstream-collector tables so a fresh environment can boot without a
// separate migration step. All statements are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS daily_bars (
		symbol VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		open DOUBLE PRECISION NOT NULL,
		high DOUBLE PRECISION NOT NULL,
		low DOUBLE PRECISION NOT NULL,
		close DOUBLE PRECISION NOT NULL,
		volume BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, date)
	)`,
	`CREATE TABLE IF NOT EXISTS technical_indicators (
		symbol VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		rsi DOUBLE PRECISION,
		macd DOUBLE PRECISION,
		macd_signal DOUBLE PRECISION,
		macd_histogram DOUBLE PRECISION,
		bb_upper DOUBLE PRECISION,
		bb_middle DOUBLE PRECISION,
		bb_lower DOUBLE PRECISION,
		sma_20 DOUBLE PRECISION,
		volume_ratio DOUBLE PRECISION,
		PRIMARY KEY (symbol, date)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_fundamentals (
		symbol VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		pe_ratio DOUBLE PRECISION,
		roe DOUBLE PRECISION,
		roce DOUBLE PRECISION,
		debt_to_equity DOUBLE PRECISION,
		market_cap DOUBLE PRECISION,
		PRIMARY KEY (symbol, date)
	)`,
	`CREATE TABLE IF NOT EXISTS pattern_signals (
		id BIGSERIAL PRIMARY KEY,
		symbol VARCHAR(32) NOT NULL,
		date DATE NOT NULL,
		pattern VARCHAR(64) NOT NULL,
		signal VARCHAR(16) NOT NULL,
		support DOUBLE PRECISION,
		resistance DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pattern_signals_symbol_date
		ON pattern_signals (symbol, date DESC)`,
	`CREATE TABLE IF NOT EXISTS macro_context (
		date DATE PRIMARY KEY,
		index_close DOUBLE PRECISION,
		index_change_pct DOUBLE PRECISION,
		crude_oil DOUBLE PRECISION,
		fx_rate DOUBLE PRECISION,
		trend_regime VARCHAR(16) NOT NULL DEFAULT 'UNKNOWN',
		volatility_regime VARCHAR(16) NOT NULL DEFAULT 'UNKNOWN'
	)`,
	`CREATE TABLE IF NOT EXISTS prediction_records (
		id BIGSERIAL PRIMARY KEY,
		symbol VARCHAR(64) NOT NULL,
		horizon VARCHAR(16) NOT NULL,
		target_period VARCHAR(16) NOT NULL,
		target_date DATE NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'OPEN',
		direction VARCHAR(16) NOT NULL,
		predicted_move DOUBLE PRECISION NOT NULL,
		confidence_score INTEGER NOT NULL,
		raw_confidence INTEGER NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		target_min DOUBLE PRECISION,
		target_max DOUBLE PRECISION,
		risk_level VARCHAR(16) NOT NULL DEFAULT '',
		rationale TEXT NOT NULL DEFAULT '',
		key_factors TEXT NOT NULL DEFAULT '',
		technical_score DOUBLE PRECISION NOT NULL DEFAULT 5,
		market_score DOUBLE PRECISION NOT NULL DEFAULT 5,
		sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 5,
		signals_aligned INTEGER NOT NULL DEFAULT 0,
		realized_open DOUBLE PRECISION,
		realized_close DOUBLE PRECISION,
		was_correct BOOLEAN,
		accuracy_score DOUBLE PRECISION,
		error_margin DOUBLE PRECISION,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (symbol, horizon, target_period)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_records_status_target
		ON prediction_records (status, target_date)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_records_symbol_target
		ON prediction_records (symbol, target_date DESC)`,
	`CREATE TABLE IF NOT EXISTS performance_snapshots (
		id BIGSERIAL PRIMARY KEY,
		symbol VARCHAR(64) NOT NULL,
		evaluation_date DATE NOT NULL,
		total_predictions INTEGER NOT NULL,
		correct_predictions INTEGER NOT NULL,
		accuracy_rate DOUBLE PRECISION NOT NULL,
		avg_confidence DOUBLE PRECISION NOT NULL,
		avg_accuracy_score DOUBLE PRECISION NOT NULL,
		confidence_adjustment DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_performance_snapshots_symbol_date
		ON performance_snapshots (symbol, evaluation_date DESC)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
