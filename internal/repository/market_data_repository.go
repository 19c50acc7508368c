package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MarketDataRepository reads the price, indicator, fundamental, and
// pattern tables maintained by the upstream collectors. The forecast core
// never writes to these tables.
type MarketDataRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(db *sqlx.DB, logger *zap.Logger) *MarketDataRepository {
	return &MarketDataRepository{
		db:     db,
		logger: logger,
	}
}

// LatestBar returns the most recent daily bar for a ticker, or nil when
// no price history exists.
func (r *MarketDataRepository) LatestBar(ctx context.Context, ticker string) (*model.Bar, error) {
	var bar model.Bar
	err := r.db.GetContext(ctx, &bar, `
		SELECT symbol, date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`, ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest bar", zap.Error(err), zap.String("ticker", ticker))
		return nil, err
	}

	return &bar, nil
}

// BarOn returns the bar for a ticker on an exact date, or nil when the
// market has not produced one (future date, weekend, holiday).
func (r *MarketDataRepository) BarOn(ctx context.Context, ticker string, date time.Time) (*model.Bar, error) {
	var bar model.Bar
	err := r.db.GetContext(ctx, &bar, `
		SELECT symbol, date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1 AND date = $2
	`, ticker, date.Format("2006-01-02"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get bar",
			zap.Error(err),
			zap.String("ticker", ticker),
			zap.Time("date", date))
		return nil, err
	}

	return &bar, nil
}

// FirstBarBetween returns the earliest bar inside [start, end], used to
// locate the opening bar of a weekly or monthly settlement period.
func (r *MarketDataRepository) FirstBarBetween(ctx context.Context, ticker string, start, end time.Time) (*model.Bar, error) {
	var bar model.Bar
	err := r.db.GetContext(ctx, &bar, `
		SELECT symbol, date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date
		LIMIT 1
	`, ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get first bar in range",
			zap.Error(err),
			zap.String("ticker", ticker))
		return nil, err
	}

	return &bar, nil
}

// History returns up to lookbackDays of daily bars, newest first.
func (r *MarketDataRepository) History(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error) {
	var bars []model.Bar
	err := r.db.SelectContext(ctx, &bars, `
		SELECT symbol, date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`, ticker, lookbackDays)
	if err != nil {
		r.logger.Error("Failed to get price history", zap.Error(err), zap.String("ticker", ticker))
		return nil, err
	}

	return bars, nil
}

// LatestIndicators returns the newest technical-indicator row for a
// ticker, or nil when the signal provider has not produced one.
func (r *MarketDataRepository) LatestIndicators(ctx context.Context, ticker string) (*model.IndicatorRow, error) {
	var row model.IndicatorRow
	err := r.db.GetContext(ctx, &row, `
		SELECT symbol, date, rsi, macd, macd_signal, macd_histogram,
		       bb_upper, bb_middle, bb_lower, sma_20, volume_ratio
		FROM technical_indicators
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`, ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get indicators", zap.Error(err), zap.String("ticker", ticker))
		return nil, err
	}

	return &row, nil
}

// AnalogueHistory returns indicator readings over the lookback window
// joined with the return realized on the following trading day, excluding
// the current day whose outcome is still unknown.
func (r *MarketDataRepository) AnalogueHistory(ctx context.Context, ticker string, lookbackDays int) ([]model.AnalogueRow, error) {
	var rows []model.AnalogueRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT ti.date, ti.rsi, ti.macd, ti.macd_signal, p.next_return
		FROM technical_indicators ti
		JOIN (
			SELECT date,
			       (LEAD(close) OVER (ORDER BY date) - close) / NULLIF(close, 0) * 100 AS next_return
			FROM daily_bars
			WHERE symbol = $1
		) p ON p.date = ti.date
		WHERE ti.symbol = $1
		  AND ti.date >= CURRENT_DATE - $2 * INTERVAL '1 day'
		  AND ti.date < CURRENT_DATE
		ORDER BY ti.date DESC
	`, ticker, lookbackDays)
	if err != nil {
		r.logger.Error("Failed to get analogue history", zap.Error(err), zap.String("ticker", ticker))
		return nil, err
	}

	return rows, nil
}

// LatestFundamentals returns the newest fundamental snapshot for a
// ticker, or nil when none has been collected.
func (r *MarketDataRepository) LatestFundamentals(ctx context.Context, ticker string) (*model.Fundamentals, error) {
	var f model.Fundamentals
	err := r.db.GetContext(ctx, &f, `
		SELECT symbol, date, pe_ratio, roe, roce, debt_to_equity, market_cap
		FROM stock_fundamentals
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`, ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get fundamentals", zap.Error(err), zap.String("ticker", ticker))
		return nil, err
	}

	return &f, nil
}

// RecentPatterns returns chart patterns detected for a ticker within the
// last few sessions.
func (r *MarketDataRepository) RecentPatterns(ctx context.Context, ticker string, sinceDays int) ([]model.PatternSignal, error) {
	var patterns []model.PatternSignal
	err := r.db.SelectContext(ctx, &patterns, `
		SELECT symbol, date, pattern, signal, support, resistance
		FROM pattern_signals
		WHERE symbol = $1 AND date >= CURRENT_DATE - $2 * INTERVAL '1 day'
		ORDER BY date DESC
	`, ticker, sinceDays)
	if err != nil {
		r.logger.Error("Failed to get pattern signals", zap.Error(err), zap.String("ticker", ticker))
		return nil, err
	}

	return patterns, nil
}

// SeasonalWindow returns the bars for one calendar month of one year,
// used for same-period seasonality statistics.
func (r *MarketDataRepository) SeasonalWindow(ctx context.Context, ticker string, year int, month time.Month) ([]model.Bar, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)

	var bars []model.Bar
	err := r.db.SelectContext(ctx, &bars, `
		SELECT symbol, date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		r.logger.Error("Failed to get seasonal window",
			zap.Error(err),
			zap.String("ticker", ticker),
			zap.Int("year", year))
		return nil, err
	}

	return bars, nil
}
