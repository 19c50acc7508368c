package service

import (
	"context"
	"errors"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"go.uber.org/zap"
)

// forecastRunner produces one persisted forecast.
type forecastRunner interface {
	RequestForecast(ctx context.Context, sym model.Symbol, horizon model.Horizon, now time.Time) (*model.PredictionRecord, error)
}

// outcomeEvaluator settles and scores elapsed predictions.
type outcomeEvaluator interface {
	EvaluateAll(ctx context.Context, asOf time.Time) error
}

// ForecastPublisher announces persisted forecasts to downstream
// consumers.
type ForecastPublisher interface {
	PublishForecast(ctx context.Context, rec *model.PredictionRecord) error
}

// PipelineService runs one full cycle: evaluation first, so today's
// calibration already reflects yesterday's outcomes, then forecast
// generation across the universe.
type PipelineService struct {
	forecasts forecastRunner
	evaluator outcomeEvaluator
	universe  *model.SymbolUniverse
	publisher ForecastPublisher
	pace      time.Duration
	logger    *zap.Logger
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	forecasts forecastRunner,
	evaluator outcomeEvaluator,
	universe *model.SymbolUniverse,
	publisher ForecastPublisher,
	pace time.Duration,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		forecasts: forecasts,
		evaluator: evaluator,
		universe:  universe,
		publisher: publisher,
		pace:      pace,
		logger:    logger,
	}
}

// ActiveHorizons returns the horizons a cycle at now should forecast:
// daily on every run, weekly only on Fridays, monthly only on the last
// calendar day of the month.
func ActiveHorizons(now time.Time) []model.Horizon {
	horizons := []model.Horizon{model.HorizonDaily}
	if now.Weekday() == time.Friday {
		horizons = append(horizons, model.HorizonWeekly)
	}
	if model.IsLastDayOfMonth(now) {
		horizons = append(horizons, model.HorizonMonthly)
	}
	return horizons
}

// Run executes one cycle as of now. Per-symbol failures are logged and
// skipped; one bad reply never aborts the batch.
func (s *PipelineService) Run(ctx context.Context, now time.Time) error {
	if err := s.evaluator.EvaluateAll(ctx, now); err != nil {
		// Forecasting still has value when evaluation fails; the
		// evaluator resumes from persisted state next cycle.
		s.logger.Error("Evaluation stage failed", zap.Error(err))
	}

	horizons := ActiveHorizons(now)
	s.logger.Info("Starting forecast cycle",
		zap.Int("symbols", s.universe.Size()),
		zap.Int("horizons", len(horizons)))

	produced, skipped := 0, 0
	first := true
	for _, sym := range s.universe.All() {
		for _, horizon := range horizons {
			if !first {
				if err := s.sleep(ctx); err != nil {
					return err
				}
			}
			first = false

			rec, err := s.forecasts.RequestForecast(ctx, sym, horizon, now)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				skipped++
				if errors.Is(err, model.ErrParse) || errors.Is(err, model.ErrOutcomeLocked) || errors.Is(err, model.ErrNoData) {
					s.logger.Warn("Skipping forecast",
						zap.Error(err),
						zap.String("symbol", sym.Name),
						zap.String("horizon", string(horizon)))
				} else {
					s.logger.Error("Forecast failed",
						zap.Error(err),
						zap.String("symbol", sym.Name),
						zap.String("horizon", string(horizon)))
				}
				continue
			}
			produced++

			if s.publisher != nil {
				if err := s.publisher.PublishForecast(ctx, rec); err != nil {
					s.logger.Error("Failed to publish forecast event",
						zap.Error(err),
						zap.String("symbol", sym.Name))
				}
			}
		}
	}

	s.logger.Info("Forecast cycle complete",
		zap.Int("produced", produced),
		zap.Int("skipped", skipped))
	return nil
}

// sleep paces forecaster calls, bailing out early on context
// cancellation.
func (s *PipelineService) sleep(ctx context.Context) error {
	if s.pace <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
