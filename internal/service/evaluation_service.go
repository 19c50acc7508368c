package service

import (
	"context"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"go.uber.org/zap"
)

// predictionLifecycle is the slice of the prediction store the evaluator
// drives records through.
type predictionLifecycle interface {
	FindOpenDue(ctx context.Context, asOf time.Time) ([]model.PredictionRecord, error)
	FindUnscored(ctx context.Context) ([]model.PredictionRecord, error)
	AttachOutcome(ctx context.Context, id int64, openPrice, closePrice float64) error
	MarkScored(ctx context.Context, id int64, wasCorrect bool, accuracyScore, errorMargin float64) error
	RecentScored(ctx context.Context, symbol string, limit int) ([]model.PredictionRecord, error)
	SymbolsWithScored(ctx context.Context) ([]string, error)
}

// settlementSource resolves the realized bars of a settled period.
type settlementSource interface {
	BarOn(ctx context.Context, ticker string, date time.Time) (*model.Bar, error)
	FirstBarBetween(ctx context.Context, ticker string, start, end time.Time) (*model.Bar, error)
}

// performanceWriter appends performance snapshots.
type performanceWriter interface {
	Insert(ctx context.Context, snap *model.PerformanceSnapshot) error
}

// LifecyclePublisher announces settled and scored predictions. A nil
// publisher disables events; publish failures are logged and never roll
// back a committed state change.
type LifecyclePublisher interface {
	PublishVerified(ctx context.Context, rec *model.PredictionRecord, openPrice, closePrice float64) error
	PublishScored(ctx context.Context, rec *model.PredictionRecord, wasCorrect bool, accuracyScore, errorMargin float64) error
	PublishPerformance(ctx context.Context, snap *model.PerformanceSnapshot) error
}

// EvaluationService settles elapsed predictions against realized market
// data, scores them, and refreshes the per-symbol performance feedback.
type EvaluationService struct {
	predictions predictionLifecycle
	market      settlementSource
	performance performanceWriter
	universe    *model.SymbolUniverse
	publisher   LifecyclePublisher
	logger      *zap.Logger
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(
	predictions predictionLifecycle,
	market settlementSource,
	performance performanceWriter,
	universe *model.SymbolUniverse,
	publisher LifecyclePublisher,
	logger *zap.Logger,
) *EvaluationService {
	return &EvaluationService{
		predictions: predictions,
		market:      market,
		performance: performance,
		universe:    universe,
		publisher:   publisher,
		logger:      logger,
	}
}

// EvaluateAll runs the three evaluation stages in order. Each stage is
// independently resumable, so a crash between stages only delays work to
// the next cycle.
func (s *EvaluationService) EvaluateAll(ctx context.Context, asOf time.Time) error {
	if err := s.VerifyOutcomes(ctx, asOf); err != nil {
		return err
	}
	if err := s.ScorePredictions(ctx); err != nil {
		return err
	}
	return s.UpdatePerformance(ctx, asOf)
}

// VerifyOutcomes attaches realized open/close prices to OPEN predictions
// whose target date has elapsed. A prediction whose settlement bar has
// not been collected yet simply stays OPEN for the next pass.
func (s *EvaluationService) VerifyOutcomes(ctx context.Context, asOf time.Time) error {
	due, err := s.predictions.FindOpenDue(ctx, asOf)
	if err != nil {
		return err
	}

	verified := 0
	for _, rec := range due {
		ticker := s.universe.Ticker(rec.Symbol)

		closeBar, err := s.market.BarOn(ctx, ticker, rec.TargetDate)
		if err != nil {
			return err
		}
		if closeBar == nil {
			continue
		}

		openBar := closeBar
		if rec.Horizon != model.HorizonDaily {
			openBar, err = s.market.FirstBarBetween(ctx, ticker,
				model.PeriodStart(rec.TargetDate, rec.Horizon), rec.TargetDate)
			if err != nil {
				return err
			}
			if openBar == nil {
				continue
			}
		}

		if err := s.predictions.AttachOutcome(ctx, rec.ID, openBar.Open, closeBar.Close); err != nil {
			return err
		}
		verified++

		if s.publisher != nil {
			if err := s.publisher.PublishVerified(ctx, &rec, openBar.Open, closeBar.Close); err != nil {
				s.logger.Error("Failed to publish verified event", zap.Error(err), zap.Int64("id", rec.ID))
			}
		}
	}

	if verified > 0 {
		s.logger.Info("Verified prediction outcomes",
			zap.Int("verified", verified),
			zap.Int("due", len(due)))
	}
	return nil
}

// ScorePredictions grades every VERIFIED prediction and moves it to its
// terminal SCORED state.
func (s *EvaluationService) ScorePredictions(ctx context.Context) error {
	pending, err := s.predictions.FindUnscored(ctx)
	if err != nil {
		return err
	}

	for _, rec := range pending {
		if rec.RealizedOpen == nil || rec.RealizedClose == nil {
			s.logger.Warn("Verified prediction missing realized prices",
				zap.Int64("id", rec.ID),
				zap.String("symbol", rec.Symbol))
			continue
		}

		out := ScoreOutcome(rec.Direction, rec.PredictedMove, *rec.RealizedOpen, *rec.RealizedClose)
		if err := s.predictions.MarkScored(ctx, rec.ID, out.WasCorrect, out.AccuracyScore, out.ErrorMargin); err != nil {
			return err
		}

		if s.publisher != nil {
			if err := s.publisher.PublishScored(ctx, &rec, out.WasCorrect, out.AccuracyScore, out.ErrorMargin); err != nil {
				s.logger.Error("Failed to publish scored event", zap.Error(err), zap.Int64("id", rec.ID))
			}
		}

		s.logger.Info("Prediction scored",
			zap.Int64("id", rec.ID),
			zap.String("symbol", rec.Symbol),
			zap.String("horizon", string(rec.Horizon)),
			zap.Bool("correct", out.WasCorrect),
			zap.Float64("realized_move", out.RealizedMove))
	}
	return nil
}

// UpdatePerformance recomputes the rolling performance snapshot for every
// symbol that has scored history.
func (s *EvaluationService) UpdatePerformance(ctx context.Context, asOf time.Time) error {
	symbols, err := s.predictions.SymbolsWithScored(ctx)
	if err != nil {
		return err
	}

	for _, symbol := range symbols {
		scored, err := s.predictions.RecentScored(ctx, symbol, performanceWindow)
		if err != nil {
			return err
		}
		if len(scored) == 0 {
			continue
		}

		snap := BuildPerformanceSnapshot(symbol, asOf, scored)
		if err := s.performance.Insert(ctx, &snap); err != nil {
			return err
		}

		if s.publisher != nil {
			if err := s.publisher.PublishPerformance(ctx, &snap); err != nil {
				s.logger.Error("Failed to publish performance event", zap.Error(err), zap.String("symbol", symbol))
			}
		}

		s.logger.Info("Performance snapshot updated",
			zap.String("symbol", symbol),
			zap.Float64("accuracy_rate", snap.AccuracyRate),
			zap.Float64("adjustment", snap.ConfidenceAdjustment))
	}
	return nil
}
