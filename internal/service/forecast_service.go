package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"go.uber.org/zap"
)

// Forecaster generates one raw reply for one prompt.
type Forecaster interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// featureSource builds the per-symbol input bundle.
type featureSource interface {
	Snapshot(ctx context.Context, sym model.Symbol, now time.Time) (*model.FeatureSnapshot, error)
}

// predictionWriter persists forecast records.
type predictionWriter interface {
	Upsert(ctx context.Context, rec *model.PredictionRecord) error
}

// adjustmentSource supplies the live per-symbol confidence feedback term.
type adjustmentSource interface {
	LatestAdjustment(ctx context.Context, symbol string) (float64, error)
}

// ForecastService runs the full request path for one (symbol, horizon):
// features -> prompt -> model -> parse -> calibrate -> persist.
type ForecastService struct {
	features    featureSource
	forecaster  Forecaster
	predictions predictionWriter
	adjustments adjustmentSource
	logger      *zap.Logger
}

// NewForecastService creates a new forecast service
func NewForecastService(
	features featureSource,
	forecaster Forecaster,
	predictions predictionWriter,
	adjustments adjustmentSource,
	logger *zap.Logger,
) *ForecastService {
	return &ForecastService{
		features:    features,
		forecaster:  forecaster,
		predictions: predictions,
		adjustments: adjustments,
		logger:      logger,
	}
}

// RequestForecast produces and persists one forecast. A reply that cannot
// be parsed returns ErrParse and persists nothing; an attempt to replace
// a settled record returns ErrOutcomeLocked.
func (s *ForecastService) RequestForecast(ctx context.Context, sym model.Symbol, horizon model.Horizon, now time.Time) (*model.PredictionRecord, error) {
	targetDate := model.TargetDate(now, horizon)
	periodKey := model.TargetPeriodKey(now, horizon)

	snap, err := s.features.Snapshot(ctx, sym, now)
	if err != nil {
		return nil, err
	}
	if snap.LatestBar == nil {
		return nil, fmt.Errorf("%w: no price history for %s", model.ErrNoData, sym.Ticker)
	}

	prompt := BuildPrompt(snap, horizon, targetDate)

	raw, err := s.forecaster.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseForecast(raw, horizon)
	if err != nil {
		s.logger.Warn("Discarding unparseable forecast reply",
			zap.Error(err),
			zap.String("symbol", sym.Name),
			zap.String("horizon", string(horizon)))
		return nil, err
	}

	adjustment, err := s.adjustments.LatestAdjustment(ctx, sym.Name)
	if err != nil {
		return nil, err
	}

	calibrated := Calibrate(parsed.Confidence, CalibrationInput{
		Direction:      parsed.Direction,
		SignalsAligned: parsed.SignalsAligned,
		MaxSignals:     horizon.MaxSignals(),
		VolumeRatio:    snap.VolumeRatio(),
		SentimentScore: parsed.SentimentScore,
		TechnicalScore: parsed.TechnicalScore,
		Adjustment:     adjustment,
	})

	rec := &model.PredictionRecord{
		Symbol:         sym.Name,
		Horizon:        horizon,
		TargetPeriod:   periodKey,
		TargetDate:     targetDate,
		Status:         model.StatusOpen,
		Direction:      parsed.Direction,
		PredictedMove:  parsed.PredictedMove,
		Confidence:     calibrated,
		RawConfidence:  parsed.Confidence,
		Probability:    parsed.Probability,
		TargetMin:      parsed.TargetMin,
		TargetMax:      parsed.TargetMax,
		RiskLevel:      parsed.RiskLevel,
		Rationale:      parsed.Rationale,
		KeyFactors:     strings.Join(parsed.KeyFactors, "; "),
		TechnicalScore: parsed.TechnicalScore,
		MarketScore:    parsed.MarketScore,
		SentimentScore: parsed.SentimentScore,
		SignalsAligned: parsed.SignalsAligned,
	}

	if err := s.predictions.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("Forecast recorded",
		zap.String("symbol", sym.Name),
		zap.String("horizon", string(horizon)),
		zap.String("target_period", periodKey),
		zap.String("direction", string(rec.Direction)),
		zap.Int("confidence", rec.Confidence))

	return rec, nil
}
