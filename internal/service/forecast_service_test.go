package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFeatures struct {
	snap *model.FeatureSnapshot
}

func (s *stubFeatures) Snapshot(_ context.Context, sym model.Symbol, _ time.Time) (*model.FeatureSnapshot, error) {
	if s.snap != nil {
		return s.snap, nil
	}
	return &model.FeatureSnapshot{
		Symbol:    sym,
		LatestBar: &model.Bar{Symbol: sym.Ticker, Open: 2850, Close: 2860, Volume: 1000000},
		Macro:     model.UnknownMacroContext(),
	}, nil
}

type stubForecaster struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubForecaster) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

type fakePredictionWriter struct {
	upserted []*model.PredictionRecord
	err      error
}

func (f *fakePredictionWriter) Upsert(_ context.Context, rec *model.PredictionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, rec)
	return nil
}

type stubAdjustments struct {
	adjustment float64
}

func (s *stubAdjustments) LatestAdjustment(_ context.Context, _ string) (float64, error) {
	return s.adjustment, nil
}

var testSymbol = model.Symbol{Name: "RELIANCE", Ticker: "RELIANCE.NS", Sector: "Energy"}

const validReply = "```json\n" + `{
	"direction": "UP",
	"predicted_move_percent": 1.1,
	"confidence_score": 7,
	"probability": 0.65,
	"rationale": "Setup favors continuation.",
	"technical_score": 60,
	"market_score": 6,
	"sentiment_score": 5,
	"signals_aligned": 6
}` + "\n```"

func newTestForecastService(forecaster Forecaster, writer *fakePredictionWriter, adj float64) *ForecastService {
	return NewForecastService(
		&stubFeatures{},
		forecaster,
		writer,
		&stubAdjustments{adjustment: adj},
		zap.NewNop(),
	)
}

func TestRequestForecastPersistsCalibratedRecord(t *testing.T) {
	writer := &fakePredictionWriter{}
	forecaster := &stubForecaster{reply: validReply}
	svc := newTestForecastService(forecaster, writer, 0)

	now := time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC) // Wednesday
	rec, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonDaily, now)
	require.NoError(t, err)
	require.Len(t, writer.upserted, 1)

	assert.Equal(t, "RELIANCE", rec.Symbol)
	assert.Equal(t, model.HorizonDaily, rec.Horizon)
	assert.Equal(t, "2025-03-06", rec.TargetPeriod)
	assert.Equal(t, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), rec.TargetDate)
	assert.Equal(t, model.StatusOpen, rec.Status)
	assert.Equal(t, model.DirectionUp, rec.Direction)

	// Raw 7, all six signals aligned (+2), neutral volume and sentiment.
	assert.Equal(t, 7, rec.RawConfidence)
	assert.Equal(t, 9, rec.Confidence)
}

func TestRequestForecastAppliesPerformanceFeedback(t *testing.T) {
	writer := &fakePredictionWriter{}
	svc := newTestForecastService(&stubForecaster{reply: validReply}, writer, -2)

	rec, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonDaily,
		time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	// Same rules as above, shifted down by the feedback term.
	assert.Equal(t, 7, rec.Confidence)
}

func TestRequestForecastPromptNamesTargetDate(t *testing.T) {
	forecaster := &stubForecaster{reply: validReply}
	svc := newTestForecastService(forecaster, &fakePredictionWriter{}, 0)

	_, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonWeekly,
		time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, forecaster.prompts, 1)
	assert.Contains(t, forecaster.prompts[0], "2025-03-07")
	assert.Contains(t, forecaster.prompts[0], "RELIANCE")
}

func TestRequestForecastUnparseableReplyPersistsNothing(t *testing.T) {
	writer := &fakePredictionWriter{}
	svc := newTestForecastService(&stubForecaster{reply: "no forecast today"}, writer, 0)

	_, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonDaily, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrParse))
	assert.Empty(t, writer.upserted)
}

func TestRequestForecastLockedOutcomePropagates(t *testing.T) {
	writer := &fakePredictionWriter{err: model.ErrOutcomeLocked}
	svc := newTestForecastService(&stubForecaster{reply: validReply}, writer, 0)

	_, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonDaily, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrOutcomeLocked))
}

func TestRequestForecastSkipsSymbolWithoutData(t *testing.T) {
	writer := &fakePredictionWriter{}
	forecaster := &stubForecaster{reply: validReply}
	svc := NewForecastService(
		&stubFeatures{snap: &model.FeatureSnapshot{Symbol: testSymbol, Macro: model.UnknownMacroContext()}},
		forecaster,
		writer,
		&stubAdjustments{},
		zap.NewNop(),
	)

	_, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonDaily, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNoData))
	assert.Empty(t, forecaster.prompts, "no model call for a symbol without market data")
	assert.Empty(t, writer.upserted)
}

func TestRequestForecastForecasterFailure(t *testing.T) {
	writer := &fakePredictionWriter{}
	svc := newTestForecastService(&stubForecaster{err: errors.New("rate limited")}, writer, 0)

	_, err := svc.RequestForecast(context.Background(), testSymbol, model.HorizonDaily, time.Now())
	require.Error(t, err)
	assert.Empty(t, writer.upserted)
}
