package service

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeForecastRunner struct {
	calls []string
	fail  map[string]error
}

func (f *fakeForecastRunner) RequestForecast(_ context.Context, sym model.Symbol, horizon model.Horizon, _ time.Time) (*model.PredictionRecord, error) {
	key := sym.Name + "/" + string(horizon)
	f.calls = append(f.calls, key)
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	return &model.PredictionRecord{Symbol: sym.Name, Horizon: horizon}, nil
}

type fakeEvaluator struct {
	ranAt []time.Time
}

func (f *fakeEvaluator) EvaluateAll(_ context.Context, asOf time.Time) error {
	f.ranAt = append(f.ranAt, asOf)
	return nil
}

type capturingPublisher struct {
	events []*model.PredictionRecord
}

func (p *capturingPublisher) PublishForecast(_ context.Context, rec *model.PredictionRecord) error {
	p.events = append(p.events, rec)
	return nil
}

func TestActiveHorizons(t *testing.T) {
	wednesday := time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, []model.Horizon{model.HorizonDaily}, ActiveHorizons(wednesday))

	friday := time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, []model.Horizon{model.HorizonDaily, model.HorizonWeekly}, ActiveHorizons(friday))

	monthEnd := time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC) // a Monday
	assert.Equal(t, []model.Horizon{model.HorizonDaily, model.HorizonMonthly}, ActiveHorizons(monthEnd))

	// Friday 2025-10-31 is both week and month end.
	both := time.Date(2025, 10, 31, 18, 0, 0, 0, time.UTC)
	assert.Equal(t,
		[]model.Horizon{model.HorizonDaily, model.HorizonWeekly, model.HorizonMonthly},
		ActiveHorizons(both))
}

func TestRunEvaluatesBeforeForecasting(t *testing.T) {
	runner := &fakeForecastRunner{}
	evaluator := &fakeEvaluator{}
	universe := model.NewSymbolUniverse([]model.Symbol{
		{Name: "RELIANCE", Ticker: "RELIANCE.NS"},
		{Name: "TCS", Ticker: "TCS.NS"},
	})

	pipeline := NewPipelineService(runner, evaluator, universe, nil, 0, zap.NewNop())

	wednesday := time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)
	require.NoError(t, pipeline.Run(context.Background(), wednesday))

	require.Len(t, evaluator.ranAt, 1)
	assert.Equal(t, []string{"RELIANCE/DAILY", "TCS/DAILY"}, runner.calls)
}

func TestRunSkipsFailedSymbolsAndContinues(t *testing.T) {
	runner := &fakeForecastRunner{fail: map[string]error{
		"RELIANCE/DAILY": model.ErrParse,
	}}
	universe := model.NewSymbolUniverse([]model.Symbol{
		{Name: "RELIANCE", Ticker: "RELIANCE.NS"},
		{Name: "TCS", Ticker: "TCS.NS"},
	})
	publisher := &capturingPublisher{}

	pipeline := NewPipelineService(runner, &fakeEvaluator{}, universe, publisher, 0, zap.NewNop())

	wednesday := time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)
	require.NoError(t, pipeline.Run(context.Background(), wednesday))

	assert.Len(t, runner.calls, 2, "the failed symbol must not abort the batch")
	require.Len(t, publisher.events, 1, "only persisted forecasts are announced")
	assert.Equal(t, "TCS", publisher.events[0].Symbol)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	runner := &fakeForecastRunner{}
	universe := model.NewSymbolUniverse([]model.Symbol{
		{Name: "RELIANCE", Ticker: "RELIANCE.NS"},
		{Name: "TCS", Ticker: "TCS.NS"},
	})

	// A pace longer than the test combined with immediate cancellation
	// stops the cycle at the first pacing sleep.
	pipeline := NewPipelineService(runner, &fakeEvaluator{}, universe, nil, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.Run(ctx, time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.LessOrEqual(t, len(runner.calls), 1)
}
