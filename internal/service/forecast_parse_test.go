package service

import (
	"errors"
	"testing"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullReply = "Here is my analysis.\n```json\n{\n" +
	`  "direction": "UP",
  "predicted_move_percent": 1.2,
  "confidence_score": 7,
  "probability": 0.68,
  "target_min": 2840.0,
  "target_max": 2915.0,
  "risk_level": "medium",
  "rationale": "Momentum and volume both support continuation.",
  "key_factors": ["RSI recovery", "MACD crossover"],
  "technical_score": 72,
  "market_score": 6.5,
  "sentiment_score": 7,
  "signals_aligned": 5
}` + "\n```\nGood luck."

func TestParseForecastFencedReply(t *testing.T) {
	parsed, err := ParseForecast(fullReply, model.HorizonDaily)
	require.NoError(t, err)

	assert.Equal(t, model.DirectionUp, parsed.Direction)
	assert.InDelta(t, 1.2, parsed.PredictedMove, 1e-9)
	assert.Equal(t, 7, parsed.Confidence)
	assert.InDelta(t, 0.68, parsed.Probability, 1e-9)
	assert.Equal(t, "MEDIUM", parsed.RiskLevel)
	assert.Equal(t, []string{"RSI recovery", "MACD crossover"}, parsed.KeyFactors)
	assert.Equal(t, 5, parsed.SignalsAligned)
	require.NotNil(t, parsed.TargetMin)
	assert.InDelta(t, 2840.0, *parsed.TargetMin, 1e-9)
}

func TestParseForecastGenericFence(t *testing.T) {
	raw := "```\n{\"direction\": \"DOWN\", \"confidence_score\": 4}\n```"

	parsed, err := ParseForecast(raw, model.HorizonDaily)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionDown, parsed.Direction)
	assert.Equal(t, 4, parsed.Confidence)
}

func TestParseForecastBareBraces(t *testing.T) {
	raw := `The outlook is mixed. {"direction": "neutral", "probability": 0.5} Take care.`

	parsed, err := ParseForecast(raw, model.HorizonWeekly)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionNeutral, parsed.Direction)
}

func TestParseForecastDefaultsFillGaps(t *testing.T) {
	parsed, err := ParseForecast(`{}`, model.HorizonDaily)
	require.NoError(t, err)

	assert.Equal(t, model.DirectionNeutral, parsed.Direction)
	assert.Zero(t, parsed.PredictedMove)
	assert.Equal(t, 5, parsed.Confidence)
	assert.InDelta(t, 0.5, parsed.Probability, 1e-9)
	assert.InDelta(t, 5.0, parsed.TechnicalScore, 1e-9)
	assert.InDelta(t, 5.0, parsed.MarketScore, 1e-9)
	assert.InDelta(t, 5.0, parsed.SentimentScore, 1e-9)
	assert.Zero(t, parsed.SignalsAligned)
	assert.Nil(t, parsed.TargetMin)
	assert.Nil(t, parsed.TargetMax)
}

func TestParseForecastUnknownDirectionFallsBack(t *testing.T) {
	parsed, err := ParseForecast(`{"direction": "SIDEWAYS"}`, model.HorizonDaily)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionNeutral, parsed.Direction)
}

func TestParseForecastClampsOutOfRangeValues(t *testing.T) {
	raw := `{
		"direction": "UP",
		"predicted_move_percent": 9.0,
		"confidence_score": 15,
		"probability": 1.4,
		"signals_aligned": 9
	}`

	parsed, err := ParseForecast(raw, model.HorizonDaily)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, parsed.PredictedMove, 1e-9, "daily move clamped to horizon band")
	assert.Equal(t, 10, parsed.Confidence)
	assert.InDelta(t, 1.0, parsed.Probability, 1e-9)
	assert.Equal(t, 6, parsed.SignalsAligned)

	// The same move is in range for a monthly forecast.
	parsed, err = ParseForecast(raw, model.HorizonMonthly)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, parsed.PredictedMove, 1e-9)
	assert.Equal(t, 3, parsed.SignalsAligned)
}

func TestParseForecastNegativeMoveClamp(t *testing.T) {
	parsed, err := ParseForecast(`{"direction": "DOWN", "predicted_move_percent": -8.0}`, model.HorizonDaily)
	require.NoError(t, err)
	assert.InDelta(t, -2.5, parsed.PredictedMove, 1e-9)
}

func TestParseForecastMalformedReplies(t *testing.T) {
	cases := map[string]string{
		"no JSON at all":   "I cannot provide a forecast today.",
		"empty reply":      "",
		"broken JSON":      `{"direction": "UP", "confidence_score": }`,
		"array not object": `["UP", 7]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseForecast(raw, model.HorizonDaily)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrParse))
		})
	}
}
