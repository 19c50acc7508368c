package service

import (
	"testing"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func analogueRow(rsi, macd, signal, nextReturn float64) model.AnalogueRow {
	return model.AnalogueRow{
		Date:       time.Now(),
		RSI:        fp(rsi),
		MACD:       fp(macd),
		MACDSignal: fp(signal),
		NextReturn: fp(nextReturn),
	}
}

func TestSummarizeAnaloguesMatchesSimilarSetups(t *testing.T) {
	current := &model.IndicatorRow{
		RSI:        fp(62),
		MACD:       fp(1.5),
		MACDSignal: fp(1.0),
	}

	rows := []model.AnalogueRow{
		analogueRow(60, 2.0, 1.5, 1.2),   // match: RSI close, MACD bullish
		analogueRow(65, 0.5, 0.2, -0.4),  // match
		analogueRow(30, 2.0, 1.5, 3.0),   // RSI too far away
		analogueRow(61, -1.0, -0.2, 2.0), // MACD relationship flipped
	}

	summary := SummarizeAnalogues(current, rows)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.Matches)
	assert.InDelta(t, 0.5, summary.WinRate, 1e-9)
	assert.InDelta(t, 0.4, summary.MeanReturn, 1e-9)
	assert.InDelta(t, 1.2, summary.BestReturn, 1e-9)
	assert.InDelta(t, -0.4, summary.WorstReturn, 1e-9)
}

func TestSummarizeAnaloguesWithoutCurrentReading(t *testing.T) {
	assert.Nil(t, SummarizeAnalogues(nil, nil))
	assert.Nil(t, SummarizeAnalogues(&model.IndicatorRow{}, nil))
}

func TestSummarizeAnaloguesNoMatches(t *testing.T) {
	current := &model.IndicatorRow{RSI: fp(80)}
	rows := []model.AnalogueRow{analogueRow(30, 1, 0.5, 2.0)}

	summary := SummarizeAnalogues(current, rows)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Matches)
	assert.Zero(t, summary.WinRate)
}

func TestBuildPromptStatesMissingData(t *testing.T) {
	snap := &model.FeatureSnapshot{
		Symbol: model.Symbol{Name: "TCS", Ticker: "TCS.NS", Sector: "IT"},
		Macro:  model.UnknownMacroContext(),
	}

	prompt := BuildPrompt(snap, model.HorizonDaily, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, prompt, "TCS")
	assert.Contains(t, prompt, "2025-03-06")
	assert.Contains(t, prompt, "Price data: unavailable")
	assert.Contains(t, prompt, "Technicals: unavailable")
	assert.Contains(t, prompt, "UNKNOWN")
	assert.Contains(t, prompt, `"signals_aligned": <int 0-6>`)
	assert.Contains(t, prompt, "+/-2.5%")
}
