package model

import "errors"

var (
	// ErrParse marks a forecaster reply that could not be parsed into the
	// expected JSON shape. The affected symbol/horizon is skipped for the
	// cycle; nothing is persisted.
	ErrParse = errors.New("forecaster reply not parseable")

	// ErrOutcomeLocked marks an attempt to overwrite a prediction whose
	// outcome fields are already populated. Realized data is never
	// replaced by a fresh forecast.
	ErrOutcomeLocked = errors.New("prediction outcome already recorded")

	// ErrNoData marks a symbol with no collected market data at all; the
	// pipeline skips it for the cycle instead of forecasting blind.
	ErrNoData = errors.New("no data available")
)
