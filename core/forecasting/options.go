package forecasting

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is returned when Options fail validation.
	ErrInvalidOptions = errors.New("invalid forecasting options")
	// ErrInsufficientData is returned by Fit when the series is too short for
	// the configured window and series length.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNotFitted is returned by engines that were not created from a Model.
	ErrNotFitted = errors.New("forecasting engine not fitted")
)

// Options configures the SSA forecaster.
type Options struct {
	// WindowSize is the lag window of the trajectory matrix.
	WindowSize int `json:"window_size" msgpack:"window_size"`
	// SeriesLength is the number of recent points kept in the engine buffer.
	SeriesLength int `json:"series_length" msgpack:"series_length"`
	// TrainSize is the number of most recent points used to fit.
	TrainSize int `json:"train_size" msgpack:"train_size"`
	// Horizon is the number of future steps returned by each prediction.
	Horizon int `json:"horizon" msgpack:"horizon"`
	// ConfidenceLevel of the forecast band, in (0,1).
	ConfidenceLevel float64 `json:"confidence_level" msgpack:"confidence_level"`
	// MaxRank caps the number of singular components kept. 0 selects the
	// rank from the singular value spectrum.
	MaxRank int `json:"max_rank" msgpack:"max_rank"`
	// Stabilize pulls characteristic roots of the recurrence outside the unit
	// circle back onto it so long horizons do not explode.
	Stabilize bool `json:"stabilize" msgpack:"stabilize"`
}

// DefaultOptions returns the settings used for daily bike rentals.
func DefaultOptions() Options {
	return Options{
		WindowSize:      7,
		SeriesLength:    30,
		TrainSize:       365,
		Horizon:         7,
		ConfidenceLevel: 0.95,
		Stabilize:       true,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	switch {
	case o.WindowSize < 2:
		return fmt.Errorf("%w: window_size must be at least 2, got %d", ErrInvalidOptions, o.WindowSize)
	case o.SeriesLength <= o.WindowSize:
		return fmt.Errorf("%w: series_length (%d) must exceed window_size (%d)", ErrInvalidOptions, o.SeriesLength, o.WindowSize)
	case o.TrainSize < 2*o.WindowSize:
		return fmt.Errorf("%w: train_size (%d) must be at least twice window_size (%d)", ErrInvalidOptions, o.TrainSize, o.WindowSize)
	case o.Horizon < 1:
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidOptions, o.Horizon)
	case o.ConfidenceLevel <= 0 || o.ConfidenceLevel >= 1:
		return fmt.Errorf("%w: confidence_level must be in (0,1), got %g", ErrInvalidOptions, o.ConfidenceLevel)
	case o.MaxRank < 0:
		return fmt.Errorf("%w: max_rank must not be negative", ErrInvalidOptions)
	}
	return nil
}

func (o Options) minPoints() int {
	if o.SeriesLength > 2*o.WindowSize {
		return o.SeriesLength
	}
	return 2 * o.WindowSize
}
