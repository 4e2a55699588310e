package metrics

import (
	"time"

	"github.com/kilianp07/bikecast/core/model"
)

// ForecastEvent describes one produced horizon.
type ForecastEvent struct {
	// Source is the entry point that asked for the forecast ("console", "http").
	Source string
	// Start is the date of the first forecast step when known.
	Start  time.Time
	Result model.ForecastResult
	Time   time.Time
}

// MetricsSink records forecasts for observability purposes.
type MetricsSink interface {
	RecordForecast(ev ForecastEvent) error
}

// FitEvent captures a completed model fit.
type FitEvent struct {
	TrainPoints int
	Rank        int
	Residual    float64
	Duration    time.Duration
	// Restored is true when the model came from a checkpoint.
	Restored bool
	Time     time.Time
}

// FitRecorder is implemented by sinks that track model fits.
type FitRecorder interface {
	RecordFit(ev FitEvent) error
}

// EvaluationEvent carries the hold-out scores of a fitted model.
type EvaluationEvent struct {
	MAE    float64
	RMSE   float64
	Points int
	Time   time.Time
}

// EvaluationRecorder is implemented by sinks that track evaluation scores.
type EvaluationRecorder interface {
	RecordEvaluation(ev EvaluationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordForecast(ForecastEvent) error     { return nil }
func (NopSink) RecordFit(FitEvent) error               { return nil }
func (NopSink) RecordEvaluation(EvaluationEvent) error { return nil }
