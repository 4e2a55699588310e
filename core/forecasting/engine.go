package forecasting

import (
	"sync"

	"github.com/kilianp07/bikecast/core/model"
)

// Engine produces horizon forecasts from the recent observations it holds.
// Observe advances the recursion buffer; Predict reads it. Methods are safe
// for concurrent use but interleaved Observe calls from several callers share
// one buffer, so give each independent stream its own Engine.
type Engine struct {
	mu    sync.Mutex
	model *Model
	buf   []float64
}

// Predict forecasts the next horizon from the current state.
func (e *Engine) Predict() (model.ForecastResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return model.ForecastResult{}, ErrNotFitted
	}
	return e.model.forecast(e.buf), nil
}

// Observe appends an actual value to the recursion buffer.
func (e *Engine) Observe(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return ErrNotFitted
	}
	e.buf = push(e.buf, v, e.model.opts.SeriesLength)
	return nil
}

// Update observes v and forecasts the horizon that follows it.
func (e *Engine) Update(v float64) (model.ForecastResult, error) {
	if err := e.Observe(v); err != nil {
		return model.ForecastResult{}, err
	}
	return e.Predict()
}

// Model returns a model sharing the fitted parameters whose state is the
// engine's current buffer.
func (e *Engine) Model() (*Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil, ErrNotFitted
	}
	m := *e.model
	m.state = append([]float64(nil), e.buf...)
	return &m, nil
}

// Horizon is the number of steps returned by Predict.
func (e *Engine) Horizon() int {
	if e.model == nil {
		return 0
	}
	return e.model.opts.Horizon
}
