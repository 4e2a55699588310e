// Package evaluation scores one-step-ahead forecasts against held-out data.
package evaluation

import (
	"errors"
	"math"

	"github.com/kilianp07/bikecast/core/dataset"
	"github.com/kilianp07/bikecast/core/model"
)

// ErrEmptySeries is returned when there is nothing to compare.
var ErrEmptySeries = errors.New("no forecast/actual pairs to evaluate")

// Metrics summarises forecast errors.
type Metrics struct {
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	Count int     `json:"count"`
}

// Transformer produces one forecast per input value without consuming state.
type Transformer interface {
	Transform(values []float64) []model.ForecastResult
}

// Evaluate replays holdout through t and compares the first forecast step of
// each row with the observed rentals.
func Evaluate(t Transformer, holdout []model.Observation) (Metrics, error) {
	actual := dataset.Values(holdout)
	results := t.Transform(actual)
	forecast := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Len() == 0 {
			forecast = append(forecast, math.NaN())
			continue
		}
		forecast = append(forecast, r.Forecast[0])
	}
	return Compute(actual, forecast)
}

// Compute pairs actual and forecast positionally, stopping at the shorter
// slice, and returns the mean absolute and root mean squared error of
// actual - forecast.
func Compute(actual, forecast []float64) (Metrics, error) {
	n := len(actual)
	if len(forecast) < n {
		n = len(forecast)
	}
	if n == 0 {
		return Metrics{}, ErrEmptySeries
	}
	var abs, sq float64
	for i := 0; i < n; i++ {
		e := actual[i] - forecast[i]
		abs += math.Abs(e)
		sq += e * e
	}
	return Metrics{
		MAE:   abs / float64(n),
		RMSE:  math.Sqrt(sq / float64(n)),
		Count: n,
	}, nil
}
