package evaluation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikecast/core/model"
)

type offsetTransformer struct{ offset float64 }

func (o offsetTransformer) Transform(values []float64) []model.ForecastResult {
	out := make([]model.ForecastResult, len(values))
	for i, v := range values {
		out[i] = model.ForecastResult{
			Forecast:   []float64{v - o.offset, 0},
			LowerBound: []float64{0, 0},
			UpperBound: []float64{0, 0},
		}
	}
	return out
}

func TestCompute_ConstantError(t *testing.T) {
	actual := make([]float64, 50)
	forecast := make([]float64, 50)
	for i := range actual {
		actual[i] = float64(i * 3)
		forecast[i] = actual[i] - 2
	}
	m, err := Compute(actual, forecast)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.MAE, 1e-12)
	assert.InDelta(t, 2.0, m.RMSE, 1e-12)
	assert.Equal(t, 50, m.Count)
}

func TestCompute_MixedErrors(t *testing.T) {
	m, err := Compute([]float64{1, 2, 3, 4}, []float64{2, 2, 1, 4})
	require.NoError(t, err)
	// errors: -1, 0, 2, 0
	assert.InDelta(t, 0.75, m.MAE, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/4), m.RMSE, 1e-12)
}

func TestCompute_ShortestLength(t *testing.T) {
	m, err := Compute([]float64{1, 2, 3}, []float64{0})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count)
	assert.Equal(t, 1.0, m.MAE)
}

func TestCompute_Empty(t *testing.T) {
	_, err := Compute(nil, []float64{1})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestEvaluate_UsesFirstStep(t *testing.T) {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	holdout := make([]model.Observation, 20)
	for i := range holdout {
		holdout[i] = model.Observation{Date: start.AddDate(0, 0, i), Year: 1, TotalRentals: float64(10 * i)}
	}
	m, err := Evaluate(offsetTransformer{offset: 2}, holdout)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.MAE, 1e-12)
	assert.InDelta(t, 2.0, m.RMSE, 1e-12)
	assert.Equal(t, 20, m.Count)
}

func TestEvaluate_EmptyHoldout(t *testing.T) {
	_, err := Evaluate(offsetTransformer{}, nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
}
