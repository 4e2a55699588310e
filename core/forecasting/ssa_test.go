package forecasting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seasonal(n int) []float64 {
	out := make([]float64, n)
	for t := range out {
		noise := float64((t*37)%11-5) / 5
		out[t] = 500 + 0.3*float64(t) + 80*math.Sin(2*math.Pi*float64(t)/7) + noise
	}
	return out
}

func linear(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	cases := map[string]func(*Options){
		"window":     func(o *Options) { o.WindowSize = 1 },
		"series":     func(o *Options) { o.SeriesLength = o.WindowSize },
		"train":      func(o *Options) { o.TrainSize = 10 },
		"horizon":    func(o *Options) { o.Horizon = 0 },
		"confidence": func(o *Options) { o.ConfidenceLevel = 1 },
		"rank":       func(o *Options) { o.MaxRank = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := DefaultOptions()
			mutate(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)
		})
	}
}

func TestFit_InsufficientData(t *testing.T) {
	_, err := Fit(linear(29), DefaultOptions())
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Fit(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFit_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Horizon = 0
	_, err := Fit(linear(100), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestFit_SeasonalForecastShape(t *testing.T) {
	m, err := Fit(seasonal(365), DefaultOptions())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.Rank(), 1)
	assert.LessOrEqual(t, m.Rank(), 6)
	assert.Len(t, m.Coefficients(), 6)
	assert.Len(t, m.SingularValues(), 7)
	assert.Greater(t, m.ResidualDeviation(), 0.0)

	res, err := m.NewEngine().Predict()
	require.NoError(t, err)
	require.Equal(t, 7, res.Len())
	require.Len(t, res.LowerBound, 7)
	require.Len(t, res.UpperBound, 7)
	for i := range res.Forecast {
		assert.LessOrEqual(t, res.LowerBound[i], res.Forecast[i], "step %d", i)
		assert.LessOrEqual(t, res.Forecast[i], res.UpperBound[i], "step %d", i)
	}
	// the band widens with the horizon
	first := res.UpperBound[0] - res.LowerBound[0]
	last := res.UpperBound[6] - res.LowerBound[6]
	assert.GreaterOrEqual(t, last, first)
}

func TestFit_Deterministic(t *testing.T) {
	a, err := Fit(seasonal(365), DefaultOptions())
	require.NoError(t, err)
	b, err := Fit(seasonal(365), DefaultOptions())
	require.NoError(t, err)
	ra, _ := a.NewEngine().Predict()
	rb, _ := b.NewEngine().Predict()
	assert.Equal(t, ra, rb)
}

func TestFit_UsesMostRecentTrainSize(t *testing.T) {
	opts := DefaultOptions()
	long := seasonal(500)
	a, err := Fit(long, opts)
	require.NoError(t, err)
	b, err := Fit(long[500-365:], opts)
	require.NoError(t, err)
	assert.Equal(t, a.Coefficients(), b.Coefficients())
}

func TestFit_LinearTrendExtrapolates(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRank = 2
	m, err := Fit(linear(365), opts)
	require.NoError(t, err)
	res, err := m.NewEngine().Predict()
	require.NoError(t, err)
	for i, v := range res.Forecast {
		assert.InDelta(t, float64(366+i), v, 0.5)
	}
}

func TestTransform_OneStepAhead(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRank = 2
	m, err := Fit(linear(365), opts)
	require.NoError(t, err)

	next := []float64{366, 367, 368, 369}
	out := m.Transform(next)
	require.Len(t, out, len(next))
	for i, r := range out {
		require.Equal(t, opts.Horizon, r.Len())
		assert.InDelta(t, next[i], r.Forecast[0], 0.5)
	}
	// the model state is untouched
	assert.Equal(t, out, m.Transform(next))
}

func TestPropagation(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25}, propagation([]float64{0.5}, 3), 1e-12)
	assert.Equal(t, []float64{1}, propagation([]float64{0.1, 0.2}, 1))
}

func TestStabilize(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1}, stabilize([]float64{2}), 1e-9)
	// y = 3y[t-1] - 2y[t-2] has roots 1 and 2; 2 is pulled back to 1.
	assert.InDeltaSlice(t, []float64{-1, 2}, stabilize([]float64{-2, 3}), 1e-9)
	stable := []float64{0.5}
	assert.Equal(t, stable, stabilize(stable))
	assert.Empty(t, stabilize(nil))
}

func TestSelectRank(t *testing.T) {
	sv := []float64{1000, 300, 290, 1, 1, 1, 1}
	assert.Equal(t, 3, selectRank(sv, 7, 359, 0))
	assert.Equal(t, 2, selectRank(sv, 7, 359, 2))
	assert.Equal(t, 1, selectRank([]float64{0, 0, 0}, 3, 10, 0))
	assert.Equal(t, 2, selectRank([]float64{9, 8, 7, 6, 5, 4, 0.001, 0.001, 0.001}, 7, 359, 0))
}
