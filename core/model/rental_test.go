package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastResult_JSON(t *testing.T) {
	res := ForecastResult{Forecast: []float64{1}, LowerBound: []float64{0}, UpperBound: []float64{2}}
	assert.Equal(t, 1, res.Len())
	assert.Equal(t, 0, ForecastResult{}.Len())

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"forecasted_rentals":[1],"lower_bound_rentals":[0],"upper_bound_rentals":[2]}`, string(data))
}

func TestRecord_JSON(t *testing.T) {
	rec := Record{Date: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), Actual: 10, Lower: 1, Forecast: 9, Upper: 12}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"date", "actual_rentals", "lower_estimate", "forecast", "upper_estimate"} {
		assert.Contains(t, m, k)
	}
}
