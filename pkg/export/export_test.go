package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/bikecast/core/evaluation"
	"github.com/kilianp07/bikecast/core/model"
)

func records() []model.Record {
	return []model.Record{
		{Date: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), Actual: 1000, Lower: 0, Forecast: 950.5, Upper: 1200.25},
		{Date: time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC), Actual: 1100, Lower: 900, Forecast: 1000, Upper: 1100},
	}
}

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, evaluation.Metrics{MAE: 2, RMSE: 2.34567}))
	want := "Evaluation Metrics\n---------------------\nMean Absolute Error: 2.000\nRoot Mean Squared Error: 2.346\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, records()[:1]))
	want := "Rental Forecast\n---------------------\n" +
		"Date: 1/1/2012\nActual Rentals: 1000\nLower Estimate: 0\nForecast: 950.5\nUpper Estimate: 1200.25\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, nil))
	assert.Equal(t, "Rental Forecast\n---------------------\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, records()))
	var out []model.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, records(), out)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "actual_rentals", "lower_estimate", "forecast", "upper_estimate"}, rows[0])
	assert.Equal(t, []string{"2012-01-01", "1000", "0", "950.5", "1200.25"}, rows[1])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, records()))
	var out []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, 950.5, out[0]["forecast"])
	assert.Contains(t, buf.String(), "lower_estimate: 0")
}

func TestWrite_Dispatch(t *testing.T) {
	for _, f := range Formats {
		var buf bytes.Buffer
		assert.NoError(t, Write(&buf, f, records()), f)
		assert.NotEmpty(t, buf.String(), f)
	}
	assert.Error(t, Write(&bytes.Buffer{}, "xml", records()))
}

func TestWriteText_SinglePrecision(t *testing.T) {
	recs := []model.Record{{
		Date:     time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		Actual:   4201,
		Lower:    3650.1234567891,
		Forecast: 4196.882135117034,
		Upper:    4743.641,
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, recs))
	assert.Contains(t, buf.String(), "Lower Estimate: 3650.1235\n")
	assert.Contains(t, buf.String(), "Forecast: 4196.882\n")
	assert.Contains(t, buf.String(), "Upper Estimate: 4743.641\n")
}
