package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/bikecast/core/metrics"
	"github.com/kilianp07/bikecast/core/model"
)

func TestPromSink_RecordForecast(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	ev := coremetrics.ForecastEvent{
		Source: "console",
		Result: model.ForecastResult{
			Forecast:   []float64{100},
			LowerBound: []float64{80},
			UpperBound: []float64{120},
		},
		Time: time.Now(),
	}
	if err := sink.RecordForecast(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	expected := `
# HELP bikecast_forecasts_total Number of produced forecast horizons
# TYPE bikecast_forecasts_total counter
bikecast_forecasts_total{source="console"} 1
`
	if err := testutil.CollectAndCompare(sink.forecasts, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected counter: %v", err)
	}
	expectedSteps := `
# HELP bikecast_forecast_rentals Latest forecast per horizon step
# TYPE bikecast_forecast_rentals gauge
bikecast_forecast_rentals{bound="forecast",step="1"} 100
bikecast_forecast_rentals{bound="lower",step="1"} 80
bikecast_forecast_rentals{bound="upper",step="1"} 120
`
	if err := testutil.CollectAndCompare(sink.steps, strings.NewReader(expectedSteps)); err != nil {
		t.Fatalf("unexpected steps: %v", err)
	}
}

func TestPromSink_FitAndEvaluation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = sink.RecordFit(coremetrics.FitEvent{Rank: 5, Residual: 3.5, Duration: 20 * time.Millisecond})
	_ = sink.RecordFit(coremetrics.FitEvent{Rank: 5, Restored: true})
	_ = sink.RecordEvaluation(coremetrics.EvaluationEvent{MAE: 2, RMSE: 3})

	if v := testutil.ToFloat64(sink.rank); v != 5 {
		t.Errorf("rank = %v", v)
	}
	if c := testutil.CollectAndCount(sink.fitDuration); c != 1 {
		t.Errorf("fit duration collectors = %d", c)
	}
	if v := testutil.ToFloat64(sink.mae); v != 2 {
		t.Errorf("mae = %v", v)
	}
	if v := testutil.ToFloat64(sink.rmse); v != 3 {
		t.Errorf("rmse = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = a.RecordEvaluation(coremetrics.EvaluationEvent{MAE: 7})
	if v := testutil.ToFloat64(b.mae); v != 7 {
		t.Errorf("collectors not shared: %v", v)
	}
}
