package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/bikecast/core/metrics"
	"github.com/kilianp07/bikecast/core/model"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(b)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return canonical(write.PointToLineProtocol(p, time.Nanosecond))
}

// canonical sorts the tag and field sets of a line so that lines differing
// only in key order compare equal. Keys and values must not contain spaces.
func canonical(l string) string {
	parts := strings.Fields(l)
	if len(parts) != 3 {
		return strings.TrimSpace(l)
	}
	series := strings.Split(parts[0], ",")
	sort.Strings(series[1:])
	fields := strings.Split(parts[1], ",")
	sort.Strings(fields)
	return strings.Join(series, ",") + " " + strings.Join(fields, ",") + " " + parts[2]
}

func (l *lineRecorder) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.bodies))
	for i, b := range l.bodies {
		out[i] = canonical(b)
	}
	return out
}

func TestInfluxSink_RecordFit(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.FitEvent{TrainPoints: 365, Rank: 4, Residual: 12.34567, Duration: 1500 * time.Microsecond, Time: now}
	if err := sink.RecordFit(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("ssa_fit").
		AddTag("restored", "false").
		AddField("train_points", 365).
		AddField("rank", 4).
		AddField("residual", 12.346).
		AddField("duration_ms", 1.5).
		SetTime(now)
	if got := rec.lines(); len(got) != 1 || got[0] != line(p) {
		t.Errorf("lines: %#v, want %q", got, line(p))
	}
}

func TestCanonicalLine(t *testing.T) {
	a := canonical("forecast_evaluation mae=2,rmse=2.5,points=35i 1700000000000000000")
	b := canonical("forecast_evaluation points=35i,mae=2,rmse=2.5 1700000000000000000")
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
	if got := canonical("m,b=2,a=1 x=1 5"); got != "m,a=1,b=2 x=1 5" {
		t.Errorf("tags not sorted: %q", got)
	}
}

func TestInfluxSink_RecordEvaluation(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordEvaluation(coremetrics.EvaluationEvent{MAE: 2, RMSE: 2.5, Points: 35, Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("forecast_evaluation").
		AddField("mae", 2.0).
		AddField("rmse", 2.5).
		AddField("points", 35).
		SetTime(now)
	if got := rec.lines(); len(got) != 1 || got[0] != line(p) {
		t.Errorf("lines: %#v, want %q", got, line(p))
	}
}

func TestInfluxSink_RecordForecast(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := coremetrics.ForecastEvent{
		Source: "http",
		Start:  start,
		Result: model.ForecastResult{
			Forecast:   []float64{10, 20},
			LowerBound: []float64{5, 15},
			UpperBound: []float64{15, 25},
		},
		Time: time.Now(),
	}
	if err := sink.RecordForecast(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("rental_forecast").
		AddTag("source", "http").
		AddTag("step", "2").
		AddField("forecast", 20.0).
		SetTime(start.AddDate(0, 0, 1)).
		AddField("lower", 15.0).
		AddField("upper", 25.0)
	if got := rec.lines(); len(got) != 2 || got[1] != line(p) {
		t.Errorf("lines: %#v, want %q", got, line(p))
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
