package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/bikecast/core/metrics"
)

// PromSink exposes forecasting activity as Prometheus metrics.
type PromSink struct {
	forecasts   *prometheus.CounterVec
	steps       *prometheus.GaugeVec
	fitDuration prometheus.Histogram
	rank        prometheus.Gauge
	residual    prometheus.Gauge
	mae         prometheus.Gauge
	rmse        prometheus.Gauge
}

// NewPromSink registers the forecasting metrics on the default registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikecast_forecasts_total",
			Help: "Number of produced forecast horizons",
		}, []string{"source"}),
		steps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bikecast_forecast_rentals",
			Help: "Latest forecast per horizon step",
		}, []string{"step", "bound"}),
		fitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikecast_fit_duration_seconds",
			Help:    "Time spent fitting the SSA model",
			Buckets: prometheus.DefBuckets,
		}),
		rank: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikecast_model_rank",
			Help: "Number of singular components used by the model",
		}),
		residual: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikecast_model_residual_deviation",
			Help: "Standard deviation of the one-step training error",
		}),
		mae: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikecast_evaluation_mae",
			Help: "Mean absolute error on the held-out period",
		}),
		rmse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikecast_evaluation_rmse",
			Help: "Root mean squared error on the held-out period",
		}),
	}
	var err error
	if s.forecasts, err = register(reg, s.forecasts); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	if s.fitDuration, err = register(reg, s.fitDuration); err != nil {
		return nil, err
	}
	if s.rank, err = register(reg, s.rank); err != nil {
		return nil, err
	}
	if s.residual, err = register(reg, s.residual); err != nil {
		return nil, err
	}
	if s.mae, err = register(reg, s.mae); err != nil {
		return nil, err
	}
	if s.rmse, err = register(reg, s.rmse); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordForecast counts the forecast and publishes its steps.
func (s *PromSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	s.forecasts.WithLabelValues(ev.Source).Inc()
	for i, v := range ev.Result.Forecast {
		step := strconv.Itoa(i + 1)
		s.steps.WithLabelValues(step, "forecast").Set(v)
		if i < len(ev.Result.LowerBound) {
			s.steps.WithLabelValues(step, "lower").Set(ev.Result.LowerBound[i])
		}
		if i < len(ev.Result.UpperBound) {
			s.steps.WithLabelValues(step, "upper").Set(ev.Result.UpperBound[i])
		}
	}
	return nil
}

// RecordFit observes the fit duration and model shape.
func (s *PromSink) RecordFit(ev coremetrics.FitEvent) error {
	if !ev.Restored {
		s.fitDuration.Observe(ev.Duration.Seconds())
	}
	s.rank.Set(float64(ev.Rank))
	s.residual.Set(ev.Residual)
	return nil
}

// RecordEvaluation publishes the latest hold-out scores.
func (s *PromSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	s.mae.Set(ev.MAE)
	s.rmse.Set(ev.RMSE)
	return nil
}
