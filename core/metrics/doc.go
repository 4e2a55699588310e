// Package metrics defines the sinks that record forecasting activity: model
// fits, evaluation scores and produced forecasts. Concrete sinks live in
// infra/metrics and register themselves with the factory so they can be
// selected from configuration. Several configured sinks are combined in a
// MultiSink.
package metrics
