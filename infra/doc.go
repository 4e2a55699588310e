// Package infra holds the adapters to external systems: the SQL rental
// source, metrics exporters, the MQTT publisher, Sentry and the zerolog
// logger. They implement interfaces declared under core.
package infra
