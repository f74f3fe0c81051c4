// Package telemetry provides the observability plumbing shared by the
// engine and client: structured logger construction (zerolog), Prometheus
// metrics for engine calls and transactions, and OpenTelemetry tracer
// setup. The engine works with all of it disabled; everything here is
// opt-in configuration.
package telemetry
