// Package instrumentation configures OpenTelemetry metrics and tracing for
// the service. Metrics can be exported via Prometheus scrape, OTLP push, or
// stdout; tracing via OTLP or stdout, and is off by default.
package instrumentation
