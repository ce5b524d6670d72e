// Package observe provides observability primitives for smoke checks.
//
// An Observer owns the tracer, meter and logger for one harness run. The
// Middleware wraps a health.Checker so every check emits a span named
// smoke.check.<id>, increments the smoke.check.* metrics and writes one
// structured log line with its outcome.
//
// Exporters are selected by name (otlp, prometheus, stdout, none) and take
// their endpoints from Config, never from the process environment. The
// prometheus exporter writes a node_exporter textfile on Shutdown, which suits
// a short-lived process that no scraper could reach in time.
package observe
