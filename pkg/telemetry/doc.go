// Package telemetry groups the observability subpackages.
//
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus collectors for the clearance engine
package telemetry
