// Package metrics provides Prometheus collectors for the clearance engine.
//
// Collectors are registered against an injected prometheus.Registry so
// tests can use isolated registries. All metrics share a configurable
// namespace and subsystem (default aegis_ethics).
package metrics
