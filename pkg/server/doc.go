// Package server exposes the clearance engine over HTTP.
//
// The server is a thin transport over the evaluation call contracts. A
// blocked clearance (denied or requires-human-approval) is a successful
// evaluation and returns 200 with the clearance payload; only validation
// failures (400) and internal failures (500) map to error statuses. The
// server reports that approval is required but does not route approvals.
//
// # Routes
//
//   - POST /v1/evaluate/{kind} - evaluate an action, plan, goal, skill,
//     research activity, or self_modification request
//   - POST /v1/concerns - record an agent-reported concern
//   - GET /v1/audit/{agent} - audit history, most recent first
//   - GET /healthz - liveness probe
//   - GET /metrics - Prometheus metrics (when a registry is configured)
//
// Requests pass through request-id, logging, and panic-recovery
// middleware. Graceful shutdown waits for in-flight requests up to the
// configured shutdown timeout.
package server
