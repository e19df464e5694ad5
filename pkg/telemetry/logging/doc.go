// Package logging configures structured logging for the clearance engine.
//
// It wraps log/slog with level and format parsing so that the logger can
// be built directly from configuration. Components receive a *slog.Logger
// and attach their identity with logger.With("component", name).
package logging
