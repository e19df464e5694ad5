package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
)

// Config contains configuration for the audit log facade.
type Config struct {
	// WriteTimeout bounds how long a single append may take. The clearance
	// is computed before the write, so a slow backend delays the caller by
	// at most this much. Default: 5 seconds.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default audit log configuration.
func DefaultConfig() *Config {
	return &Config{
		WriteTimeout: 5 * time.Second,
	}
}

// Log is the audit log facade the engine writes through. It assigns entry
// ids and timestamps, bounds writes with a timeout, and synthesizes the
// Denied clearance shape for violation-attempt records.
type Log struct {
	store  Store
	config *Config
	logger *slog.Logger
}

// NewLog creates an audit log over the given store.
func NewLog(store Store, config *Config, logger *slog.Logger) *Log {
	if config == nil {
		config = DefaultConfig()
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		store:  store,
		config: config,
		logger: logger.With("component", "ethics.audit"),
	}
}

// Backend names the underlying store backend.
func (l *Log) Backend() string {
	return l.store.Backend()
}

// LogEvaluation appends an evaluation entry. The entry id and timestamp are
// assigned here if unset. A write failure is returned to the caller; the
// engine treats it as an evaluation failure, never as an un-audited permit.
func (l *Log) LogEvaluation(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(ctx, l.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := l.store.Append(writeCtx, entry); err != nil {
		l.logger.Error("failed to append audit entry",
			"entry_id", entry.ID,
			"agent_id", entry.AgentID,
			"kind", entry.Kind,
			"error", err,
		)
		return NewStoreError(l.store.Backend(), "append", err)
	}

	duration := time.Since(start)
	l.logger.Debug("audit entry recorded",
		"entry_id", entry.ID,
		"agent_id", entry.AgentID,
		"kind", entry.Kind,
		"level", entry.Clearance.Level,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > l.config.WriteTimeout/2 {
		l.logger.Warn("slow audit write",
			"entry_id", entry.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}

	return nil
}

// LogViolationAttempt records an attempt that was blocked by the
// enforcement layer. It synthesizes a Denied clearance purely for audit
// shape consistency; it does not re-run evaluation.
func (l *Log) LogViolationAttempt(ctx context.Context, agentID, userID, description string, violations []ethics.Violation) error {
	clearance := ethics.NewClearance(ethics.LevelDenied)
	clearance.Violations = violations
	clearance.Reasoning = "violation attempt blocked by enforcement"
	for _, v := range violations {
		clearance.Principles = append(clearance.Principles, v.Principle)
	}

	entry := &Entry{
		AgentID:     agentID,
		UserID:      userID,
		Kind:        KindViolationAttempt,
		Description: description,
		Clearance:   clearance,
	}

	if err := l.LogEvaluation(ctx, entry); err != nil {
		return err
	}

	l.logger.Warn("violation attempt recorded",
		"agent_id", agentID,
		"violation_count", len(violations),
	)
	return nil
}

// History returns the agent's audit entries ordered most recent first,
// optionally bounded by an inclusive time range.
func (l *Log) History(ctx context.Context, agentID string, start, end *time.Time) ([]*Entry, error) {
	entries, err := l.store.History(ctx, agentID, start, end)
	if err != nil {
		return nil, NewStoreError(l.store.Backend(), "history", err)
	}
	return entries, nil
}

// Count returns the number of entries recorded for the agent.
func (l *Log) Count(ctx context.Context, agentID string) (int64, error) {
	n, err := l.store.Count(ctx, agentID)
	if err != nil {
		return 0, NewStoreError(l.store.Backend(), "count", err)
	}
	return n, nil
}

// Close closes the underlying store.
func (l *Log) Close() error {
	return l.store.Close()
}
