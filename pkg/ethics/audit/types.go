package audit

import (
	"context"
	"time"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
)

// Kind tags an audit entry with the kind of evaluation that produced it.
type Kind string

const (
	KindAction           Kind = "action"
	KindPlan             Kind = "plan"
	KindGoal             Kind = "goal"
	KindSkill            Kind = "skill"
	KindResearch         Kind = "research"
	KindSelfModification Kind = "self_modification"
	KindConcernReport    Kind = "concern_report"
	KindViolationAttempt Kind = "violation_attempt"
)

// Entry is a single append-only audit record. Entries are created once per
// evaluation call and never mutated.
type Entry struct {
	// ID is the unique entry identifier (UUID v4).
	ID string `json:"id"`

	// Timestamp is when the entry was created.
	Timestamp time.Time `json:"timestamp"`

	// AgentID identifies the evaluated agent.
	AgentID string `json:"agent_id"`

	// UserID identifies the user on whose behalf the agent acted, if any.
	UserID string `json:"user_id,omitempty"`

	// Kind is the evaluation kind that produced this entry.
	Kind Kind `json:"kind"`

	// Description describes the evaluated subject.
	Description string `json:"description"`

	// Clearance is the full decision, including violations and concerns.
	Clearance *ethics.Clearance `json:"clearance"`

	// Context carries free-form contextual key/value pairs.
	Context map[string]string `json:"context,omitempty"`
}

// Store is the persistence interface for audit entries. Implementations
// must be safe for concurrent use and must preserve per-agent insertion
// order.
type Store interface {
	// Append persists an entry. Entries are never updated or replaced.
	Append(ctx context.Context, entry *Entry) error

	// History returns entries for the agent ordered most recent first,
	// optionally bounded by an inclusive time range.
	History(ctx context.Context, agentID string, start, end *time.Time) ([]*Entry, error)

	// Count returns the number of entries for the agent. An empty agent id
	// counts all entries.
	Count(ctx context.Context, agentID string) (int64, error)

	// DeleteBefore removes entries with a timestamp before the cutoff and
	// returns how many were removed. Used by retention pruning.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Backend names the backend ("memory", "sqlite") for logs and metrics.
	Backend() string

	// Close releases resources held by the store.
	Close() error
}
