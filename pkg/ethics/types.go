package ethics

import "time"

// Severity classifies how serious a violation is.
type Severity string

const (
	// SeverityLow indicates a minor breach with limited impact.
	SeverityLow Severity = "low"

	// SeverityMedium indicates a breach that warrants attention.
	SeverityMedium Severity = "medium"

	// SeverityHigh indicates a serious breach that blocks execution.
	SeverityHigh Severity = "high"

	// SeverityCritical indicates a breach of a mandatory principle with no
	// override path.
	SeverityCritical Severity = "critical"
)

// ConcernLevel classifies how serious a soft concern is.
// Concerns never block by themselves, but High concerns escalate
// the clearance to RequiresHumanApproval in several evaluation paths.
type ConcernLevel string

const (
	ConcernInfo   ConcernLevel = "info"
	ConcernLow    ConcernLevel = "low"
	ConcernMedium ConcernLevel = "medium"
	ConcernHigh   ConcernLevel = "high"
)

// ClearanceLevel is the closed set of evaluation outcomes.
type ClearanceLevel string

const (
	// LevelPermitted allows execution with no reservations.
	LevelPermitted ClearanceLevel = "permitted"

	// LevelPermittedWithConcerns allows execution but carries soft concerns
	// that are reported and audited.
	LevelPermittedWithConcerns ClearanceLevel = "permitted_with_concerns"

	// LevelRequiresHumanApproval blocks execution until a human authorizes
	// it. This is a conditional block, not a denial.
	LevelRequiresHumanApproval ClearanceLevel = "requires_human_approval"

	// LevelDenied blocks execution absolutely.
	LevelDenied ClearanceLevel = "denied"
)

// Violation records a hard breach of an ethical principle. Violations are
// produced only by evaluation and are never persisted independently of the
// clearance they belong to.
type Violation struct {
	// Principle is the id of the violated principle.
	Principle string `json:"principle"`

	// Description explains what was violated.
	Description string `json:"description"`

	// Severity is the violation severity.
	Severity Severity `json:"severity"`

	// Evidence is the supporting text that triggered the violation.
	Evidence string `json:"evidence,omitempty"`

	// AffectedParties lists who would be affected.
	AffectedParties []string `json:"affected_parties,omitempty"`
}

// Concern records a soft, non-blocking flag against a principle.
type Concern struct {
	// Principle is the id of the related principle.
	Principle string `json:"principle"`

	// Description explains the concern.
	Description string `json:"description"`

	// Level is the concern level.
	Level ConcernLevel `json:"level"`

	// Mitigation is the recommended mitigating action, if any.
	Mitigation string `json:"mitigation,omitempty"`
}

// Clearance is the engine's decision about whether a subject may proceed,
// together with its justification. Instances are built through NewClearance
// so the permitted flag always agrees with the level.
type Clearance struct {
	// Permitted is true if and only if Level is LevelPermitted or
	// LevelPermittedWithConcerns.
	Permitted bool `json:"permitted"`

	// Level is the clearance level.
	Level ClearanceLevel `json:"level"`

	// Principles lists the ids of the principles considered relevant.
	Principles []string `json:"principles,omitempty"`

	// Violations are the hard breaches found. Empty unless Level is
	// LevelDenied.
	Violations []Violation `json:"violations,omitempty"`

	// Concerns are the soft flags found.
	Concerns []Concern `json:"concerns,omitempty"`

	// Reasoning is a human-readable explanation of the decision.
	Reasoning string `json:"reasoning"`

	// Mitigations lists recommended mitigating actions.
	Mitigations []string `json:"mitigations,omitempty"`

	// Confidence is the engine's confidence in the decision, in [0,1].
	Confidence float64 `json:"confidence"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`
}

// NewClearance creates a clearance for the given level. The permitted flag
// is derived from the level; confidence defaults to 1.0.
func NewClearance(level ClearanceLevel) *Clearance {
	return &Clearance{
		Permitted:  level == LevelPermitted || level == LevelPermittedWithConcerns,
		Level:      level,
		Confidence: 1.0,
		Timestamp:  time.Now().UTC(),
	}
}

// Blocking returns true when the clearance blocks execution.
func (c *Clearance) Blocking() bool {
	switch c.Level {
	case LevelPermitted, LevelPermittedWithConcerns:
		return false
	case LevelRequiresHumanApproval, LevelDenied:
		return true
	default:
		// Unknown levels block. New levels must be handled here explicitly.
		return true
	}
}

// ProposedAction describes a single action an agent intends to perform.
// Values are constructed fresh per evaluation call and never mutated after
// creation.
type ProposedAction struct {
	// Type is the action type tag (e.g. "read_file", "send_email").
	Type string `json:"type"`

	// Description is the free-text description of the action.
	Description string `json:"description"`

	// Parameters is the key/value parameter map.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Target is an optional target entity reference.
	Target string `json:"target,omitempty"`

	// Effects lists the potential effects of the action.
	Effects []string `json:"effects,omitempty"`

	// Metadata carries optional caller-supplied metadata.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Environment tags for ActionContext.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// ActionContext describes the context in which a proposed action would
// occur. Supplied by the caller per evaluation call and treated as
// immutable.
type ActionContext struct {
	// AgentID identifies the agent proposing the action.
	AgentID string `json:"agent_id"`

	// UserID identifies the user on whose behalf the agent acts, if any.
	UserID string `json:"user_id,omitempty"`

	// Environment is the environment tag ("production", "development").
	Environment string `json:"environment"`

	// State is a snapshot of relevant agent state.
	State map[string]any `json:"state,omitempty"`

	// RecentActions lists identifiers of recent actions for pattern context.
	RecentActions []string `json:"recent_actions,omitempty"`

	// Timestamp is when the context was captured.
	Timestamp time.Time `json:"timestamp"`
}
