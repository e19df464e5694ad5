package ethics

// PlanStep is a single ordered step within a plan. Steps are analyzed as
// synthetic actions during plan evaluation.
type PlanStep struct {
	// Action is the action the step performs. Used as the synthetic action
	// type during evaluation.
	Action string `json:"action"`

	// ExpectedOutcome describes what the step should achieve.
	ExpectedOutcome string `json:"expected_outcome"`

	// Parameters is the step parameter map. A "target" key, if present,
	// becomes the synthetic action's target.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Plan is an ordered sequence of steps together with an externally-supplied
// risk estimate.
type Plan struct {
	// ID identifies the plan.
	ID string `json:"id"`

	// Name is the plan name.
	Name string `json:"name"`

	// Steps are the ordered plan steps.
	Steps []PlanStep `json:"steps"`

	// EstimatedRisk is the caller-supplied risk score in [0,1]. Scores
	// above 0.7 escalate the plan to human approval.
	EstimatedRisk float64 `json:"estimated_risk"`
}

// Goal is a high-level objective an agent intends to pursue.
type Goal struct {
	// ID identifies the goal.
	ID string `json:"id"`

	// Type categorizes the goal (e.g. "Safety", "Research"). Safety-typed
	// goals are exempt from the high-priority escalation rule.
	Type string `json:"type"`

	// Description is the free-text description of the goal.
	Description string `json:"description"`

	// Priority is the goal priority in [0,1].
	Priority float64 `json:"priority"`
}

// Skill describes a learned capability together with its usage history.
type Skill struct {
	// ID identifies the skill.
	ID string `json:"id"`

	// Name is the skill name.
	Name string `json:"name"`

	// Description is the free-text description of what the skill does.
	Description string `json:"description"`

	// SuccessRate is the historical success rate in [0,1].
	SuccessRate float64 `json:"success_rate"`

	// UsageCount is the number of prior uses.
	UsageCount int `json:"usage_count"`
}

// ResearchActivity describes a research task the agent intends to carry out.
type ResearchActivity struct {
	// ID identifies the activity.
	ID string `json:"id"`

	// Topic is the research topic.
	Topic string `json:"topic"`

	// Description is the free-text description of the activity.
	Description string `json:"description"`

	// Methodology describes how the research would be conducted.
	Methodology string `json:"methodology,omitempty"`
}

// SelfModificationRequest describes a request by the agent to alter its own
// code, configuration, or constraints.
type SelfModificationRequest struct {
	// ID identifies the request.
	ID string `json:"id"`

	// ModificationType names what would be modified. A type of
	// "ethics constraints" is always denied, with no override path.
	ModificationType string `json:"modification_type"`

	// Description is the free-text description of the modification.
	Description string `json:"description"`

	// Reversible indicates whether the modification can be rolled back.
	Reversible bool `json:"reversible"`

	// ImpactLevel is the caller's assessment of the modification's impact
	// (e.g. "low", "medium", "high").
	ImpactLevel string `json:"impact_level,omitempty"`
}
