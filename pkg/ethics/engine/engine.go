package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/reasoner"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/telemetry/metrics"
)

// Evaluator is the evaluation contract exposed to callers. The enforcement
// wrapper and the HTTP server depend on this interface, not on Engine.
type Evaluator interface {
	EvaluateAction(ctx context.Context, action *ethics.ProposedAction, actionCtx *ethics.ActionContext) (*ethics.Clearance, error)
	EvaluatePlan(ctx context.Context, plan *ethics.Plan, actionCtx *ethics.ActionContext) (*ethics.Clearance, error)
	EvaluateGoal(ctx context.Context, goal *ethics.Goal, actionCtx *ethics.ActionContext) (*ethics.Clearance, error)
	EvaluateSkill(ctx context.Context, skill *ethics.Skill, actionCtx *ethics.ActionContext) (*ethics.Clearance, error)
	EvaluateResearch(ctx context.Context, research *ethics.ResearchActivity, actionCtx *ethics.ActionContext) (*ethics.Clearance, error)
	EvaluateSelfModification(ctx context.Context, req *ethics.SelfModificationRequest, actionCtx *ethics.ActionContext) (*ethics.Clearance, error)
	ReportConcern(ctx context.Context, actionCtx *ethics.ActionContext, concern *ethics.Concern) error
	CorePrinciples() []ethics.Principle
}

// planRiskThreshold is the estimated-risk score above which a plan requires
// human approval.
const planRiskThreshold = 0.7

// goalPriorityThreshold is the priority above which a non-safety goal
// raises an oversight concern.
const goalPriorityThreshold = 0.9

// skillMinSuccessRate and skillMinUsage gate the low-reliability concern:
// a skill below the rate with more than the usage count has demonstrated
// unreliability rather than just being new.
const (
	skillMinSuccessRate = 0.5
	skillMinUsage       = 5
)

// Engine is the default Evaluator. It is stateless across calls and safe
// for concurrent use; the audit log is the only shared mutable resource.
type Engine struct {
	reasoner   reasoner.Reasoner
	log        *audit.Log
	metrics    *metrics.EthicsMetrics
	logger     *slog.Logger
	principles []ethics.Principle
}

// New creates an evaluation engine. The reasoner and audit log are
// required; metrics may be nil.
func New(r reasoner.Reasoner, log *audit.Log, m *metrics.EthicsMetrics, logger *slog.Logger) (*Engine, error) {
	if r == nil {
		return nil, fmt.Errorf("reasoner cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("audit log cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		reasoner:   r,
		log:        log,
		metrics:    m,
		logger:     logger.With("component", "ethics.engine"),
		principles: ethics.CorePrinciples(),
	}, nil
}

// CorePrinciples returns a defensive copy of the principle catalog.
func (e *Engine) CorePrinciples() []ethics.Principle {
	return ethics.CorePrinciples()
}

// EvaluateAction evaluates a single proposed action.
func (e *Engine) EvaluateAction(ctx context.Context, action *ethics.ProposedAction, actionCtx *ethics.ActionContext) (clearance *ethics.Clearance, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if action == nil {
		return nil, NewValidationError("action", "cannot be nil")
	}
	if strings.TrimSpace(action.Type) == "" {
		return nil, NewValidationError("action.type", "cannot be empty")
	}
	if err := validateContext(actionCtx); err != nil {
		return nil, err
	}
	defer e.recoverPanic(audit.KindAction, &clearance, &err)

	violations, concerns, rerr := e.reasoner.Analyze(ctx, action, actionCtx, e.principles)
	if rerr != nil {
		return nil, NewReasonerError(rerr)
	}

	var c *ethics.Clearance
	switch {
	case len(violations) > 0:
		c = e.finalize(ethics.LevelDenied, violations, concerns,
			fmt.Sprintf("action denied: %d principle violation(s) detected", len(violations)))
	case e.reasoner.RequiresHumanApproval(action, actionCtx):
		c = e.finalize(ethics.LevelRequiresHumanApproval, nil, concerns,
			"action requires human approval before execution")
	case len(concerns) > 0:
		c = e.finalize(ethics.LevelPermittedWithConcerns, nil, concerns,
			fmt.Sprintf("action permitted with %d concern(s)", len(concerns)))
	default:
		c = e.finalize(ethics.LevelPermitted, nil, nil,
			"action permitted: no violations or concerns detected")
	}

	if err := e.record(ctx, audit.KindAction, actionCtx, action.Description, c); err != nil {
		return nil, err
	}
	e.observe(audit.KindAction, c, time.Since(start))
	return c, nil
}

// EvaluatePlan evaluates a multi-step plan. Every step is analyzed as a
// synthetic action and the violations and concerns accumulate across all
// steps.
func (e *Engine) EvaluatePlan(ctx context.Context, plan *ethics.Plan, actionCtx *ethics.ActionContext) (clearance *ethics.Clearance, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, NewValidationError("plan", "cannot be nil")
	}
	if strings.TrimSpace(plan.Name) == "" {
		return nil, NewValidationError("plan.name", "cannot be empty")
	}
	if plan.EstimatedRisk < 0 || plan.EstimatedRisk > 1 {
		return nil, NewValidationError("plan.estimated_risk", "must be in [0,1]")
	}
	if err := validateContext(actionCtx); err != nil {
		return nil, err
	}
	defer e.recoverPanic(audit.KindPlan, &clearance, &err)

	var violations []ethics.Violation
	var concerns []ethics.Concern
	for _, step := range plan.Steps {
		synthetic := &ethics.ProposedAction{
			Type:        step.Action,
			Description: fmt.Sprintf("%s: %s", step.Action, step.ExpectedOutcome),
			Parameters:  step.Parameters,
		}
		if target, ok := step.Parameters["target"].(string); ok {
			synthetic.Target = target
		}

		v, c, rerr := e.reasoner.Analyze(ctx, synthetic, actionCtx, e.principles)
		if rerr != nil {
			return nil, NewReasonerError(rerr)
		}
		violations = append(violations, v...)
		concerns = append(concerns, c...)
	}

	highRisk := plan.EstimatedRisk > planRiskThreshold
	if highRisk {
		concerns = append(concerns, ethics.Concern{
			Principle:   ethics.PrincipleHumanOversight,
			Description: fmt.Sprintf("plan estimated risk %.2f exceeds the review threshold", plan.EstimatedRisk),
			Level:       ethics.ConcernHigh,
			Mitigation:  "obtain human review before executing the plan",
		})
	}

	var c *ethics.Clearance
	switch {
	case len(violations) > 0:
		c = e.finalize(ethics.LevelDenied, violations, concerns,
			fmt.Sprintf("plan denied: %d principle violation(s) across steps", len(violations)))
	case highRisk || hasHighConcern(concerns):
		c = e.finalize(ethics.LevelRequiresHumanApproval, nil, concerns,
			"plan requires human approval before execution")
	case len(concerns) > 0:
		c = e.finalize(ethics.LevelPermittedWithConcerns, nil, concerns,
			fmt.Sprintf("plan permitted with %d concern(s)", len(concerns)))
	default:
		c = e.finalize(ethics.LevelPermitted, nil, nil,
			"plan permitted: no violations or concerns across steps")
	}

	description := fmt.Sprintf("plan %q (%d steps)", plan.Name, len(plan.Steps))
	if err := e.record(ctx, audit.KindPlan, actionCtx, description, c); err != nil {
		return nil, err
	}
	e.observe(audit.KindPlan, c, time.Since(start))
	return c, nil
}

// EvaluateGoal evaluates a goal. Safety-typed goals are exempt from the
// high-priority escalation rule.
func (e *Engine) EvaluateGoal(ctx context.Context, goal *ethics.Goal, actionCtx *ethics.ActionContext) (clearance *ethics.Clearance, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, NewValidationError("goal", "cannot be nil")
	}
	if strings.TrimSpace(goal.Description) == "" {
		return nil, NewValidationError("goal.description", "cannot be empty")
	}
	if goal.Priority < 0 || goal.Priority > 1 {
		return nil, NewValidationError("goal.priority", "must be in [0,1]")
	}
	if err := validateContext(actionCtx); err != nil {
		return nil, err
	}
	defer e.recoverPanic(audit.KindGoal, &clearance, &err)

	var violations []ethics.Violation
	var concerns []ethics.Concern

	// Safety-typed goals legitimately describe harm ("reduce harm",
	// "prevent damage"), so the harmful scan does not apply to them. The
	// Info concern keeps them visible in the audit trail instead.
	safety := strings.EqualFold(goal.Type, "safety")
	if safety {
		concerns = append(concerns, ethics.Concern{
			Principle:   ethics.PrincipleDoNoHarm,
			Description: "safety-oriented goal recorded for visibility",
			Level:       ethics.ConcernInfo,
		})
	} else if e.reasoner.ContainsHarmfulPatterns(goal.Description) {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrincipleDoNoHarm,
			Description: "goal description matches a harmful pattern",
			Severity:    ethics.SeverityCritical,
			Evidence:    goal.Description,
		})
	}

	if !safety && goal.Priority > goalPriorityThreshold {
		concerns = append(concerns, ethics.Concern{
			Principle:   ethics.PrincipleHumanOversight,
			Description: fmt.Sprintf("goal priority %.2f is unusually high", goal.Priority),
			Level:       ethics.ConcernMedium,
			Mitigation:  "confirm the priority with a human operator",
		})
	}

	var c *ethics.Clearance
	switch {
	case len(violations) > 0:
		c = e.finalize(ethics.LevelDenied, violations, concerns,
			"goal denied: harmful intent detected")
	case hasHighConcern(concerns):
		c = e.finalize(ethics.LevelRequiresHumanApproval, nil, concerns,
			"goal requires human approval before adoption")
	case len(concerns) > 0:
		c = e.finalize(ethics.LevelPermittedWithConcerns, nil, concerns,
			fmt.Sprintf("goal permitted with %d concern(s)", len(concerns)))
	default:
		c = e.finalize(ethics.LevelPermitted, nil, nil,
			"goal permitted: no violations or concerns detected")
	}

	if err := e.record(ctx, audit.KindGoal, actionCtx, goal.Description, c); err != nil {
		return nil, err
	}
	e.observe(audit.KindGoal, c, time.Since(start))
	return c, nil
}

// EvaluateSkill evaluates the use of a learned skill.
func (e *Engine) EvaluateSkill(ctx context.Context, skill *ethics.Skill, actionCtx *ethics.ActionContext) (clearance *ethics.Clearance, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, NewValidationError("skill", "cannot be nil")
	}
	if strings.TrimSpace(skill.Name) == "" {
		return nil, NewValidationError("skill.name", "cannot be empty")
	}
	if skill.SuccessRate < 0 || skill.SuccessRate > 1 {
		return nil, NewValidationError("skill.success_rate", "must be in [0,1]")
	}
	if err := validateContext(actionCtx); err != nil {
		return nil, err
	}
	defer e.recoverPanic(audit.KindSkill, &clearance, &err)

	var violations []ethics.Violation
	var concerns []ethics.Concern

	if e.reasoner.ContainsHarmfulPatterns(skill.Description) {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrincipleDoNoHarm,
			Description: "skill description matches a harmful pattern",
			Severity:    ethics.SeverityHigh,
			Evidence:    skill.Description,
		})
	}

	if skill.SuccessRate < skillMinSuccessRate && skill.UsageCount > skillMinUsage {
		concerns = append(concerns, ethics.Concern{
			Principle: ethics.PrincipleTransparency,
			Description: fmt.Sprintf("skill has a %.0f%% success rate over %d uses",
				skill.SuccessRate*100, skill.UsageCount),
			Level:      ethics.ConcernMedium,
			Mitigation: "review the skill's failure modes before further use",
		})
	}

	var c *ethics.Clearance
	switch {
	case len(violations) > 0:
		c = e.finalize(ethics.LevelDenied, violations, concerns,
			"skill use denied: harmful capability detected")
	case len(concerns) > 0:
		c = e.finalize(ethics.LevelPermittedWithConcerns, nil, concerns,
			fmt.Sprintf("skill use permitted with %d concern(s)", len(concerns)))
	default:
		c = e.finalize(ethics.LevelPermitted, nil, nil,
			"skill use permitted: no violations or concerns detected")
	}

	description := fmt.Sprintf("use of skill %q", skill.Name)
	if err := e.record(ctx, audit.KindSkill, actionCtx, description, c); err != nil {
		return nil, err
	}
	e.observe(audit.KindSkill, c, time.Since(start))
	return c, nil
}

// EvaluateResearch evaluates a proposed research activity.
func (e *Engine) EvaluateResearch(ctx context.Context, research *ethics.ResearchActivity, actionCtx *ethics.ActionContext) (clearance *ethics.Clearance, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if research == nil {
		return nil, NewValidationError("research", "cannot be nil")
	}
	if strings.TrimSpace(research.Topic) == "" {
		return nil, NewValidationError("research.topic", "cannot be empty")
	}
	if err := validateContext(actionCtx); err != nil {
		return nil, err
	}
	defer e.recoverPanic(audit.KindResearch, &clearance, &err)

	text := research.Topic + " " + research.Description

	var violations []ethics.Violation
	var concerns []ethics.Concern

	if e.reasoner.ContainsHarmfulPatterns(text) {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrincipleDoNoHarm,
			Description: "research activity matches a harmful pattern",
			Severity:    ethics.SeverityHigh,
			Evidence:    research.Topic,
		})
	}

	sensitive := e.reasoner.ContainsSensitiveTopics(text)
	if sensitive {
		concerns = append(concerns, ethics.Concern{
			Principle:   ethics.PrinciplePrivacy,
			Description: "research touches a privacy-sensitive topic",
			Level:       ethics.ConcernHigh,
			Mitigation:  "obtain ethics review and explicit consent before proceeding",
		})
	}

	var c *ethics.Clearance
	switch {
	case len(violations) > 0:
		c = e.finalize(ethics.LevelDenied, violations, concerns,
			"research denied: harmful direction detected")
	case sensitive:
		c = e.finalize(ethics.LevelRequiresHumanApproval, nil, concerns,
			"research requires human approval: sensitive topic")
	default:
		c = e.finalize(ethics.LevelPermitted, nil, nil,
			"research permitted: no violations or concerns detected")
	}

	if err := e.record(ctx, audit.KindResearch, actionCtx, research.Topic, c); err != nil {
		return nil, err
	}
	e.observe(audit.KindResearch, c, time.Since(start))
	return c, nil
}

// EvaluateSelfModification evaluates a self-modification request. The
// outcome is never Permitted: modification of ethics constraints is an
// unconditional denial, and everything else requires human approval.
func (e *Engine) EvaluateSelfModification(ctx context.Context, req *ethics.SelfModificationRequest, actionCtx *ethics.ActionContext) (clearance *ethics.Clearance, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, NewValidationError("self_modification", "cannot be nil")
	}
	if strings.TrimSpace(req.ModificationType) == "" {
		return nil, NewValidationError("self_modification.modification_type", "cannot be empty")
	}
	if err := validateContext(actionCtx); err != nil {
		return nil, err
	}
	defer e.recoverPanic(audit.KindSelfModification, &clearance, &err)

	concerns := []ethics.Concern{{
		Principle:   ethics.PrincipleHumanOversight,
		Description: "self-modification is always subject to human oversight",
		Level:       ethics.ConcernHigh,
		Mitigation:  "obtain explicit human approval before applying the change",
	}}

	var violations []ethics.Violation
	if normalizeModificationType(req.ModificationType) == "ethics constraints" {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrincipleSafeSelfImprovement,
			Description: "modification of ethics constraints is never permitted",
			Severity:    ethics.SeverityCritical,
			Evidence:    req.ModificationType,
		})
	}
	if e.reasoner.ContainsHarmfulPatterns(req.Description) {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrincipleDoNoHarm,
			Description: "self-modification description matches a harmful pattern",
			Severity:    ethics.SeverityCritical,
			Evidence:    req.Description,
		})
	}

	var c *ethics.Clearance
	if len(violations) > 0 {
		c = e.finalize(ethics.LevelDenied, violations, concerns,
			"self-modification denied")
	} else {
		c = e.finalize(ethics.LevelRequiresHumanApproval, nil, concerns,
			"self-modification requires human approval")
	}

	description := fmt.Sprintf("self-modification (%s)", req.ModificationType)
	if err := e.record(ctx, audit.KindSelfModification, actionCtx, description, c); err != nil {
		return nil, err
	}
	e.observe(audit.KindSelfModification, c, time.Since(start))
	return c, nil
}

// ReportConcern records an agent-reported concern for later human review.
// It performs no evaluation of its own.
func (e *Engine) ReportConcern(ctx context.Context, actionCtx *ethics.ActionContext, concern *ethics.Concern) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if concern == nil {
		return NewValidationError("concern", "cannot be nil")
	}
	if strings.TrimSpace(concern.Description) == "" {
		return NewValidationError("concern.description", "cannot be empty")
	}
	if err := validateContext(actionCtx); err != nil {
		return err
	}

	c := ethics.NewClearance(ethics.LevelPermittedWithConcerns)
	c.Concerns = []ethics.Concern{*concern}
	c.Reasoning = "concern reported by agent"
	if concern.Principle != "" {
		c.Principles = []string{concern.Principle}
	}

	if err := e.record(ctx, audit.KindConcernReport, actionCtx, concern.Description, c); err != nil {
		return err
	}

	e.logger.Info("concern reported",
		"agent_id", actionCtx.AgentID,
		"principle", concern.Principle,
		"level", concern.Level,
	)
	return nil
}

// finalize builds the clearance for a decision. Confidence is 1.0 only
// when the evaluation found nothing at all, 0.8 otherwise.
func (e *Engine) finalize(level ethics.ClearanceLevel, violations []ethics.Violation, concerns []ethics.Concern, reasoning string) *ethics.Clearance {
	c := ethics.NewClearance(level)
	c.Violations = violations
	c.Concerns = concerns
	c.Reasoning = reasoning
	c.Principles = principleIDs(violations, concerns)
	if len(violations) > 0 || len(concerns) > 0 {
		c.Confidence = 0.8
	}
	for _, concern := range concerns {
		if concern.Mitigation != "" {
			c.Mitigations = append(c.Mitigations, concern.Mitigation)
		}
	}
	return c
}

// record writes the mandatory audit entry. A write failure invalidates the
// whole evaluation; a clearance is never returned un-audited.
func (e *Engine) record(ctx context.Context, kind audit.Kind, actionCtx *ethics.ActionContext, description string, c *ethics.Clearance) error {
	entry := &audit.Entry{
		AgentID:     actionCtx.AgentID,
		UserID:      actionCtx.UserID,
		Kind:        kind,
		Description: description,
		Clearance:   c,
	}
	if err := e.log.LogEvaluation(ctx, entry); err != nil {
		e.metrics.RecordAuditWrite(e.log.Backend(), "error")
		return NewEvaluationError(string(kind), "audit write failed", err)
	}
	e.metrics.RecordAuditWrite(e.log.Backend(), "ok")
	return nil
}

// observe records evaluation metrics after the audit write succeeded.
func (e *Engine) observe(kind audit.Kind, c *ethics.Clearance, duration time.Duration) {
	e.metrics.RecordEvaluation(string(kind), string(c.Level), duration)
	for _, v := range c.Violations {
		e.metrics.RecordViolation(v.Principle, string(v.Severity))
	}
}

// recoverPanic converts a panic in the decision path into an evaluation
// error so it can never surface as an implicit permit.
func (e *Engine) recoverPanic(kind audit.Kind, clearance **ethics.Clearance, err *error) {
	if r := recover(); r != nil {
		*clearance = nil
		*err = NewEvaluationError(string(kind), fmt.Sprintf("internal panic: %v", r), nil)
		e.logger.Error("evaluation panicked", "kind", kind, "panic", r)
	}
}

// validateContext checks the caller-supplied action context.
func validateContext(actionCtx *ethics.ActionContext) error {
	if actionCtx == nil {
		return NewValidationError("context", "cannot be nil")
	}
	if strings.TrimSpace(actionCtx.AgentID) == "" {
		return NewValidationError("context.agent_id", "cannot be empty")
	}
	return nil
}

// normalizeModificationType folds case and separators so "ethics_constraints",
// "Ethics-Constraints", and "ethics constraints" all compare equal.
func normalizeModificationType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// hasHighConcern reports whether any concern is at the High level.
func hasHighConcern(concerns []ethics.Concern) bool {
	for _, c := range concerns {
		if c.Level == ethics.ConcernHigh {
			return true
		}
	}
	return false
}

// principleIDs collects the distinct principle ids referenced by the
// violations and concerns, in first-seen order.
func principleIDs(violations []ethics.Violation, concerns []ethics.Concern) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, v := range violations {
		add(v.Principle)
	}
	for _, c := range concerns {
		add(c.Principle)
	}
	return ids
}
