package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/reasoner"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/telemetry/logging"
)

func newTestEngine(t *testing.T) (*Engine, *audit.MemoryStore) {
	t.Helper()
	r, err := reasoner.NewKeywordReasoner(nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create reasoner: %v", err)
	}
	store := audit.NewMemoryStore()
	log := audit.NewLog(store, nil, logging.NewNop())
	e, err := New(r, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e, store
}

func devContext() *ethics.ActionContext {
	return &ethics.ActionContext{
		AgentID:     "agent-1",
		UserID:      "user-1",
		Environment: ethics.EnvDevelopment,
		Timestamp:   time.Now().UTC(),
	}
}

func auditCount(t *testing.T, store *audit.MemoryStore, agentID string) int64 {
	t.Helper()
	n, err := store.Count(context.Background(), agentID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func lastEntry(t *testing.T, store *audit.MemoryStore, agentID string) *audit.Entry {
	t.Helper()
	entries, err := store.History(context.Background(), agentID, nil, nil)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one audit entry")
	}
	return entries[0]
}

func TestEngine_EvaluateAction_Harmful(t *testing.T) {
	e, store := newTestEngine(t)

	action := &ethics.ProposedAction{
		Type:        "execute",
		Description: "destroy the production database",
	}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}

	if c.Level != ethics.LevelDenied {
		t.Errorf("expected denied, got %s", c.Level)
	}
	if c.Permitted {
		t.Error("denied clearance must not be permitted")
	}
	found := false
	for _, v := range c.Violations {
		if v.Principle == ethics.PrincipleDoNoHarm &&
			(v.Severity == ethics.SeverityHigh || v.Severity == ethics.SeverityCritical) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a High/Critical do_no_harm violation, got %+v", c.Violations)
	}

	if got := auditCount(t, store, "agent-1"); got != 1 {
		t.Errorf("expected exactly 1 audit entry, got %d", got)
	}
	if entry := lastEntry(t, store, "agent-1"); entry.Kind != audit.KindAction {
		t.Errorf("expected kind action, got %s", entry.Kind)
	}
}

func TestEngine_EvaluateAction_CleanDevScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	action := &ethics.ProposedAction{
		Type:        "read_file",
		Description: "Read configuration file",
		Effects:     []string{"Load configuration"},
	}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}

	if c.Level != ethics.LevelPermitted {
		t.Errorf("expected permitted, got %s: %s", c.Level, c.Reasoning)
	}
	if !c.Permitted {
		t.Error("permitted clearance must have permitted=true")
	}
	if len(c.Violations) != 0 || len(c.Concerns) != 0 {
		t.Errorf("expected clean clearance, got %d violations / %d concerns",
			len(c.Violations), len(c.Concerns))
	}
	if c.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 for a clean clearance, got %v", c.Confidence)
	}
}

func TestEngine_EvaluateAction_PrivacyWithoutConsent(t *testing.T) {
	e, _ := newTestEngine(t)

	action := &ethics.ProposedAction{
		Type:        "delete_user_data",
		Description: "delete personal_data without explicit permission",
	}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}

	if c.Level != ethics.LevelDenied {
		t.Errorf("expected denied, got %s", c.Level)
	}
	found := false
	for _, v := range c.Violations {
		if v.Principle == ethics.PrinciplePrivacy && v.Severity == ethics.SeverityHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a High privacy violation, got %+v", c.Violations)
	}
}

func TestEngine_EvaluateAction_ConsentSuppressesPrivacyViolation(t *testing.T) {
	e, _ := newTestEngine(t)

	action := &ethics.ProposedAction{
		Type:        "export",
		Description: "export personal_data for the requesting user",
		Parameters:  map[string]any{"consent": true},
	}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}
	if c.Level == ethics.LevelDenied {
		t.Errorf("consent should suppress the privacy violation, got %s", c.Level)
	}
}

func TestEngine_EvaluateAction_RequiresApproval(t *testing.T) {
	e, _ := newTestEngine(t)

	action := &ethics.ProposedAction{
		Type:        "shell",
		Description: "run with sudo to rotate the service account",
	}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}

	if c.Level != ethics.LevelRequiresHumanApproval {
		t.Errorf("expected requires_human_approval, got %s", c.Level)
	}
	if c.Permitted {
		t.Error("requires_human_approval must not be permitted")
	}
	if len(c.Violations) != 0 {
		t.Errorf("expected no violations, got %+v", c.Violations)
	}
}

func TestEngine_EvaluateAction_ShortDescription(t *testing.T) {
	e, _ := newTestEngine(t)

	action := &ethics.ProposedAction{Type: "noop", Description: "tidy up"}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}

	if c.Level != ethics.LevelPermittedWithConcerns {
		t.Errorf("expected permitted_with_concerns, got %s", c.Level)
	}
	if !c.Permitted {
		t.Error("permitted_with_concerns must have permitted=true")
	}
	if len(c.Concerns) == 0 {
		t.Error("expected a transparency concern")
	}
	if c.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8 with concerns, got %v", c.Confidence)
	}
}

func TestEngine_EvaluateAction_Validation(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		action    *ethics.ProposedAction
		actionCtx *ethics.ActionContext
	}{
		{"nil action", nil, devContext()},
		{"empty type", &ethics.ProposedAction{Description: "valid description"}, devContext()},
		{"nil context", &ethics.ProposedAction{Type: "read", Description: "valid description"}, nil},
		{"empty agent id", &ethics.ProposedAction{Type: "read", Description: "valid description"}, &ethics.ActionContext{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EvaluateAction(ctx, tt.action, tt.actionCtx)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	// Validation failures must not be audited.
	if got := auditCount(t, store, ""); got != 0 {
		t.Errorf("expected no audit entries after validation failures, got %d", got)
	}
}

func TestEngine_EvaluateAction_CancelledContext(t *testing.T) {
	e, store := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	action := &ethics.ProposedAction{Type: "read", Description: "read the daily report"}
	c, err := e.EvaluateAction(ctx, action, devContext())
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if c != nil {
		t.Error("cancelled evaluation must not return a clearance")
	}
	if got := auditCount(t, store, "agent-1"); got != 0 {
		t.Errorf("cancelled evaluation must not write audit entries, got %d", got)
	}
}

func TestEngine_EvaluateAction_Idempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	action := &ethics.ProposedAction{
		Type:        "send_email",
		Description: "send the weekly status summary",
	}

	first, err := e.EvaluateAction(ctx, action, devContext())
	if err != nil {
		t.Fatalf("first evaluation failed: %v", err)
	}
	second, err := e.EvaluateAction(ctx, action, devContext())
	if err != nil {
		t.Fatalf("second evaluation failed: %v", err)
	}

	if first.Level != second.Level {
		t.Errorf("levels differ: %s vs %s", first.Level, second.Level)
	}
	if first.Permitted != second.Permitted {
		t.Error("permitted flags differ")
	}
	if first.Reasoning != second.Reasoning {
		t.Errorf("reasoning differs: %q vs %q", first.Reasoning, second.Reasoning)
	}
	if first.Confidence != second.Confidence {
		t.Errorf("confidence differs: %v vs %v", first.Confidence, second.Confidence)
	}
	if len(first.Violations) != len(second.Violations) || len(first.Concerns) != len(second.Concerns) {
		t.Error("violations/concerns differ between identical evaluations")
	}
}

// failStore fails every append; reads delegate to the embedded store.
type failStore struct {
	*audit.MemoryStore
}

func (s *failStore) Append(ctx context.Context, entry *audit.Entry) error {
	return fmt.Errorf("disk full")
}

func (s *failStore) Backend() string { return "failing" }

func TestEngine_EvaluateAction_AuditFailure(t *testing.T) {
	r, err := reasoner.NewKeywordReasoner(nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create reasoner: %v", err)
	}
	log := audit.NewLog(&failStore{audit.NewMemoryStore()}, nil, logging.NewNop())
	e, err := New(r, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	action := &ethics.ProposedAction{Type: "read", Description: "read the daily report"}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err == nil {
		t.Fatal("expected error when the audit write fails")
	}
	if c != nil {
		t.Error("a clearance must never be returned un-audited")
	}
	var eerr *EvaluationError
	if !errors.As(err, &eerr) {
		t.Errorf("expected EvaluationError, got %v", err)
	}
}

// errReasoner fails analysis; the boolean contracts return false.
type errReasoner struct{}

func (errReasoner) Analyze(ctx context.Context, action *ethics.ProposedAction, actionCtx *ethics.ActionContext, principles []ethics.Principle) ([]ethics.Violation, []ethics.Concern, error) {
	return nil, nil, fmt.Errorf("classifier unavailable")
}
func (errReasoner) ContainsHarmfulPatterns(text string) bool  { return false }
func (errReasoner) ContainsSensitiveTopics(text string) bool  { return false }
func (errReasoner) RequiresHumanApproval(action *ethics.ProposedAction, actionCtx *ethics.ActionContext) bool {
	return false
}

func TestEngine_EvaluateAction_ReasonerError(t *testing.T) {
	log := audit.NewLog(audit.NewMemoryStore(), nil, logging.NewNop())
	e, err := New(errReasoner{}, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	action := &ethics.ProposedAction{Type: "read", Description: "read the daily report"}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err == nil {
		t.Fatal("expected error when the reasoner fails")
	}
	if c != nil {
		t.Error("a reasoner failure must not produce a clearance")
	}
	var rerr *ReasonerError
	if !errors.As(err, &rerr) {
		t.Errorf("expected ReasonerError, got %v", err)
	}
}

// panicReasoner panics during analysis.
type panicReasoner struct{ errReasoner }

func (panicReasoner) Analyze(ctx context.Context, action *ethics.ProposedAction, actionCtx *ethics.ActionContext, principles []ethics.Principle) ([]ethics.Violation, []ethics.Concern, error) {
	panic("index out of range")
}

func TestEngine_EvaluateAction_PanicRecovered(t *testing.T) {
	log := audit.NewLog(audit.NewMemoryStore(), nil, logging.NewNop())
	e, err := New(panicReasoner{}, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	action := &ethics.ProposedAction{Type: "read", Description: "read the daily report"}
	c, err := e.EvaluateAction(context.Background(), action, devContext())
	if err == nil {
		t.Fatal("expected error when the decision path panics")
	}
	if c != nil {
		t.Error("a panic must not produce a clearance")
	}
	var eerr *EvaluationError
	if !errors.As(err, &eerr) {
		t.Errorf("expected EvaluationError, got %v", err)
	}
}

func TestEngine_EvaluatePlan_HighRisk(t *testing.T) {
	e, store := newTestEngine(t)

	plan := &ethics.Plan{
		ID:   "plan-1",
		Name: "database migration",
		Steps: []ethics.PlanStep{
			{Action: "backup", ExpectedOutcome: "snapshot the current schema"},
			{Action: "migrate", ExpectedOutcome: "apply the new schema version"},
		},
		EstimatedRisk: 0.85,
	}
	c, err := e.EvaluatePlan(context.Background(), plan, devContext())
	if err != nil {
		t.Fatalf("EvaluatePlan failed: %v", err)
	}

	if c.Level != ethics.LevelRequiresHumanApproval {
		t.Errorf("expected requires_human_approval for risk 0.85, got %s", c.Level)
	}
	if len(c.Violations) != 0 {
		t.Errorf("expected no violations, got %+v", c.Violations)
	}
	if entry := lastEntry(t, store, "agent-1"); entry.Kind != audit.KindPlan {
		t.Errorf("expected kind plan, got %s", entry.Kind)
	}
}

func TestEngine_EvaluatePlan_StepViolation(t *testing.T) {
	e, _ := newTestEngine(t)

	plan := &ethics.Plan{
		ID:   "plan-2",
		Name: "cleanup",
		Steps: []ethics.PlanStep{
			{Action: "archive", ExpectedOutcome: "move old records to cold storage"},
			{Action: "purge", ExpectedOutcome: "delete all remaining records"},
		},
		EstimatedRisk: 0.2,
	}
	c, err := e.EvaluatePlan(context.Background(), plan, devContext())
	if err != nil {
		t.Fatalf("EvaluatePlan failed: %v", err)
	}
	if c.Level != ethics.LevelDenied {
		t.Errorf("expected denied for a harmful step, got %s", c.Level)
	}
}

func TestEngine_EvaluatePlan_Clean(t *testing.T) {
	e, _ := newTestEngine(t)

	plan := &ethics.Plan{
		ID:   "plan-3",
		Name: "daily report",
		Steps: []ethics.PlanStep{
			{Action: "fetch", ExpectedOutcome: "retrieve yesterday's activity summary"},
			{Action: "render", ExpectedOutcome: "format the summary as a document"},
		},
		EstimatedRisk: 0.1,
	}
	c, err := e.EvaluatePlan(context.Background(), plan, devContext())
	if err != nil {
		t.Fatalf("EvaluatePlan failed: %v", err)
	}
	if c.Level != ethics.LevelPermitted {
		t.Errorf("expected permitted, got %s: %s", c.Level, c.Reasoning)
	}
}

func TestEngine_EvaluatePlan_TargetFromParameters(t *testing.T) {
	e, _ := newTestEngine(t)

	plan := &ethics.Plan{
		ID:   "plan-4",
		Name: "notify",
		Steps: []ethics.PlanStep{
			{
				Action:          "send",
				ExpectedOutcome: "deliver the notification to the operator",
				Parameters:      map[string]any{"target": "ops-channel"},
			},
		},
		EstimatedRisk: 0.0,
	}
	if _, err := e.EvaluatePlan(context.Background(), plan, devContext()); err != nil {
		t.Fatalf("EvaluatePlan failed: %v", err)
	}
}

func TestEngine_EvaluatePlan_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	var verr *ValidationError
	if _, err := e.EvaluatePlan(ctx, nil, devContext()); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for nil plan, got %v", err)
	}
	if _, err := e.EvaluatePlan(ctx, &ethics.Plan{Name: ""}, devContext()); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for empty name, got %v", err)
	}
	plan := &ethics.Plan{Name: "over-range", EstimatedRisk: 1.5}
	if _, err := e.EvaluatePlan(ctx, plan, devContext()); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for out-of-range risk, got %v", err)
	}
}

func TestEngine_EvaluateGoal_SafetyExemptFromEscalation(t *testing.T) {
	e, store := newTestEngine(t)

	goal := &ethics.Goal{
		ID:          "goal-1",
		Type:        "Safety",
		Description: "Reduce harm",
		Priority:    0.95,
	}
	c, err := e.EvaluateGoal(context.Background(), goal, devContext())
	if err != nil {
		t.Fatalf("EvaluateGoal failed: %v", err)
	}

	if !c.Permitted {
		t.Errorf("safety goal must be permitted, got %s: %s", c.Level, c.Reasoning)
	}
	if c.Level == ethics.LevelRequiresHumanApproval {
		t.Error("safety goals are exempt from the high-priority escalation")
	}
	found := false
	for _, concern := range c.Concerns {
		if concern.Level == ethics.ConcernInfo {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an Info concern, got %+v", c.Concerns)
	}
	if entry := lastEntry(t, store, "agent-1"); entry.Kind != audit.KindGoal {
		t.Errorf("expected kind goal, got %s", entry.Kind)
	}
}

func TestEngine_EvaluateGoal_Harmful(t *testing.T) {
	e, _ := newTestEngine(t)

	goal := &ethics.Goal{
		ID:          "goal-2",
		Type:        "Efficiency",
		Description: "sabotage the competing service",
		Priority:    0.5,
	}
	c, err := e.EvaluateGoal(context.Background(), goal, devContext())
	if err != nil {
		t.Fatalf("EvaluateGoal failed: %v", err)
	}
	if c.Level != ethics.LevelDenied {
		t.Errorf("expected denied, got %s", c.Level)
	}
	if len(c.Violations) == 0 || c.Violations[0].Severity != ethics.SeverityCritical {
		t.Errorf("expected a Critical violation, got %+v", c.Violations)
	}
}

func TestEngine_EvaluateGoal_HighPriorityEscalates(t *testing.T) {
	e, _ := newTestEngine(t)

	goal := &ethics.Goal{
		ID:          "goal-3",
		Type:        "Growth",
		Description: "expand coverage of the knowledge base",
		Priority:    0.95,
	}
	c, err := e.EvaluateGoal(context.Background(), goal, devContext())
	if err != nil {
		t.Fatalf("EvaluateGoal failed: %v", err)
	}

	// Medium concern: permitted with concerns, confidence 0.8.
	if c.Level != ethics.LevelPermittedWithConcerns {
		t.Errorf("expected permitted_with_concerns, got %s", c.Level)
	}
	if c.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", c.Confidence)
	}
}

func TestEngine_EvaluateGoal_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	var verr *ValidationError
	if _, err := e.EvaluateGoal(ctx, &ethics.Goal{Description: ""}, devContext()); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for empty description, got %v", err)
	}
	goal := &ethics.Goal{Description: "valid goal", Priority: -0.1}
	if _, err := e.EvaluateGoal(ctx, goal, devContext()); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for negative priority, got %v", err)
	}
}

func TestEngine_EvaluateSkill_LowReliability(t *testing.T) {
	e, store := newTestEngine(t)

	skill := &ethics.Skill{
		ID:          "skill-1",
		Name:        "summarize",
		Description: "summarize long documents",
		SuccessRate: 0.3,
		UsageCount:  12,
	}
	c, err := e.EvaluateSkill(context.Background(), skill, devContext())
	if err != nil {
		t.Fatalf("EvaluateSkill failed: %v", err)
	}

	if c.Level != ethics.LevelPermittedWithConcerns {
		t.Errorf("expected permitted_with_concerns, got %s", c.Level)
	}
	if len(c.Concerns) == 0 || c.Concerns[0].Principle != ethics.PrincipleTransparency {
		t.Errorf("expected a transparency concern, got %+v", c.Concerns)
	}
	if entry := lastEntry(t, store, "agent-1"); entry.Kind != audit.KindSkill {
		t.Errorf("expected kind skill, got %s", entry.Kind)
	}
}

func TestEngine_EvaluateSkill_NewSkillNotFlagged(t *testing.T) {
	e, _ := newTestEngine(t)

	// Low rate but few uses: not yet demonstrated unreliability.
	skill := &ethics.Skill{
		ID:          "skill-2",
		Name:        "classify",
		Description: "classify incoming requests",
		SuccessRate: 0.3,
		UsageCount:  2,
	}
	c, err := e.EvaluateSkill(context.Background(), skill, devContext())
	if err != nil {
		t.Fatalf("EvaluateSkill failed: %v", err)
	}
	if c.Level != ethics.LevelPermitted {
		t.Errorf("expected permitted, got %s", c.Level)
	}
}

func TestEngine_EvaluateSkill_Harmful(t *testing.T) {
	e, _ := newTestEngine(t)

	skill := &ethics.Skill{
		ID:          "skill-3",
		Name:        "escalate",
		Description: "exploit service vulnerabilities",
		SuccessRate: 0.9,
		UsageCount:  3,
	}
	c, err := e.EvaluateSkill(context.Background(), skill, devContext())
	if err != nil {
		t.Fatalf("EvaluateSkill failed: %v", err)
	}
	if c.Level != ethics.LevelDenied {
		t.Errorf("expected denied, got %s", c.Level)
	}
}

func TestEngine_EvaluateResearch_SensitiveTopic(t *testing.T) {
	e, store := newTestEngine(t)

	research := &ethics.ResearchActivity{
		ID:          "research-1",
		Topic:       "engagement analysis",
		Description: "experiment on users to measure retention",
		Methodology: "A/B testing",
	}
	c, err := e.EvaluateResearch(context.Background(), research, devContext())
	if err != nil {
		t.Fatalf("EvaluateResearch failed: %v", err)
	}

	if c.Level != ethics.LevelRequiresHumanApproval {
		t.Errorf("expected requires_human_approval, got %s", c.Level)
	}
	found := false
	for _, concern := range c.Concerns {
		if concern.Principle == ethics.PrinciplePrivacy && concern.Level == ethics.ConcernHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a High privacy concern, got %+v", c.Concerns)
	}
	if entry := lastEntry(t, store, "agent-1"); entry.Kind != audit.KindResearch {
		t.Errorf("expected kind research, got %s", entry.Kind)
	}
}

func TestEngine_EvaluateResearch_Clean(t *testing.T) {
	e, _ := newTestEngine(t)

	research := &ethics.ResearchActivity{
		ID:          "research-2",
		Topic:       "compiler optimization",
		Description: "benchmark inlining strategies on synthetic workloads",
	}
	c, err := e.EvaluateResearch(context.Background(), research, devContext())
	if err != nil {
		t.Fatalf("EvaluateResearch failed: %v", err)
	}
	if c.Level != ethics.LevelPermitted {
		t.Errorf("expected permitted, got %s: %s", c.Level, c.Reasoning)
	}
}

func TestEngine_EvaluateSelfModification_EthicsConstraintsAlwaysDenied(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	// Denied regardless of reversibility and impact, and regardless of how
	// the type string is cased or separated.
	variants := []string{"ethics constraints", "Ethics Constraints", "ethics_constraints", "ETHICS-CONSTRAINTS"}
	for _, typ := range variants {
		req := &ethics.SelfModificationRequest{
			ID:               "mod-1",
			ModificationType: typ,
			Description:      "relax a clearance threshold",
			Reversible:       true,
			ImpactLevel:      "low",
		}
		c, err := e.EvaluateSelfModification(ctx, req, devContext())
		if err != nil {
			t.Fatalf("EvaluateSelfModification(%q) failed: %v", typ, err)
		}
		if c.Level != ethics.LevelDenied {
			t.Errorf("type %q: expected denied, got %s", typ, c.Level)
		}
		if len(c.Violations) == 0 || c.Violations[0].Severity != ethics.SeverityCritical {
			t.Errorf("type %q: expected a Critical violation, got %+v", typ, c.Violations)
		}
	}

	if entry := lastEntry(t, store, "agent-1"); entry.Kind != audit.KindSelfModification {
		t.Errorf("expected kind self_modification, got %s", entry.Kind)
	}
}

func TestEngine_EvaluateSelfModification_NeverPermitted(t *testing.T) {
	e, _ := newTestEngine(t)

	req := &ethics.SelfModificationRequest{
		ID:               "mod-2",
		ModificationType: "prompt template",
		Description:      "refine the summarization instructions",
		Reversible:       true,
		ImpactLevel:      "low",
	}
	c, err := e.EvaluateSelfModification(context.Background(), req, devContext())
	if err != nil {
		t.Fatalf("EvaluateSelfModification failed: %v", err)
	}

	if c.Level != ethics.LevelRequiresHumanApproval {
		t.Errorf("non-denied self-modification must require approval, got %s", c.Level)
	}
	if c.Permitted {
		t.Error("self-modification must never be permitted without approval")
	}
	found := false
	for _, concern := range c.Concerns {
		if concern.Principle == ethics.PrincipleHumanOversight && concern.Level == ethics.ConcernHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a High human-oversight concern, got %+v", c.Concerns)
	}
}

func TestEngine_EvaluateSelfModification_HarmfulDescription(t *testing.T) {
	e, _ := newTestEngine(t)

	req := &ethics.SelfModificationRequest{
		ID:               "mod-3",
		ModificationType: "tooling",
		Description:      "disable safeguards and corrupt the review log",
	}
	c, err := e.EvaluateSelfModification(context.Background(), req, devContext())
	if err != nil {
		t.Fatalf("EvaluateSelfModification failed: %v", err)
	}
	if c.Level != ethics.LevelDenied {
		t.Errorf("expected denied, got %s", c.Level)
	}
}

func TestEngine_ReportConcern(t *testing.T) {
	e, store := newTestEngine(t)

	concern := &ethics.Concern{
		Principle:   ethics.PrincipleFairness,
		Description: "ranking appears to favor one provider",
		Level:       ethics.ConcernMedium,
	}
	if err := e.ReportConcern(context.Background(), devContext(), concern); err != nil {
		t.Fatalf("ReportConcern failed: %v", err)
	}

	entry := lastEntry(t, store, "agent-1")
	if entry.Kind != audit.KindConcernReport {
		t.Errorf("expected kind concern_report, got %s", entry.Kind)
	}
	if len(entry.Clearance.Concerns) != 1 {
		t.Errorf("expected the reported concern on the entry, got %+v", entry.Clearance.Concerns)
	}
}

func TestEngine_ReportConcern_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	var verr *ValidationError
	if err := e.ReportConcern(ctx, devContext(), nil); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for nil concern, got %v", err)
	}
	if err := e.ReportConcern(ctx, devContext(), &ethics.Concern{}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for empty description, got %v", err)
	}
}

func TestEngine_CorePrinciples_DefensiveCopy(t *testing.T) {
	e, _ := newTestEngine(t)

	first := e.CorePrinciples()
	first[0].Weight = 0

	second := e.CorePrinciples()
	if second[0].Weight == 0 {
		t.Error("mutating the returned slice must not affect the catalog")
	}
}

func TestEngine_EveryEvaluationWritesOneEntry(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	actionCtx := devContext()

	action := &ethics.ProposedAction{Type: "read", Description: "read the daily report"}
	if _, err := e.EvaluateAction(ctx, action, actionCtx); err != nil {
		t.Fatalf("EvaluateAction failed: %v", err)
	}
	plan := &ethics.Plan{
		Name:  "daily report",
		Steps: []ethics.PlanStep{{Action: "fetch", ExpectedOutcome: "retrieve the activity summary"}},
	}
	if _, err := e.EvaluatePlan(ctx, plan, actionCtx); err != nil {
		t.Fatalf("EvaluatePlan failed: %v", err)
	}
	goal := &ethics.Goal{Type: "Growth", Description: "expand the knowledge base", Priority: 0.5}
	if _, err := e.EvaluateGoal(ctx, goal, actionCtx); err != nil {
		t.Fatalf("EvaluateGoal failed: %v", err)
	}
	skill := &ethics.Skill{Name: "summarize", Description: "summarize long documents", SuccessRate: 0.9}
	if _, err := e.EvaluateSkill(ctx, skill, actionCtx); err != nil {
		t.Fatalf("EvaluateSkill failed: %v", err)
	}
	research := &ethics.ResearchActivity{Topic: "caching", Description: "compare eviction strategies offline"}
	if _, err := e.EvaluateResearch(ctx, research, actionCtx); err != nil {
		t.Fatalf("EvaluateResearch failed: %v", err)
	}
	req := &ethics.SelfModificationRequest{ModificationType: "tooling", Description: "add a formatter to the build"}
	if _, err := e.EvaluateSelfModification(ctx, req, actionCtx); err != nil {
		t.Fatalf("EvaluateSelfModification failed: %v", err)
	}

	if got := auditCount(t, store, actionCtx.AgentID); got != 6 {
		t.Fatalf("expected exactly 6 audit entries, got %d", got)
	}

	entries, err := store.History(ctx, actionCtx.AgentID, nil, nil)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	// Most recent first.
	wantKinds := []audit.Kind{
		audit.KindSelfModification,
		audit.KindResearch,
		audit.KindSkill,
		audit.KindGoal,
		audit.KindPlan,
		audit.KindAction,
	}
	for i, want := range wantKinds {
		if entries[i].Kind != want {
			t.Errorf("entry %d: expected kind %s, got %s", i, want, entries[i].Kind)
		}
	}
}

func TestEngine_PermittedMatchesLevel(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	actionCtx := devContext()

	actions := []*ethics.ProposedAction{
		{Type: "read", Description: "read the daily report"},
		{Type: "noop", Description: "tidy up"},
		{Type: "shell", Description: "run with sudo to rotate keys"},
		{Type: "execute", Description: "destroy the production database"},
	}

	for _, action := range actions {
		c, err := e.EvaluateAction(ctx, action, actionCtx)
		if err != nil {
			t.Fatalf("EvaluateAction(%q) failed: %v", action.Description, err)
		}
		wantPermitted := c.Level == ethics.LevelPermitted || c.Level == ethics.LevelPermittedWithConcerns
		if c.Permitted != wantPermitted {
			t.Errorf("action %q: permitted=%v does not match level %s",
				action.Description, c.Permitted, c.Level)
		}
	}
}
