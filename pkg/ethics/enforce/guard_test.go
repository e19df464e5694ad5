package enforce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/engine"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/reasoner"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/telemetry/logging"
)

// shellCommand is the example action type used throughout these tests.
type shellCommand struct {
	Name        string
	Description string
}

func convertCommand(cmd shellCommand) *ethics.ProposedAction {
	return &ethics.ProposedAction{
		Type:        cmd.Name,
		Description: cmd.Description,
	}
}

func testContext() *ethics.ActionContext {
	return &ethics.ActionContext{
		AgentID:     "agent-1",
		Environment: ethics.EnvDevelopment,
		Timestamp:   time.Now().UTC(),
	}
}

func newTestGuard(t *testing.T, inner Executor[shellCommand, string], opts ...Option[shellCommand, string]) (*Guard[shellCommand, string], *audit.MemoryStore) {
	t.Helper()
	r, err := reasoner.NewKeywordReasoner(nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create reasoner: %v", err)
	}
	store := audit.NewMemoryStore()
	log := audit.NewLog(store, nil, logging.NewNop())
	e, err := engine.New(r, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	opts = append(opts, WithLogger[shellCommand, string](logging.NewNop()))
	g, err := NewGuard(inner, e, convertCommand, testContext(), opts...)
	if err != nil {
		t.Fatalf("failed to create guard: %v", err)
	}
	return g, store
}

func echoExecutor() Executor[shellCommand, string] {
	return ExecutorFunc[shellCommand, string](func(ctx context.Context, cmd shellCommand) (string, error) {
		return "ran " + cmd.Name, nil
	})
}

func TestGuard_Execute_Permitted(t *testing.T) {
	g, _ := newTestGuard(t, echoExecutor())

	result, err := g.Execute(context.Background(), shellCommand{
		Name:        "report",
		Description: "generate the daily status report",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "ran report" {
		t.Errorf("unexpected result %q", result)
	}
}

func TestGuard_Execute_DeniedBlocks(t *testing.T) {
	executed := false
	inner := ExecutorFunc[shellCommand, string](func(ctx context.Context, cmd shellCommand) (string, error) {
		executed = true
		return "", nil
	})
	g, _ := newTestGuard(t, inner)

	_, err := g.Execute(context.Background(), shellCommand{
		Name:        "wipe",
		Description: "destroy the production database",
	})
	if err == nil {
		t.Fatal("expected denied execution to fail")
	}
	if executed {
		t.Error("inner executor must not run on denial")
	}

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.Clearance.Level != ethics.LevelDenied {
		t.Errorf("expected denied clearance, got %s", blocked.Clearance.Level)
	}
	if !strings.Contains(err.Error(), "denied") {
		t.Errorf("denied phrasing missing from %q", err.Error())
	}
}

func TestGuard_Execute_ApprovalBlocksWithDistinctPhrasing(t *testing.T) {
	g, _ := newTestGuard(t, echoExecutor())

	_, err := g.Execute(context.Background(), shellCommand{
		Name:        "rotate",
		Description: "run with sudo to rotate the signing keys",
	})
	if err == nil {
		t.Fatal("expected approval-required execution to fail")
	}

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.Clearance.Level != ethics.LevelRequiresHumanApproval {
		t.Errorf("expected requires_human_approval, got %s", blocked.Clearance.Level)
	}
	if !strings.Contains(err.Error(), "approval") {
		t.Errorf("approval phrasing missing from %q", err.Error())
	}
	if strings.Contains(err.Error(), "execution denied") {
		t.Errorf("approval block must not use denied phrasing: %q", err.Error())
	}
}

func TestGuard_Execute_ConcernsStillExecute(t *testing.T) {
	g, _ := newTestGuard(t, echoExecutor())

	// Short description raises a transparency concern but still executes.
	result, err := g.Execute(context.Background(), shellCommand{
		Name:        "tidy",
		Description: "tidy up",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "ran tidy" {
		t.Errorf("unexpected result %q", result)
	}
}

func TestGuard_Execute_EvaluationFailureBlocks(t *testing.T) {
	executed := false
	inner := ExecutorFunc[shellCommand, string](func(ctx context.Context, cmd shellCommand) (string, error) {
		executed = true
		return "", nil
	})
	g, _ := newTestGuard(t, inner)

	// Validation failure (empty action type) is a non-success: must block.
	_, err := g.Execute(context.Background(), shellCommand{
		Name:        "",
		Description: "generate the daily status report",
	})
	if err == nil {
		t.Fatal("expected evaluation failure to block")
	}
	if executed {
		t.Error("inner executor must not run when evaluation fails")
	}
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected wrapped ValidationError, got %v", err)
	}
}

func TestGuard_Execute_RecordsViolationAttempt(t *testing.T) {
	r, err := reasoner.NewKeywordReasoner(nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create reasoner: %v", err)
	}
	store := audit.NewMemoryStore()
	log := audit.NewLog(store, nil, logging.NewNop())
	e, err := engine.New(r, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	g, err := NewGuard(echoExecutor(), e, convertCommand, testContext(),
		WithAuditLog[shellCommand, string](log),
		WithLogger[shellCommand, string](logging.NewNop()))
	if err != nil {
		t.Fatalf("failed to create guard: %v", err)
	}

	_, err = g.Execute(context.Background(), shellCommand{
		Name:        "wipe",
		Description: "destroy the production database",
	})
	if err == nil {
		t.Fatal("expected denial")
	}

	entries, err := store.History(context.Background(), "agent-1", nil, nil)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	// One entry for the evaluation, one for the blocked attempt.
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Kind != audit.KindViolationAttempt {
		t.Errorf("expected violation_attempt entry, got %s", entries[0].Kind)
	}
	if entries[0].Clearance.Level != ethics.LevelDenied {
		t.Errorf("synthesized clearance must be denied, got %s", entries[0].Clearance.Level)
	}
}

func TestGuard_Execute_InnerErrorPassesThrough(t *testing.T) {
	innerErr := fmt.Errorf("command exited 1")
	inner := ExecutorFunc[shellCommand, string](func(ctx context.Context, cmd shellCommand) (string, error) {
		return "", innerErr
	})
	g, _ := newTestGuard(t, inner)

	_, err := g.Execute(context.Background(), shellCommand{
		Name:        "report",
		Description: "generate the daily status report",
	})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected inner error to pass through, got %v", err)
	}
}

func TestNewGuard_Validation(t *testing.T) {
	r, err := reasoner.NewKeywordReasoner(nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create reasoner: %v", err)
	}
	log := audit.NewLog(audit.NewMemoryStore(), nil, logging.NewNop())
	e, err := engine.New(r, log, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if _, err := NewGuard[shellCommand, string](nil, e, convertCommand, testContext()); err == nil {
		t.Error("expected error for nil inner executor")
	}
	if _, err := NewGuard(echoExecutor(), nil, convertCommand, testContext()); err == nil {
		t.Error("expected error for nil evaluator")
	}
	if _, err := NewGuard(echoExecutor(), e, nil, testContext()); err == nil {
		t.Error("expected error for nil converter")
	}
	if _, err := NewGuard(echoExecutor(), e, convertCommand, nil); err == nil {
		t.Error("expected error for nil action context")
	}
}
