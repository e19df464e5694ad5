package enforce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/engine"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/telemetry/metrics"
)

// Executor performs an action of type A and returns a result of type R.
type Executor[A, R any] interface {
	Execute(ctx context.Context, action A) (R, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc[A, R any] func(ctx context.Context, action A) (R, error)

// Execute calls the function.
func (f ExecutorFunc[A, R]) Execute(ctx context.Context, action A) (R, error) {
	return f(ctx, action)
}

// Converter maps a domain-specific action into a ProposedAction for
// evaluation.
type Converter[A any] func(action A) *ethics.ProposedAction

// BlockedError is returned when the evaluation blocks execution. It
// carries the full clearance so callers can inspect the reasoning.
type BlockedError struct {
	// Clearance is the blocking decision.
	Clearance *ethics.Clearance
}

// Error implements the error interface. Denied and requires-approval
// outcomes are phrased distinctly.
func (e *BlockedError) Error() string {
	switch e.Clearance.Level {
	case ethics.LevelRequiresHumanApproval:
		return fmt.Sprintf("execution blocked pending human approval: %s", e.Clearance.Reasoning)
	case ethics.LevelDenied:
		return fmt.Sprintf("execution denied: %s", e.Clearance.Reasoning)
	default:
		return fmt.Sprintf("execution blocked: %s", e.Clearance.Reasoning)
	}
}

// Guard wraps an inner executor and forwards actions only when the
// clearance permits them.
type Guard[A, R any] struct {
	inner     Executor[A, R]
	evaluator engine.Evaluator
	convert   Converter[A]
	actionCtx *ethics.ActionContext
	log       *audit.Log
	metrics   *metrics.EthicsMetrics
	logger    *slog.Logger
}

// Option configures a Guard.
type Option[A, R any] func(*Guard[A, R])

// WithAuditLog enables violation-attempt recording for denied executions.
func WithAuditLog[A, R any](log *audit.Log) Option[A, R] {
	return func(g *Guard[A, R]) { g.log = log }
}

// WithMetrics counts blocked executions and surfaced concerns.
func WithMetrics[A, R any](m *metrics.EthicsMetrics) Option[A, R] {
	return func(g *Guard[A, R]) { g.metrics = m }
}

// WithLogger sets the guard's logger.
func WithLogger[A, R any](logger *slog.Logger) Option[A, R] {
	return func(g *Guard[A, R]) { g.logger = logger.With("component", "ethics.enforce") }
}

// NewGuard creates an enforcement guard around the inner executor. The
// action context is bound once; every execution is evaluated against it.
func NewGuard[A, R any](inner Executor[A, R], evaluator engine.Evaluator, convert Converter[A], actionCtx *ethics.ActionContext, opts ...Option[A, R]) (*Guard[A, R], error) {
	if inner == nil {
		return nil, fmt.Errorf("inner executor cannot be nil")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if convert == nil {
		return nil, fmt.Errorf("converter cannot be nil")
	}
	if actionCtx == nil {
		return nil, fmt.Errorf("action context cannot be nil")
	}

	g := &Guard[A, R]{
		inner:     inner,
		evaluator: evaluator,
		convert:   convert,
		actionCtx: actionCtx,
		logger:    slog.Default().With("component", "ethics.enforce"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Execute evaluates the action and forwards it to the inner executor only
// when the clearance permits. Evaluation failures block; a
// PermittedWithConcerns clearance executes with the concerns logged and
// counted as a side channel.
func (g *Guard[A, R]) Execute(ctx context.Context, action A) (R, error) {
	var zero R

	proposed := g.convert(action)
	clearance, err := g.evaluator.EvaluateAction(ctx, proposed, g.actionCtx)
	if err != nil {
		// Any non-success from the evaluator blocks.
		return zero, fmt.Errorf("evaluation failed, execution blocked: %w", err)
	}

	if !clearance.Permitted {
		g.metrics.RecordBlocked(string(clearance.Level))
		g.logger.Warn("execution blocked",
			"agent_id", g.actionCtx.AgentID,
			"action_type", proposed.Type,
			"level", clearance.Level,
			"reasoning", clearance.Reasoning,
		)
		if g.log != nil && clearance.Level == ethics.LevelDenied {
			if err := g.log.LogViolationAttempt(ctx, g.actionCtx.AgentID, g.actionCtx.UserID, proposed.Description, clearance.Violations); err != nil {
				g.logger.Error("failed to record violation attempt", "error", err)
			}
		}
		return zero, &BlockedError{Clearance: clearance}
	}

	if clearance.Level == ethics.LevelPermittedWithConcerns {
		g.logger.Info("executing with concerns",
			"agent_id", g.actionCtx.AgentID,
			"action_type", proposed.Type,
			"concern_count", len(clearance.Concerns),
		)
	}

	return g.inner.Execute(ctx, action)
}
