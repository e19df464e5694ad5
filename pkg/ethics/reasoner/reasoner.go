package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
)

// Reasoner is the pattern-detection strategy consumed by the evaluation
// engine. Implementations must be safe for concurrent use.
type Reasoner interface {
	// Analyze inspects a proposed action against the supplied principles
	// and returns the violations and concerns it detects.
	Analyze(ctx context.Context, action *ethics.ProposedAction, actionCtx *ethics.ActionContext, principles []ethics.Principle) ([]ethics.Violation, []ethics.Concern, error)

	// ContainsHarmfulPatterns reports whether the text matches any harmful
	// pattern. Exposed separately because goal, skill, research, and
	// self-modification evaluation reuse it without building a full
	// ProposedAction.
	ContainsHarmfulPatterns(text string) bool

	// ContainsSensitiveTopics reports whether the text touches a sensitive
	// research topic.
	ContainsSensitiveTopics(text string) bool

	// RequiresHumanApproval reports whether the action, combined with its
	// context, requires mandatory human approval.
	RequiresHumanApproval(action *ethics.ProposedAction, actionCtx *ethics.ActionContext) bool
}

// consentKeys are the parameter keys that count as explicit consent for
// privacy-sensitive actions.
var consentKeys = []string{"consent", "user_consent", "authorized"}

// minDescriptionLength is the shortest action description that does not
// raise a transparency concern.
const minDescriptionLength = 10

// KeywordReasoner is the default Reasoner. It matches action text against a
// PatternSet of fixed keyword lists. The set can be swapped at runtime via
// Reload, which is how the file watcher applies hot reloads.
type KeywordReasoner struct {
	mu       sync.RWMutex
	patterns *PatternSet
	logger   *slog.Logger
}

// NewKeywordReasoner creates a keyword reasoner over the given pattern set.
// A nil set selects the built-in defaults.
func NewKeywordReasoner(patterns *PatternSet, logger *slog.Logger) (*KeywordReasoner, error) {
	if patterns == nil {
		patterns = DefaultPatternSet()
	}
	if err := patterns.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern set: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordReasoner{
		patterns: patterns,
		logger:   logger.With("component", "ethics.reasoner"),
	}, nil
}

// Reload atomically replaces the pattern set.
func (r *KeywordReasoner) Reload(patterns *PatternSet) error {
	if patterns == nil {
		return fmt.Errorf("pattern set cannot be nil")
	}
	if err := patterns.Validate(); err != nil {
		return fmt.Errorf("invalid pattern set: %w", err)
	}

	r.mu.Lock()
	r.patterns = patterns
	r.mu.Unlock()

	r.logger.Info("pattern set reloaded",
		"harmful", len(patterns.Harmful),
		"high_risk", len(patterns.HighRisk),
		"privacy", len(patterns.Privacy),
		"deceptive", len(patterns.Deceptive),
		"sensitive", len(patterns.Sensitive),
	)
	return nil
}

// Patterns returns a copy of the active pattern set.
func (r *KeywordReasoner) Patterns() *PatternSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patterns.Clone()
}

// Analyze scans the action description against the four keyword classes and
// returns the violations and concerns found.
func (r *KeywordReasoner) Analyze(ctx context.Context, action *ethics.ProposedAction, actionCtx *ethics.ActionContext, principles []ethics.Principle) ([]ethics.Violation, []ethics.Concern, error) {
	r.mu.RLock()
	patterns := r.patterns
	r.mu.RUnlock()

	var violations []ethics.Violation
	var concerns []ethics.Concern

	text := action.Description

	if kw := matchAny(text, patterns.Harmful); kw != "" {
		violations = append(violations, ethics.Violation{
			Principle:       ethics.PrincipleDoNoHarm,
			Description:     "action description matches a harmful pattern",
			Severity:        ethics.SeverityHigh,
			Evidence:        fmt.Sprintf("matched keyword %q in description", kw),
			AffectedParties: []string{"potentially affected humans or systems"},
		})
	}

	if kw := matchAny(text, patterns.Privacy); kw != "" && !hasConsent(action.Parameters) {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrinciplePrivacy,
			Description: "privacy-sensitive action without an explicit consent parameter",
			Severity:    ethics.SeverityHigh,
			Evidence:    fmt.Sprintf("matched keyword %q with no consent parameter", kw),
			AffectedParties: []string{"data subjects"},
		})
	}

	if kw := matchAny(text, patterns.Deceptive); kw != "" {
		violations = append(violations, ethics.Violation{
			Principle:   ethics.PrincipleHonesty,
			Description: "action description matches a deceptive pattern",
			Severity:    ethics.SeverityMedium,
			Evidence:    fmt.Sprintf("matched keyword %q in description", kw),
		})
	}

	if kw := matchAny(text, patterns.HighRisk); kw != "" {
		concerns = append(concerns, ethics.Concern{
			Principle:   ethics.PrincipleHumanOversight,
			Description: "action matches a high-risk pattern and should be reviewed",
			Level:       ethics.ConcernHigh,
			Mitigation:  fmt.Sprintf("obtain human review before executing (matched %q)", kw),
		})
	}

	if len(strings.TrimSpace(text)) < minDescriptionLength {
		concerns = append(concerns, ethics.Concern{
			Principle:   ethics.PrincipleTransparency,
			Description: "action description is too short to review meaningfully",
			Level:       ethics.ConcernMedium,
			Mitigation:  "provide a fuller description of the intended action",
		})
	}

	return violations, concerns, nil
}

// ContainsHarmfulPatterns reports whether the text matches any harmful
// keyword.
func (r *KeywordReasoner) ContainsHarmfulPatterns(text string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return matchAny(text, r.patterns.Harmful) != ""
}

// ContainsSensitiveTopics reports whether the text touches a sensitive
// research topic.
func (r *KeywordReasoner) ContainsSensitiveTopics(text string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return matchAny(text, r.patterns.Sensitive) != ""
}

// RequiresHumanApproval reports whether mandatory approval applies: the
// action matches a high-risk pattern, or it runs in production with more
// than two potential effects, or its type looks like self-alteration.
func (r *KeywordReasoner) RequiresHumanApproval(action *ethics.ProposedAction, actionCtx *ethics.ActionContext) bool {
	r.mu.RLock()
	highRisk := matchAny(action.Description, r.patterns.HighRisk) != ""
	r.mu.RUnlock()

	if highRisk {
		return true
	}
	if actionCtx.Environment == ethics.EnvProduction && len(action.Effects) > 2 {
		return true
	}

	actionType := strings.ToLower(action.Type)
	return strings.Contains(actionType, "modify") || strings.Contains(actionType, "update")
}

// hasConsent reports whether any consent-style parameter key is present.
func hasConsent(params map[string]any) bool {
	for _, key := range consentKeys {
		if _, ok := params[key]; ok {
			return true
		}
	}
	return false
}
