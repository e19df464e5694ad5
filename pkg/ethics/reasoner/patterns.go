package reasoner

import (
	"fmt"
	"strings"
)

// PatternSet holds the keyword classes the KeywordReasoner matches against.
// All matching is case-insensitive substring matching; keywords are
// normalized to lower case when the set is validated.
type PatternSet struct {
	// Harmful keywords indicate direct harm. A match yields a
	// High-severity do-no-harm violation.
	Harmful []string `yaml:"harmful"`

	// HighRisk keywords indicate privileged or high-stakes operations.
	// A match escalates to human oversight rather than blocking.
	HighRisk []string `yaml:"high_risk"`

	// Privacy keywords indicate access to personal or confidential data.
	// A match without an explicit consent parameter yields a High-severity
	// privacy violation.
	Privacy []string `yaml:"privacy"`

	// Deceptive keywords indicate deception or misrepresentation. A match
	// yields a Medium-severity honesty violation.
	Deceptive []string `yaml:"deceptive"`

	// Sensitive keywords indicate research topics that require human
	// approval (user data, experimentation on users).
	Sensitive []string `yaml:"sensitive"`
}

// DefaultPatternSet returns the built-in keyword lists.
func DefaultPatternSet() *PatternSet {
	return &PatternSet{
		Harmful: []string{
			"harm", "damage", "destroy", "attack", "exploit",
			"weapon", "kill", "injure", "poison", "sabotage",
			"steal", "wipe all", "delete all", "corrupt",
		},
		HighRisk: []string{
			"sudo", "root access", "admin", "credential", "password",
			"irreversible", "permanent", "financial", "payment",
			"deploy", "shutdown", "privileged",
		},
		Privacy: []string{
			"personal_data", "personal data", "private", "confidential",
			"ssn", "medical record", "biometric", "location history",
			"browsing history",
		},
		Deceptive: []string{
			"deceive", "mislead", "trick", "manipulate",
			"impersonate", "fake", "fabricate", "pretend to be",
		},
		Sensitive: []string{
			"user data", "personal", "private", "confidential",
			"experiment on users",
		},
	}
}

// Validate checks that every keyword class is non-empty and normalizes all
// keywords to lower case.
func (p *PatternSet) Validate() error {
	classes := map[string][]string{
		"harmful":   p.Harmful,
		"high_risk": p.HighRisk,
		"privacy":   p.Privacy,
		"deceptive": p.Deceptive,
		"sensitive": p.Sensitive,
	}
	for name, keywords := range classes {
		if len(keywords) == 0 {
			return fmt.Errorf("pattern class %q is empty", name)
		}
		for _, kw := range keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("pattern class %q contains a blank keyword", name)
			}
		}
	}

	p.Harmful = normalize(p.Harmful)
	p.HighRisk = normalize(p.HighRisk)
	p.Privacy = normalize(p.Privacy)
	p.Deceptive = normalize(p.Deceptive)
	p.Sensitive = normalize(p.Sensitive)
	return nil
}

// Clone returns a deep copy of the pattern set.
func (p *PatternSet) Clone() *PatternSet {
	return &PatternSet{
		Harmful:   append([]string(nil), p.Harmful...),
		HighRisk:  append([]string(nil), p.HighRisk...),
		Privacy:   append([]string(nil), p.Privacy...),
		Deceptive: append([]string(nil), p.Deceptive...),
		Sensitive: append([]string(nil), p.Sensitive...),
	}
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, strings.ToLower(strings.TrimSpace(kw)))
	}
	return out
}

// matchAny returns the first keyword contained in text, matched
// case-insensitively, or "" when nothing matches. Keywords are assumed to
// be lower case already.
func matchAny(text string, keywords []string) string {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return kw
		}
	}
	return ""
}
