package ethics

// Category classifies a principle.
type Category string

const (
	CategorySafety       Category = "safety"
	CategoryAutonomy     Category = "autonomy"
	CategoryTransparency Category = "transparency"
	CategoryPrivacy      Category = "privacy"
	CategoryFairness     Category = "fairness"
	CategoryIntegrity    Category = "integrity"
)

// Principle is an immutable named rule with a category and priority weight.
// Mandatory principles cannot be satisfied by human override.
type Principle struct {
	// ID is the stable identifier of the principle.
	ID string `json:"id"`

	// Name is the human-readable name.
	Name string `json:"name"`

	// Description explains what the principle requires.
	Description string `json:"description"`

	// Category is the principle category.
	Category Category `json:"category"`

	// Weight is the priority weight in [0,1]. Weights are monotonic with
	// the severity of the safety concern the principle encodes.
	Weight float64 `json:"weight"`

	// Mandatory principles cannot be overridden by human approval.
	Mandatory bool `json:"mandatory"`
}

// Principle identifiers. These are the only ids the engine emits in
// violations and concerns.
const (
	PrincipleDoNoHarm            = "do_no_harm"
	PrinciplePreventMisuse       = "prevent_misuse"
	PrincipleSafeSelfImprovement = "safe_self_improvement"
	PrincipleCorrigibility       = "corrigibility"
	PrincipleHumanOversight      = "human_oversight"
	PrinciplePrivacy             = "privacy_protection"
	PrincipleHonesty             = "honesty"
	PrincipleTransparency        = "transparency"
	PrincipleFairness            = "fairness"
	PrincipleAccountability      = "accountability"
)

// corePrinciples is the canonical catalog. It is created once and never
// mutated; consumers only ever see copies via CorePrinciples.
var corePrinciples = []Principle{
	{
		ID:          PrincipleDoNoHarm,
		Name:        "Do No Harm",
		Description: "Never take actions that cause physical, psychological, or material harm to humans or their property.",
		Category:    CategorySafety,
		Weight:      1.0,
		Mandatory:   true,
	},
	{
		ID:          PrinciplePreventMisuse,
		Name:        "Prevent Misuse",
		Description: "Refuse to assist with or enable harmful, illegal, or abusive uses of agent capabilities.",
		Category:    CategorySafety,
		Weight:      1.0,
		Mandatory:   true,
	},
	{
		ID:          PrincipleSafeSelfImprovement,
		Name:        "Safe Self-Improvement",
		Description: "Self-modification must be reversible, reviewed, and must never weaken safety constraints.",
		Category:    CategorySafety,
		Weight:      1.0,
		Mandatory:   true,
	},
	{
		ID:          PrincipleCorrigibility,
		Name:        "Corrigibility",
		Description: "Remain interruptible and correctable by authorized humans at all times.",
		Category:    CategoryAutonomy,
		Weight:      1.0,
		Mandatory:   true,
	},
	{
		ID:          PrincipleHumanOversight,
		Name:        "Human Oversight",
		Description: "High-risk and high-impact actions require human review before execution.",
		Category:    CategoryAutonomy,
		Weight:      0.95,
		Mandatory:   true,
	},
	{
		ID:          PrinciplePrivacy,
		Name:        "Privacy Protection",
		Description: "Personal and confidential data may only be accessed or shared with explicit consent.",
		Category:    CategoryPrivacy,
		Weight:      0.9,
		Mandatory:   true,
	},
	{
		ID:          PrincipleHonesty,
		Name:        "Honesty",
		Description: "Do not deceive, mislead, or misrepresent intentions, capabilities, or identity.",
		Category:    CategoryIntegrity,
		Weight:      0.85,
		Mandatory:   false,
	},
	{
		ID:          PrincipleTransparency,
		Name:        "Transparency",
		Description: "Actions and their intent must be described clearly enough to be reviewed.",
		Category:    CategoryTransparency,
		Weight:      0.8,
		Mandatory:   false,
	},
	{
		ID:          PrincipleFairness,
		Name:        "Fairness",
		Description: "Treat all affected parties equitably and avoid discriminatory outcomes.",
		Category:    CategoryFairness,
		Weight:      0.8,
		Mandatory:   false,
	},
	{
		ID:          PrincipleAccountability,
		Name:        "Accountability",
		Description: "Every decision must be attributable, audited, and reconstructible after the fact.",
		Category:    CategoryIntegrity,
		Weight:      0.75,
		Mandatory:   false,
	},
}

// CorePrinciples returns the catalog of ethical principles. A fresh copy is
// returned on every call so no caller can observe or force mutation of the
// canonical set. This function cannot fail.
func CorePrinciples() []Principle {
	out := make([]Principle, len(corePrinciples))
	copy(out, corePrinciples)
	return out
}

// PrincipleByID returns the principle with the given id from the catalog.
// The second return value is false when no such principle exists.
func PrincipleByID(id string) (Principle, bool) {
	for _, p := range corePrinciples {
		if p.ID == id {
			return p, true
		}
	}
	return Principle{}, false
}
