// Package ethics defines the core vocabulary of the clearance engine: the
// immutable principle catalog, the evaluation subjects (actions, plans,
// goals, skills, research activities, and self-modification requests), and
// the clearance decision produced for each of them.
//
// # Clearance Model
//
// Every evaluation produces exactly one Clearance with a level from a
// closed set:
//
//   - Permitted - no violations, no concerns
//   - PermittedWithConcerns - soft concerns present, execution proceeds
//   - RequiresHumanApproval - conditional block, may proceed after authorization
//   - Denied - absolute block
//
// The permitted flag is derived from the level at construction time:
// only Permitted and PermittedWithConcerns yield permitted == true.
// RequiresHumanApproval and Denied both block, distinguished only by level,
// because "requires approval" is a conditional block while "denied" is
// absolute.
//
// # Principle Catalog
//
// The catalog is a fixed list of ten principles created once at process
// start. CorePrinciples returns a defensive copy on every call; no mutation
// API exists, so no caller can alter the canonical set at runtime.
//
// Violations are hard, blocking breaches of a principle. Concerns are soft
// flags that may still force escalation depending on their level, but never
// block by themselves.
package ethics
