// Package engine implements the evaluation orchestrator.
//
// The Engine holds the decision trees for every evaluation kind: actions,
// plans, goals, skill usage, research activities, and self-modification
// requests. Each evaluation is a pure function of its inputs plus one
// append to the audit log; the clearance is computed first and returned
// only after the audit write succeeds.
//
// Three failure classes are kept distinct. Denied and
// RequiresHumanApproval clearances are successful evaluations with a
// negative outcome. Input validation failures reject before any policy
// logic runs. Internal failures (reasoner errors, panics, audit write
// failures) surface as evaluation errors and are never converted into a
// permissive clearance.
package engine
