// Package enforce gates arbitrary executors behind ethics evaluation.
//
// A Guard wraps an inner executor and forwards an action only when the
// evaluation permits it. It is generic over the action and result types so
// any executor can be wrapped without the gating logic being bypassable
// through subtyping. Any non-success from the evaluator blocks: a failed
// evaluation is never treated as a permit.
package enforce
