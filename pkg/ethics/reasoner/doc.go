// Package reasoner provides the pluggable pattern-detection strategy used by
// the evaluation engine. The default KeywordReasoner scans action
// descriptions against four disjoint keyword classes (harmful, high-risk,
// privacy-sensitive, deceptive) plus a sensitive-research-topic class, all
// kept as data so they can be replaced without touching the decision tree.
//
// Pattern sets can be loaded from a YAML file through FileSource and
// hot-reloaded on change through Watcher, so operators can tune the keyword
// lists without restarting the engine.
//
// Alternative reasoners (e.g. model-based classifiers) implement the
// Reasoner interface; no other component inspects keywords directly.
package reasoner
