// Aegisd is the ethics clearance engine for autonomous agents.
//
// It evaluates every proposed action, plan, goal, skill use, research
// activity, and self-modification request against an immutable principle
// catalog, records each decision in an append-only audit log, and exposes
// the evaluation contracts over HTTP.
//
// Usage:
//
//	# Start the server with default configuration
//	aegisd run
//
//	# Start with a custom configuration file
//	aegisd run --config /etc/aegis/config.yaml
//
//	# Show version information
//	aegisd version
package main

func main() {
	Execute()
}
