// Turnstile is a per-client sliding-window admission controller.
//
// The turnstile command drives the limiter from the command line: it checks
// client identifiers against a configured limit, simulates concurrent load,
// inspects the decision audit log and validates configuration files.
//
// Usage:
//
//	# Check identifiers against the default limit (5 per 60s)
//	turnstile check 10.0.0.7 10.0.0.7 10.0.0.8
//
//	# Read identifiers from stdin, one per line
//	cat clients.txt | turnstile check --config turnstile.yaml
//
//	# Simulate 20 clients making 50 simultaneous calls each
//	turnstile bench --clients 20 --calls 50
//
//	# List denied decisions from the SQLite audit log
//	turnstile audit --denied --since 1h
//
//	# Validate a configuration file
//	turnstile validate --config turnstile.yaml
package main

func main() {
	Execute()
}
