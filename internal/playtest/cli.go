package playtest

import "io"

// ShowHelp prints usage information for the playtest tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Roshambo Playtest Tool
======================

Plays many concurrent sessions against a running service and verifies
every scoreboard.

Usage:
  go run ./cmd/playtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of sessions to create (default 100)
  -rounds int
        Rounds played in each session (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -resend float
        Fraction of rounds resent to check idempotency (default 0.1)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every round
  -help
        Show this help message

Examples:
  # Test with default settings
  go run ./cmd/playtest

  # Heavier run against another host
  go run ./cmd/playtest -sessions 1000 -rounds 200 -workers 32 -url http://localhost:8080
`)
}
