package simulate

import (
	"fmt"
	"os"

	"github.com/okian/tapcircle/pkg/logger"
)

// SetupLogging initializes the shared logger for the CLI.
func SetupLogging() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Tapcircle Traffic Simulator
===========================

Generates game sessions for a pool of players and drives them through a
running tapcircle instance: sessions to /stats/record, scores to /scores,
then reads back the leaderboard and player statistics to verify.

Usage:
  go run cmd/simulate/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -players int
        Number of distinct players to simulate (default 20)
  -sessions int
        Number of game sessions to generate (default 500)
  -mode string
        Game mode to submit scores under (default "Default")
  -top int
        Number of top entries to fetch from the leaderboard (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Optional output file for generated sessions (JSON)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/simulate/main.go

  # Heavier run against a non-default port
  go run cmd/simulate/main.go -sessions 5000 -workers 16 -url http://localhost:9090

  # Keep the generated sessions for replay
  go run cmd/simulate/main.go -sessions 1000 -output sessions.json
`)
}
