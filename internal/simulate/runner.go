package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/okian/tapcircle/pkg/logger"
)

const (
	outputFilePermission = 0600
	percentMultiplier    = 100.0
)

// Run executes one complete simulation against a running service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	if config.Verbose {
		_ = logger.SetLevelString("debug")
	}

	logger.Get().Info(ctx, "starting tapcircle traffic simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("sessions", config.Sessions),
		logger.String("gameMode", config.GameMode),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sessions := generateSessions(ctx, config, stats)

	if err := submitSessions(ctx, config, sessions, stats); err != nil {
		return fmt.Errorf("session submission failed: %w", err)
	}

	if err := submitScores(ctx, config, sessions, stats); err != nil {
		return fmt.Errorf("score submission failed: %w", err)
	}

	board, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	players, err := getAllPlayers(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("player stats retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, sessions, board, players); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveSessionsToFile(ctx, config, sessions); err != nil {
			logger.Get().Warn(ctx, "failed to save sessions to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service responds on its health endpoint.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifyResults cross-checks what the service reports against what was
// submitted. The checks are necessarily loose: other clients may be
// writing at the same time, so only lower bounds and ordering are asserted.
func verifyResults(ctx context.Context, sessions []Session, board []boardEntry, players []playerRecord) error {
	// Leaderboard must be score-descending.
	for i := 1; i < len(board); i++ {
		if board[i].Score > board[i-1].Score {
			return fmt.Errorf("leaderboard out of order at rank %d: %d above %d",
				board[i].Rank, board[i-1].Score, board[i].Score)
		}
	}

	// Every distinct player we generated must have a statistics record.
	generated := make(map[string]int)
	for _, session := range sessions {
		generated[session.Initials]++
	}
	recorded := make(map[string]int)
	for _, player := range players {
		recorded[player.Initials] = player.TotalGames
	}
	for initials, count := range generated {
		if recorded[initials] < count {
			return fmt.Errorf("player %s: %d sessions submitted but only %d recorded",
				initials, count, recorded[initials])
		}
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("boardEntries", len(board)),
		logger.Int("playersVerified", len(generated)))
	return nil
}

// saveSessionsToFile writes the generated sessions as a JSON array.
func saveSessionsToFile(ctx context.Context, config *Config, sessions []Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := os.WriteFile(config.OutputFile, data, outputFilePermission); err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}

	logger.Get().Info(ctx, "sessions saved to file", logger.String("filename", config.OutputFile))
	return nil
}

// displayFinalStats logs the run summary.
func displayFinalStats(stats *Stats) {
	var successRate, sessionsPerSecond float64

	if stats.SessionsSubmitted > 0 {
		successRate = float64(stats.SessionsSuccessful) / float64(stats.SessionsSubmitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		sessionsPerSecond = float64(stats.SessionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("sessionsGenerated", stats.SessionsGenerated),
		logger.Int("sessionsSubmitted", stats.SessionsSubmitted),
		logger.Int("sessionsSuccessful", stats.SessionsSuccessful),
		logger.Int("sessionsDuplicate", stats.SessionsDuplicate),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("playersSeen", stats.PlayersSeen),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("sessionsPerSecond", sessionsPerSecond))
}
