package simulate

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/tapcircle/pkg/logger"
)

// Score distribution parameters. Most sessions land in the casual band;
// a small tail of practiced players produces board-topping scores.
const (
	casualScoreMax    = 400
	regularScoreMin   = 300
	regularScoreRange = 500
	skilledScoreMin   = 700
	skilledScoreRange = 800
	expertScoreMin    = 1400
	expertScoreRange  = 1600

	playerBandDivisor = 8
	initialsAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	initialsLength    = 3

	tapsPerHundredPoints = 12
	minPlaytimeSeconds   = 15
	playtimeSecondsRange = 90
)

// Player band cases for the score distribution.
const (
	caseCasualLow = iota
	caseCasualHigh
	caseRegularLow
	caseRegularMid
	caseRegularHigh
	caseSkilledLow
	caseSkilledHigh
	caseExpert
)

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateSessions creates the configured number of sessions spread over
// a fixed pool of player initials.
func generateSessions(ctx context.Context, config *Config, stats *Stats) []Session {
	logger.Get().Info(ctx, "generating sessions",
		logger.Int("sessions", config.Sessions),
		logger.Int("players", config.NumPlayers))

	players := make([]string, config.NumPlayers)
	for i := range players {
		players[i] = randomInitials()
	}

	sessions := make([]Session, config.Sessions)
	for i := range sessions {
		sessions[i] = generateSingleSession(players[randomInt(len(players))])
	}

	stats.SessionsGenerated = len(sessions)
	logger.Get().Info(ctx, "generated sessions", logger.Int("count", len(sessions)))
	return sessions
}

// generateSingleSession builds one session with a plausible score, tap
// count, and playtime for the given player.
func generateSingleSession(initials string) Session {
	score := generateVariedScore()
	return Session{
		SessionID:       uuid.New().String(),
		Initials:        initials,
		Score:           score,
		CirclesTapped:   score/100*tapsPerHundredPoints + randomInt(tapsPerHundredPoints),
		PlaytimeSeconds: minPlaytimeSeconds + randomInt(playtimeSecondsRange),
	}
}

// generateVariedScore draws a score from a banded distribution so the
// leaderboard and percentile math see a realistic spread.
func generateVariedScore() int {
	switch randomInt(playerBandDivisor) {
	case caseCasualLow, caseCasualHigh:
		return randomInt(casualScoreMax)
	case caseRegularLow, caseRegularMid, caseRegularHigh:
		return regularScoreMin + randomInt(regularScoreRange)
	case caseSkilledLow, caseSkilledHigh:
		return skilledScoreMin + randomInt(skilledScoreRange)
	case caseExpert:
		return expertScoreMin + randomInt(expertScoreRange)
	default:
		return randomInt(casualScoreMax)
	}
}

// randomInitials returns a random three-letter player identifier.
func randomInitials() string {
	b := make([]byte, initialsLength)
	for i := range b {
		b[i] = initialsAlphabet[randomInt(len(initialsAlphabet))]
	}
	return string(b)
}
