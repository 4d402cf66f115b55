// Package leaderboard implements leaderboard semantics on top of the
// partitioned table store: score submission with collision-safe key
// derivation, top-N retrieval, high-score qualification, and rank
// projection. Partitions are game modes; scores are only ever compared
// within one mode.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/tapcircle/internal/adapters/repository"
	"github.com/okian/tapcircle/internal/domain/model"
	"github.com/okian/tapcircle/internal/domain/sortkey"
	"github.com/okian/tapcircle/pkg/metrics"
)

// Default policy constants.
const (
	// DefaultTopCount is used when a caller asks for a non-positive
	// number of top scores.
	DefaultTopCount = 10

	// DefaultHighScoreThreshold is the board size a score must crack to
	// qualify as a high score.
	DefaultHighScoreThreshold = 10

	maxGameModeLength = 50
	initialsLength    = 3
)

// Service exposes leaderboard operations for one table store.
type Service struct {
	store     repository.Store
	threshold int
	topCount  int
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithHighScoreThreshold sets the board size used by IsHighScore.
func WithHighScoreThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithDefaultTopCount sets the fallback count for TopScores.
func WithDefaultTopCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topCount = n
		}
	}
}

// New constructs a Service over the given store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		threshold: DefaultHighScoreThreshold,
		topCount:  DefaultTopCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores one score, deriving the sort key so the
// partition scan order stays score-descending. On a key collision the key
// is regenerated once with millisecond precision; a second collision
// surfaces ErrConflict.
func (s *Service) Submit(ctx context.Context, gameMode, initials string, score int) (model.HighScore, error) {
	mode, err := NormalizeGameMode(gameMode)
	if err != nil {
		return model.HighScore{}, err
	}
	ini, err := NormalizeInitials(initials)
	if err != nil {
		return model.HighScore{}, err
	}
	if score < 0 || score > sortkey.MaxScore {
		return model.HighScore{}, fmt.Errorf("%w: score must be between 0 and %d", ErrValidation, sortkey.MaxScore)
	}

	entry := model.HighScore{
		GameMode:       mode,
		PlayerInitials: ini,
		Score:          score,
		ScoreDate:      time.Now().UTC(),
	}

	key, err := sortkey.Encode(score, entry.ScoreDate, "")
	if err != nil {
		return model.HighScore{}, err
	}
	entry.SortKey = key

	if err := s.insert(ctx, &entry); err == nil {
		metrics.RecordScoreSubmitted()
		return entry, nil
	} else if !errors.Is(err, repository.ErrKeyExists) {
		return model.HighScore{}, err
	}

	// Collision: regenerate with millisecond precision and retry once.
	metrics.RecordSubmitRetry()
	key, err = sortkey.Encode(score, time.Now().UTC(), "", sortkey.WithMillisecondPrecision())
	if err != nil {
		return model.HighScore{}, err
	}
	entry.SortKey = key
	if err := s.insert(ctx, &entry); err != nil {
		if errors.Is(err, repository.ErrKeyExists) {
			return model.HighScore{}, fmt.Errorf("%w: sort key collided twice for %s/%s", ErrConflict, mode, ini)
		}
		return model.HighScore{}, err
	}
	metrics.RecordScoreSubmitted()
	return entry, nil
}

func (s *Service) insert(ctx context.Context, entry *model.HighScore) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal high score: %w", err)
	}
	return s.store.Insert(ctx, entry.GameMode, entry.SortKey, value)
}

// TopScores returns up to count entries ordered by descending score.
// A non-positive count falls back to the configured default.
func (s *Service) TopScores(ctx context.Context, gameMode string, count int) ([]model.HighScore, error) {
	mode, err := NormalizeGameMode(gameMode)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = s.topCount
	}

	rows, err := s.store.ScanAscending(ctx, mode, count)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// IsHighScore reports whether score would enter the top board. It is
// always true while the board has fewer entries than the threshold.
func (s *Service) IsHighScore(ctx context.Context, gameMode string, score int) (bool, error) {
	mode, err := NormalizeGameMode(gameMode)
	if err != nil {
		return false, err
	}

	rows, err := s.store.ScanAscending(ctx, mode, s.threshold)
	if err != nil {
		return false, err
	}
	if len(rows) < s.threshold {
		return true, nil
	}

	// Scan order is score-descending, so the last row is the current
	// threshold holder.
	cutoff, err := sortkey.Score(rows[len(rows)-1].Key)
	if err != nil {
		return false, err
	}
	return score > cutoff, nil
}

// Rank projects the 1-based position score would take on the board right
// now. A full-partition scan by design; partitions stay small per mode.
func (s *Service) Rank(ctx context.Context, gameMode string, score int) (int, error) {
	mode, err := NormalizeGameMode(gameMode)
	if err != nil {
		return 0, err
	}

	rows, err := s.store.ScanAscending(ctx, mode, 0)
	if err != nil {
		return 0, err
	}

	rank := 1
	for _, row := range rows {
		existing, err := sortkey.Score(row.Key)
		if err != nil {
			return 0, err
		}
		if score >= existing {
			return rank, nil
		}
		rank++
	}
	return len(rows) + 1, nil
}

// Delete removes one entry by its sort key. Admin-only path; regular
// submissions never mutate or remove rows.
func (s *Service) Delete(ctx context.Context, gameMode, key string) error {
	mode, err := NormalizeGameMode(gameMode)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, mode, key)
}

func decodeRows(rows []repository.Row) ([]model.HighScore, error) {
	entries := make([]model.HighScore, 0, len(rows))
	for _, row := range rows {
		var entry model.HighScore
		if err := json.Unmarshal(row.Value, &entry); err != nil {
			return nil, fmt.Errorf("decode high score %s/%s: %w", row.Partition, row.Key, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// NormalizeInitials uppercases initials and enforces the exactly-three
// alphanumeric characters rule.
func NormalizeInitials(initials string) (string, error) {
	ini := strings.ToUpper(strings.TrimSpace(initials))
	if len(ini) != initialsLength {
		return "", fmt.Errorf("%w: initials must be exactly %d characters", ErrValidation, initialsLength)
	}
	for _, r := range ini {
		if !isAlphanumeric(r) {
			return "", fmt.Errorf("%w: initials must contain only letters and numbers", ErrValidation)
		}
	}
	return ini, nil
}

// NormalizeGameMode validates a game mode, defaulting an empty value.
func NormalizeGameMode(gameMode string) (string, error) {
	mode := strings.TrimSpace(gameMode)
	if mode == "" {
		return model.DefaultGameMode, nil
	}
	if len(mode) > maxGameModeLength {
		return "", fmt.Errorf("%w: game mode cannot exceed %d characters", ErrValidation, maxGameModeLength)
	}
	for _, r := range mode {
		if !isAlphanumeric(r) && r != '_' && r != '-' {
			return "", fmt.Errorf("%w: game mode can only contain letters, numbers, underscores, and hyphens", ErrValidation)
		}
	}
	return mode, nil
}

func isAlphanumeric(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
