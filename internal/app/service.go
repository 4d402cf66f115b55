// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/okian/tapcircle/internal/adapters/repository"
	"github.com/okian/tapcircle/internal/config"
	"github.com/okian/tapcircle/internal/domain/dedupe"
	"github.com/okian/tapcircle/internal/domain/leaderboard"
	"github.com/okian/tapcircle/internal/domain/model"
	"github.com/okian/tapcircle/internal/domain/stats"
	"github.com/okian/tapcircle/internal/domain/types"
	"github.com/okian/tapcircle/pkg/logger"
	"github.com/okian/tapcircle/pkg/metrics"
)

// Service implements the API dependencies for the game backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	board      *leaderboard.Service
	aggregator *stats.Aggregator
	deduper    dedupe.Deduper

	// Configuration
	storeBackend       string
	redisAddr          string
	redisPassword      string
	redisDB            int
	redisKeyPrefix     string
	highScoreThreshold int
	defaultTopCount    int
	dedupeSize         int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects a table store, bypassing backend construction.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreBackend selects the table store backend by name.
func WithStoreBackend(backend string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
	}
}

// WithRedis sets the Redis connection parameters.
func WithRedis(addr, password string, db int) Option {
	return func(s *Service) {
		if addr != "" {
			s.redisAddr = addr
		}
		s.redisPassword = password
		s.redisDB = db
	}
}

// WithRedisKeyPrefix namespaces all Redis keys.
func WithRedisKeyPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.redisKeyPrefix = prefix
		}
	}
}

// WithHighScoreThreshold sets the board size used for qualification checks.
func WithHighScoreThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.highScoreThreshold = n
		}
	}
}

// WithDefaultTopCount sets the fallback count for top-score reads.
func WithDefaultTopCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTopCount = n
		}
	}
}

// WithDedupeSize sets the size of the session-id deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend:       config.StoreMemory,
		redisAddr:          "localhost:6379",
		redisKeyPrefix:     "tapcircle",
		highScoreThreshold: leaderboard.DefaultHighScoreThreshold,
		defaultTopCount:    leaderboard.DefaultTopCount,
		dedupeSize:         50_000,
		logger:             nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting game backend...")

	if s.store == nil {
		store, err := s.buildStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}

	s.board = leaderboard.New(s.store,
		leaderboard.WithHighScoreThreshold(s.highScoreThreshold),
		leaderboard.WithDefaultTopCount(s.defaultTopCount),
	)
	s.aggregator = stats.New(s.store)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	s.started = true
	s.logger.Info(ctx, "game backend started",
		logger.String("storeBackend", s.storeBackend),
		logger.Int("highScoreThreshold", s.highScoreThreshold),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

func (s *Service) buildStore(ctx context.Context) (repository.Store, error) {
	switch s.storeBackend {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.redisAddr,
			Password: s.redisPassword,
			DB:       s.redisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("%w: ping %s: %v", repository.ErrUnavailable, s.redisAddr, err)
		}
		s.logger.Info(ctx, "using redis table store", logger.String("addr", s.redisAddr))
		return repository.NewRedisTable(client, repository.WithKeyPrefix(s.redisKeyPrefix)), nil
	default:
		s.logger.Info(ctx, "using in-memory table store")
		return repository.NewMemTable(), nil
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping game backend...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "game backend stopped")
}

// SubmitScore validates and stores one leaderboard score.
func (s *Service) SubmitScore(ctx context.Context, gameMode, initials string, score int) (model.HighScore, error) {
	return s.board.Submit(ctx, gameMode, initials, score)
}

// TopScores returns up to count ranked entries for a game mode.
func (s *Service) TopScores(ctx context.Context, gameMode string, count int) ([]types.Entry, error) {
	entries, err := s.board.TopScores(ctx, gameMode, count)
	if err != nil {
		return nil, err
	}

	ranked := make([]types.Entry, len(entries))
	for i, entry := range entries {
		ranked[i] = types.Entry{
			Rank:           i + 1,
			PlayerInitials: entry.PlayerInitials,
			Score:          entry.Score,
			GameMode:       entry.GameMode,
			ScoreDate:      entry.ScoreDate,
			SortKey:        entry.SortKey,
		}
	}
	return ranked, nil
}

// IsHighScore reports whether score would enter the top board for a mode.
func (s *Service) IsHighScore(ctx context.Context, gameMode string, score int) (bool, error) {
	return s.board.IsHighScore(ctx, gameMode, score)
}

// Rank projects the 1-based board position score would take.
func (s *Service) Rank(ctx context.Context, gameMode string, score int) (int, error) {
	return s.board.Rank(ctx, gameMode, score)
}

// DeleteScore removes one leaderboard row by sort key. Admin path.
func (s *Service) DeleteScore(ctx context.Context, gameMode, key string) error {
	return s.board.Delete(ctx, gameMode, key)
}

// RecordSession folds a game session into the player's statistics.
func (s *Service) RecordSession(ctx context.Context, session model.Session) (model.PlayerStats, error) {
	record, err := s.aggregator.RecordSession(ctx, session)
	if err != nil {
		return model.PlayerStats{}, err
	}
	return record, nil
}

// PlayerStats returns the statistics record for one player.
func (s *Service) PlayerStats(ctx context.Context, initials string) (model.PlayerStats, error) {
	return s.aggregator.GetStats(ctx, initials)
}

// AllPlayerStats returns every player's statistics record.
func (s *Service) AllPlayerStats(ctx context.Context) ([]model.PlayerStats, error) {
	records, err := s.aggregator.GetAllStats(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateTotalPlayers(len(records))
	return records, nil
}

// SeenAndRecord atomically checks if a session id was seen and records it
// if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSessionDuplicate()
	}
	return seen
}

// Unrecord removes a session id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	monitoring := map[string]interface{}{
		"started":            s.started,
		"storeBackend":       s.storeBackend,
		"highScoreThreshold": s.highScoreThreshold,
		"dedupeSize":         s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		if players, err := s.store.Count(ctx, stats.DefaultPartition); err == nil {
			monitoring["totalPlayers"] = players
			metrics.UpdateTotalPlayers(players)
		}
		monitoring["dedupeEntries"] = s.deduper.Size()
	}

	return monitoring
}
