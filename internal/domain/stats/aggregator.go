// Package stats maintains cumulative per-player statistics. Each player
// has one record in a fixed partition, mutated by a read-modify-write
// cycle on every recorded session; writes for the same player are
// serialized by a per-initials mutex so the running average and counters
// never lose updates.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/tapcircle/internal/adapters/repository"
	"github.com/okian/tapcircle/internal/domain/leaderboard"
	"github.com/okian/tapcircle/internal/domain/model"
	"github.com/okian/tapcircle/pkg/metrics"
)

// DefaultPartition holds every player-stats record; initials are the row key.
const DefaultPartition = "GameStats"

const percentileRoundFactor = 10 // round to 1 decimal place

// Aggregator owns the statistics records in one store partition.
type Aggregator struct {
	store     repository.Store
	partition string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithPartition overrides the partition holding the stats records.
func WithPartition(name string) Option {
	return func(a *Aggregator) {
		if name != "" {
			a.partition = name
		}
	}
}

// New constructs an Aggregator over the given store.
func New(store repository.Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:     store,
		partition: DefaultPartition,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// lockFor returns the mutex serializing writes for one player.
func (a *Aggregator) lockFor(initials string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[initials]
	if !ok {
		l = &sync.Mutex{}
		a.locks[initials] = l
	}
	return l
}

// RecordSession folds one finished game session into the player's record
// and returns the updated statistics. Replaying the same session double
// counts; at-most-once delivery is the transport layer's job.
func (a *Aggregator) RecordSession(ctx context.Context, session model.Session) (model.PlayerStats, error) {
	initials, err := leaderboard.NormalizeInitials(session.Initials)
	if err != nil {
		return model.PlayerStats{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if session.Score < 0 || session.CirclesTapped < 0 || session.PlaytimeSeconds < 0 {
		return model.PlayerStats{}, fmt.Errorf("%w: score, circles tapped, and playtime must not be negative", ErrValidation)
	}

	start := time.Now()
	defer func() {
		metrics.RecordSessionLatency(float64(time.Since(start).Milliseconds()))
	}()

	lock := a.lockFor(initials)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	record, err := a.fetch(ctx, initials)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return model.PlayerStats{}, err
		}
		record = model.PlayerStats{
			Initials:    initials,
			FirstPlayed: now,
		}
	}

	record.TotalGames++
	record.TotalCirclesTapped += session.CirclesTapped
	record.TotalPlaytimeSeconds += session.PlaytimeSeconds
	record.LastPlayed = now

	if session.Score > record.HighestScore {
		record.HighestScore = session.Score
	}

	// Incremental running mean; exact because same-player writes are
	// serialized above.
	record.AverageScore = (record.AverageScore*float64(record.TotalGames-1) + float64(session.Score)) / float64(record.TotalGames)

	histogram := ParseHistogram(record.ScoreDistribution)
	histogram.Record(session.Score)
	record.ScoreDistribution = histogram.String()

	rank, err := a.percentileRank(ctx, record.HighestScore)
	if err != nil {
		return model.PlayerStats{}, err
	}
	record.PercentileRank = rank

	if err := a.upsert(ctx, record); err != nil {
		return model.PlayerStats{}, err
	}
	metrics.RecordSessionRecorded()
	return record, nil
}

// GetStats returns the record for one player.
// Returns repository.ErrNotFound for unknown initials.
func (a *Aggregator) GetStats(ctx context.Context, initials string) (model.PlayerStats, error) {
	normalized, err := leaderboard.NormalizeInitials(initials)
	if err != nil {
		return model.PlayerStats{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return a.fetch(ctx, normalized)
}

// GetAllStats returns every player record. A whole-partition scan;
// callers should treat it as expensive.
func (a *Aggregator) GetAllStats(ctx context.Context) ([]model.PlayerStats, error) {
	rows, err := a.store.ScanAscending(ctx, a.partition, 0)
	if err != nil {
		return nil, err
	}
	records := make([]model.PlayerStats, 0, len(rows))
	for _, row := range rows {
		var record model.PlayerStats
		if err := json.Unmarshal(row.Value, &record); err != nil {
			return nil, fmt.Errorf("decode player stats %s/%s: %w", row.Partition, row.Key, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// percentileRank counts players whose best score is strictly below
// highestScore. The population is a point-in-time snapshot; staleness
// under concurrent writes from other players is accepted.
func (a *Aggregator) percentileRank(ctx context.Context, highestScore int) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPercentileScanLatency(float64(time.Since(start).Milliseconds()))
	}()

	all, err := a.GetAllStats(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) <= 1 {
		// Sole player convention.
		return 100.0, nil
	}

	lower := 0
	for _, record := range all {
		if record.HighestScore < highestScore {
			lower++
		}
	}
	rank := float64(lower) / float64(len(all)) * 100
	return math.Round(rank*percentileRoundFactor) / percentileRoundFactor, nil
}

func (a *Aggregator) fetch(ctx context.Context, initials string) (model.PlayerStats, error) {
	value, err := a.store.Get(ctx, a.partition, initials)
	if err != nil {
		return model.PlayerStats{}, err
	}
	var record model.PlayerStats
	if err := json.Unmarshal(value, &record); err != nil {
		return model.PlayerStats{}, fmt.Errorf("decode player stats %s: %w", initials, err)
	}
	return record, nil
}

func (a *Aggregator) upsert(ctx context.Context, record model.PlayerStats) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal player stats %s: %w", record.Initials, err)
	}
	return a.store.Upsert(ctx, a.partition, record.Initials, value)
}
