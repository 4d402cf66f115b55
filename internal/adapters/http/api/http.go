// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/tapcircle/internal/adapters/repository"
	"github.com/okian/tapcircle/internal/domain/leaderboard"
	"github.com/okian/tapcircle/internal/domain/model"
	"github.com/okian/tapcircle/internal/domain/stats"
	"github.com/okian/tapcircle/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Leaderboard operations.
	SubmitScore(ctx context.Context, gameMode, initials string, score int) (model.HighScore, error)
	TopScores(ctx context.Context, gameMode string, count int) ([]types.Entry, error)
	IsHighScore(ctx context.Context, gameMode string, score int) (bool, error)
	Rank(ctx context.Context, gameMode string, score int) (int, error)
	DeleteScore(ctx context.Context, gameMode, key string) error

	// Statistics operations.
	RecordSession(ctx context.Context, session model.Session) (model.PlayerStats, error)
	PlayerStats(ctx context.Context, initials string) (model.PlayerStats, error)
	AllPlayerStats(ctx context.Context) ([]model.PlayerStats, error)

	// Session-id idempotency tracking.
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	monitorHandler *MonitorHandler
	scoresHandler  *ScoresHandler
	statsHandler   *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, monitorProvider MonitorProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		monitorHandler: NewMonitorHandler(monitorProvider),
		scoresHandler:  NewScoresHandler(deps, maxLimit),
		statsHandler:   NewStatsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/monitor", MetricsMiddleware(s.monitorHandler.HandleMonitor, "monitor"))
	mux.HandleFunc("/scores/highscore", MetricsMiddleware(s.scoresHandler.HandleHighScore, "highscore"))
	mux.HandleFunc("/scores/rank", MetricsMiddleware(s.scoresHandler.HandleRank, "rank"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandleScores, "scores"))
	mux.HandleFunc("/stats/record", MetricsMiddleware(s.statsHandler.HandleRecord, "record"))
	mux.HandleFunc("/stats/", MetricsMiddleware(s.statsHandler.HandlePlayerStats, "player_stats"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleAllStats, "all_stats"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain error kinds onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leaderboard.ErrValidation), errors.Is(err, stats.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, leaderboard.ErrConflict), errors.Is(err, repository.ErrKeyExists):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
