// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ScoresHandler handles leaderboard requests.
type ScoresHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewScoresHandler creates a new leaderboard handler.
func NewScoresHandler(deps Dependencies, maxLimit int) *ScoresHandler {
	return &ScoresHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// submitScoreRequest mirrors the POST /scores body.
type submitScoreRequest struct {
	PlayerInitials string `json:"player_initials"`
	Score          int    `json:"score"`
	GameMode       string `json:"game_mode"`
}

// HandleScores dispatches /scores by method: POST submits a score, GET
// returns the top of the board, DELETE removes one row (admin path).
func (h *ScoresHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleTop(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ScoresHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}

	entry, err := h.deps.SubmitScore(r.Context(), req.GameMode, req.PlayerInitials, req.Score)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *ScoresHandler) handleTop(w http.ResponseWriter, r *http.Request) {
	count := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be an integer", ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit cannot exceed %d", ErrBadRequest, h.maxLimit))
			return
		}
		count = n
	}

	entries, err := h.deps.TopScores(r.Context(), r.URL.Query().Get("mode"), count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ScoresHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing key", ErrBadRequest))
		return
	}

	if err := h.deps.DeleteScore(r.Context(), r.URL.Query().Get("mode"), key); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleHighScore handles GET /scores/highscore?mode=M&score=N requests.
func (h *ScoresHandler) HandleHighScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	score, ok := parseScore(w, r)
	if !ok {
		return
	}

	qualifies, err := h.deps.IsHighScore(r.Context(), r.URL.Query().Get("mode"), score)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"qualifies": qualifies})
}

// HandleRank handles GET /scores/rank?mode=M&score=N requests.
func (h *ScoresHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	score, ok := parseScore(w, r)
	if !ok {
		return
	}

	rank, err := h.deps.Rank(r.Context(), r.URL.Query().Get("mode"), score)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rank": rank})
}

func parseScore(w http.ResponseWriter, r *http.Request) (int, bool) {
	score, err := strconv.Atoi(r.URL.Query().Get("score"))
	if err != nil || score < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: score must be a non-negative integer", ErrBadRequest))
		return 0, false
	}
	return score, true
}
