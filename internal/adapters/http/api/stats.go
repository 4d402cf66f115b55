// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/tapcircle/internal/domain/model"
)

// StatsHandler handles player-statistics requests.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new statistics handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// recordSessionRequest mirrors the POST /stats/record body. SessionID is
// optional; when present it is used for replay suppression.
type recordSessionRequest struct {
	SessionID       string `json:"session_id"`
	Initials        string `json:"initials"`
	Score           int    `json:"score"`
	CirclesTapped   int    `json:"circles_tapped"`
	PlaytimeSeconds int    `json:"playtime_seconds"`
}

type recordSessionResponse struct {
	Duplicate bool               `json:"duplicate"`
	Stats     *model.PlayerStats `json:"stats,omitempty"`
}

// HandleRecord handles POST /stats/record requests.
func (h *StatsHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}

	// Replaying a session would double count, so suppress known ids
	// before touching the aggregator.
	if req.SessionID != "" && h.deps.SeenAndRecord(r.Context(), req.SessionID) {
		writeJSON(w, http.StatusOK, recordSessionResponse{Duplicate: true})
		return
	}

	record, err := h.deps.RecordSession(r.Context(), model.Session{
		Initials:        req.Initials,
		Score:           req.Score,
		CirclesTapped:   req.CirclesTapped,
		PlaytimeSeconds: req.PlaytimeSeconds,
	})
	if err != nil {
		if req.SessionID != "" {
			// The session was not recorded; allow the client to retry.
			h.deps.Unrecord(r.Context(), req.SessionID)
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordSessionResponse{Stats: &record})
}

// HandlePlayerStats handles GET /stats/{initials} requests.
func (h *StatsHandler) HandlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	initials := strings.TrimPrefix(r.URL.Path, "/stats/")
	if initials == "" || strings.Contains(initials, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing initials", ErrBadRequest))
		return
	}

	record, err := h.deps.PlayerStats(r.Context(), initials)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleAllStats handles GET /stats requests. A whole-partition scan;
// intended for admin listings, not hot paths.
func (h *StatsHandler) HandleAllStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	records, err := h.deps.AllPlayerStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
