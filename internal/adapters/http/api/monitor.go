// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// MonitorProvider defines the interface for getting service statistics.
type MonitorProvider interface {
	GetStats() map[string]interface{}
}

// MonitorHandler handles service-monitoring requests.
type MonitorHandler struct {
	provider MonitorProvider
}

// NewMonitorHandler creates a new monitoring handler.
func NewMonitorHandler(provider MonitorProvider) *MonitorHandler {
	return &MonitorHandler{provider: provider}
}

// HandleMonitor handles GET /monitor requests.
func (h *MonitorHandler) HandleMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(h.provider.GetStats())
}
