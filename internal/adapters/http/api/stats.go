package api

import (
	"net/http"

	service "github.com/okian/mazeball/internal/app"
)

// StatsSource reports the cached leaderboard counters.
type StatsSource interface {
	GetStats() service.Stats
}

// StatsHandler serves GET /stats: the number of levels holding entries, all
// cached entries, the named ones that /leaderboard/all publishes and the
// devices with a nickname. Reading it also refreshes the matching gauges.
type StatsHandler struct {
	source StatsSource
}

// NewStatsHandler returns a handler reading counters from source.
func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

// HandleStats writes the counters. They change with every sync, so the
// response is never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.source.GetStats())
}
