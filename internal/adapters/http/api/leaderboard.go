package api

import (
	"context"
	"net/http"

	"github.com/okian/mazeball/internal/domain/model"
	"github.com/okian/mazeball/internal/domain/types"
	"github.com/okian/mazeball/pkg/logger"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	FetchAll(ctx context.Context) types.Leaderboards
	Sync(ctx context.Context, deviceID string, scores []model.Score) (types.Leaderboards, error)
}

// LeaderboardHandler serves the leaderboard read and sync endpoints.
type LeaderboardHandler struct {
	deps   LeaderboardDependencies
	logger logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, logger: log}
}

// HandleGetAll handles GET /leaderboard/all.
func (h *LeaderboardHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.FetchAll(r.Context()))
}

// HandleSync handles POST /leaderboard/sync and answers with the merged leaderboards.
func (h *LeaderboardHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync"
	var req types.SyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, h.logger, op, err)
		return
	}
	boards, err := h.deps.Sync(r.Context(), req.DeviceID, req.ModelScores())
	if err != nil {
		respondError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}
