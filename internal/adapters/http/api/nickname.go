package api

import (
	"context"
	"net/http"

	"github.com/okian/mazeball/internal/domain/types"
	"github.com/okian/mazeball/pkg/logger"
)

// NicknameDependencies defines the interface for nickname changes.
type NicknameDependencies interface {
	Rename(ctx context.Context, deviceID, newNickname string) error
}

// NicknameHandler serves POST /user/nickname.
type NicknameHandler struct {
	deps   NicknameDependencies
	logger logger.Logger
}

// NewNicknameHandler creates a new nickname handler.
func NewNicknameHandler(deps NicknameDependencies, log logger.Logger) *NicknameHandler {
	return &NicknameHandler{deps: deps, logger: log}
}

// HandleUpdate answers 200 with an empty body on success and 409 when
// another device holds the nickname.
func (h *NicknameHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_nickname"
	var req types.UpdateNicknameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, h.logger, op, err)
		return
	}
	if err := h.deps.Rename(r.Context(), req.DeviceID, req.NewNickname); err != nil {
		respondError(r.Context(), w, h.logger, op, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
