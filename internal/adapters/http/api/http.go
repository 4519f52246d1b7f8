// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/mazeball/internal/adapters/repository"
	service "github.com/okian/mazeball/internal/app"
	"github.com/okian/mazeball/internal/domain/model"
	"github.com/okian/mazeball/internal/domain/nickname"
	"github.com/okian/mazeball/internal/domain/types"
	"github.com/okian/mazeball/pkg/logger"
	"github.com/okian/mazeball/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	FetchAll(ctx context.Context) types.Leaderboards
	Sync(ctx context.Context, deviceID string, scores []model.Score) (types.Leaderboards, error)
	Rename(ctx context.Context, deviceID, newNickname string) error
	Ping(ctx context.Context) error
	GetStats() service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	nicknameHandler    *NicknameHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger logger.Logger
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, o.logger),
		nicknameHandler:    NewNicknameHandler(deps, o.logger),
	}
}

// NewRouter returns a chi router with the standard middleware stack.
func NewRouter(timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", errors.New("no route for "+r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New(r.Method+" not allowed on "+r.URL.Path))
	})
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.With(Instrument("leaderboard_all")).Get("/leaderboard/all", s.leaderboardHandler.HandleGetAll)
	r.With(Instrument("leaderboard_sync")).Post("/leaderboard/sync", s.leaderboardHandler.HandleSync)
	r.With(Instrument("user_nickname")).Post("/user/nickname", s.nicknameHandler.HandleUpdate)

	r.With(Instrument("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.With(Instrument("stats")).Get("/stats", s.statsHandler.HandleStats)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
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

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

// respondError maps domain failures onto status codes. Server-side
// failures are logged and reported without their cause.
func respondError(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	var (
		tooLarge *http.MaxBytesError
		storage  *repository.StorageError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, ErrDecode), errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, nickname.ErrNicknameConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "nickname_taken", Message: "Nickname is already taken"})
	case errors.As(err, &storage):
		log.Error(ctx, "storage failure",
			logger.String("op", op),
			logger.String("request_id", chimw.GetReqID(ctx)),
			logger.String("storage_op", storage.Op),
			logger.Bool("constraint", storage.Constraint()),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "storage_error", errors.New("storage unavailable"))
	default:
		log.Error(ctx, "request failed", logger.String("op", op), logger.String("request_id", chimw.GetReqID(ctx)), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
