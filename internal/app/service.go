// Package service wires the leaderboard cache, the nickname registry and the
// persistent store into the three client operations: fetch all leaderboards,
// sync scores and update nickname.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/mazeball/internal/adapters/repository"
	"github.com/okian/mazeball/internal/domain/leaderboard"
	"github.com/okian/mazeball/internal/domain/model"
	"github.com/okian/mazeball/internal/domain/nickname"
	"github.com/okian/mazeball/internal/domain/types"
	"github.com/okian/mazeball/pkg/logger"
	"github.com/okian/mazeball/pkg/metrics"
	"github.com/okian/mazeball/pkg/tracing"
)

const (
	defaultMaxScoresPerSync  = 1000
	defaultDeviceLockStripes = 64
)

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu      sync.RWMutex
	started bool

	store repository.Store
	board *leaderboard.Cache
	names *nickname.Registry
	locks *deviceLocks

	maxNicknameLength int
	maxScoresPerSync  int
	lockStripes       int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxNicknameLength caps nickname length in runes. Without it names of
// any length are accepted.
func WithMaxNicknameLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxNicknameLength = n
		}
	}
}

// WithMaxScoresPerSync caps the number of scores accepted in one sync.
func WithMaxScoresPerSync(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxScoresPerSync = n
		}
	}
}

// WithDeviceLockStripes sets the number of per-device lock stripes.
func WithDeviceLockStripes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lockStripes = n
		}
	}
}

// New constructs a Service on top of store. Call Start before serving.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		maxScoresPerSync:  defaultMaxScoresPerSync,
		lockStripes:       defaultDeviceLockStripes,
		logger:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.locks = newDeviceLocks(s.lockStripes)
	s.board = leaderboard.NewCache(store, leaderboard.WithLogger(s.logger.Named("leaderboard")))
	s.names = nickname.New(store,
		nickname.WithLogger(s.logger.Named("nickname")),
		nickname.WithRenameHook(s.board.ApplyName),
	)
	return s
}

// Start loads the cache and the registry from the store. It runs once;
// later calls are no-ops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "loading leaderboards from store...")
	boards, err := s.store.LoadAllLeaderboards(ctx)
	if err != nil {
		return fmt.Errorf("load leaderboards: %w", err)
	}
	names, err := s.store.LoadAllNicknames(ctx)
	if err != nil {
		return fmt.Errorf("load nicknames: %w", err)
	}
	s.board.Load(boards)
	s.names.Load(names)

	s.started = true
	st := s.stats()
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("levels", st.Levels),
		logger.Int("entries", st.Entries),
		logger.Int("devices", st.Devices),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	s.logger.Info(ctx, "stopping leaderboard service...")
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// FetchAll returns every level's named entries, fastest first.
func (s *Service) FetchAll(ctx context.Context) types.Leaderboards {
	_, span := tracing.Tracer().Start(ctx, "service.FetchAll")
	defer span.End()
	return types.FromModel(s.board.All())
}

// Sync merges the device's scores and returns the merged leaderboards. New
// entries take the device's current nickname, or "" when it has none.
func (s *Service) Sync(ctx context.Context, deviceID string, scores []model.Score) (types.Leaderboards, error) {
	ctx, span := tracing.Tracer().Start(ctx, "service.Sync", trace.WithAttributes(
		attribute.String("device.id", deviceID),
		attribute.Int("scores", len(scores)),
	))
	defer span.End()

	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fail(span, fmt.Errorf("%w: deviceId is required", ErrInvalidRequest))
	}
	if len(scores) > s.maxScoresPerSync {
		return nil, fail(span, fmt.Errorf("%w: %d scores exceeds limit of %d", ErrInvalidRequest, len(scores), s.maxScoresPerSync))
	}
	if err := leaderboard.Validate(scores); err != nil {
		return nil, fail(span, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	metrics.RecordSync(len(scores))

	unlock := s.locks.lock(deviceID)
	res, err := s.board.Merge(ctx, deviceID, s.names.Lookup(deviceID), scores)
	unlock()
	span.SetAttributes(
		attribute.Int("merge.created", res.Created),
		attribute.Int("merge.improved", res.Improved),
		attribute.Int("merge.kept", res.Kept),
	)
	if err != nil {
		return nil, fail(span, fmt.Errorf("sync %s: %w", deviceID, err))
	}

	s.logger.Debug(ctx, "sync merged",
		logger.String("device_id", deviceID),
		logger.Int("created", res.Created),
		logger.Int("improved", res.Improved),
		logger.Int("kept", res.Kept),
	)
	return s.FetchAll(ctx), nil
}

// Rename sets the device's nickname and propagates it to all of its
// entries. It returns nickname.ErrNicknameConflict when another device
// holds the name case-insensitively.
func (s *Service) Rename(ctx context.Context, deviceID, newNickname string) error {
	ctx, span := tracing.Tracer().Start(ctx, "service.Rename", trace.WithAttributes(
		attribute.String("device.id", deviceID),
	))
	defer span.End()

	deviceID = strings.TrimSpace(deviceID)
	name := strings.TrimSpace(newNickname)
	switch {
	case deviceID == "":
		return fail(span, fmt.Errorf("%w: deviceId is required", ErrInvalidRequest))
	case name == "":
		return fail(span, fmt.Errorf("%w: newNickname is required", ErrInvalidRequest))
	case s.maxNicknameLength > 0 && utf8.RuneCountInString(name) > s.maxNicknameLength:
		return fail(span, fmt.Errorf("%w: newNickname longer than %d characters", ErrInvalidRequest, s.maxNicknameLength))
	}

	unlock := s.locks.lock(deviceID)
	defer unlock()
	if err := s.names.Set(ctx, deviceID, name); err != nil {
		return fail(span, fmt.Errorf("rename %s: %w", deviceID, err))
	}
	levels := s.board.DeviceLevels(deviceID)
	span.SetAttributes(attribute.Int("rename.levels", len(levels)))
	s.logger.Info(ctx, "nickname updated",
		logger.String("device_id", deviceID),
		logger.String("nickname", name),
		logger.Int("levels", len(levels)),
	)
	return nil
}

// Stats describes the cached state.
type Stats struct {
	Levels       int `json:"levels"`
	Entries      int `json:"entries"`
	NamedEntries int `json:"namedEntries"`
	Devices      int `json:"devices"`
}

// GetStats returns cache statistics and refreshes the state gauges.
func (s *Service) GetStats() Stats {
	st := s.stats()
	metrics.UpdateLeaderboardSize(st.Levels, st.Entries, st.NamedEntries)
	metrics.UpdateRegisteredDevices(st.Devices)
	return st
}

func (s *Service) stats() Stats {
	b := s.board.Stats()
	return Stats{
		Levels:       b.Levels,
		Entries:      b.Entries,
		NamedEntries: b.NamedEntries,
		Devices:      s.names.Len(),
	}
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
