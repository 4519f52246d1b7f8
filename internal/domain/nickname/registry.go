// Package nickname keeps the device to nickname mapping and enforces that no
// two devices hold nicknames equal under Unicode case folding.
package nickname

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/text/cases"

	"github.com/okian/mazeball/internal/domain/writethrough"
	"github.com/okian/mazeball/pkg/logger"
	"github.com/okian/mazeball/pkg/metrics"
)

// ErrNicknameConflict is returned when another device already holds the name.
var ErrNicknameConflict = errors.New("nickname is already taken")

// Persister stores a nickname and propagates it to the device's entries atomically.
type Persister interface {
	ApplyNickname(ctx context.Context, deviceID, nickname string) error
}

// Registry is the in-memory nickname mapping. Check and commit of a rename
// happen under one lock, so concurrent renames cannot both claim a name.
type Registry struct {
	mu      sync.RWMutex
	names   map[string]string
	holders map[string]map[string]struct{} // folded name -> device ids
	fold    cases.Caser

	store    Persister
	onRename func(deviceID, nickname string)
	logger   logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRenameHook registers fn to run after a rename is persisted, while the
// registry lock is still held. It is used to mirror propagation into the
// leaderboard cache.
func WithRenameHook(fn func(deviceID, nickname string)) Option {
	return func(r *Registry) {
		r.onRename = fn
	}
}

// New returns an empty registry writing through to store.
func New(store Persister, opts ...Option) *Registry {
	r := &Registry{
		names:   make(map[string]string),
		holders: make(map[string]map[string]struct{}),
		fold:    cases.Fold(),
		store:   store,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the registry with a full scan of the store.
func (r *Registry) Load(names map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = make(map[string]string, len(names))
	r.holders = make(map[string]map[string]struct{}, len(names))
	for id, name := range names {
		r.commit(id, name)
	}
}

// Lookup returns the nickname of deviceID, or "" when it has none.
func (r *Registry) Lookup(deviceID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[deviceID]
}

// Len returns the number of devices with a nickname.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Set assigns nickname to deviceID. It fails with ErrNicknameConflict when a
// different device holds a case-insensitively equal name, and with the
// store's error when persistence fails; in both cases nothing changes.
func (r *Registry) Set(ctx context.Context, deviceID, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if other := r.holder(deviceID, nickname); other != "" {
		metrics.RecordNicknameConflict()
		r.logger.Info(ctx, "nickname conflict",
			logger.String("device_id", deviceID), logger.String("nickname", nickname), logger.String("held_by", other))
		return ErrNicknameConflict
	}

	err := writethrough.Do(ctx, "apply_nickname",
		func(ctx context.Context) error { return r.store.ApplyNickname(ctx, deviceID, nickname) },
		func() {
			r.commit(deviceID, nickname)
			if r.onRename != nil {
				r.onRename(deviceID, nickname)
			}
		},
	)
	if err != nil {
		r.logger.Error(ctx, "failed to store nickname", logger.String("device_id", deviceID), logger.Error(err))
		return err
	}
	metrics.RecordRename()
	return nil
}

// holder returns a device other than deviceID holding nickname. Callers hold mu.
func (r *Registry) holder(deviceID, nickname string) string {
	for id := range r.holders[r.fold.String(nickname)] {
		if id != deviceID {
			return id
		}
	}
	return ""
}

// commit updates both indexes. Callers hold mu.
func (r *Registry) commit(deviceID, nickname string) {
	if old, ok := r.names[deviceID]; ok {
		k := r.fold.String(old)
		delete(r.holders[k], deviceID)
		if len(r.holders[k]) == 0 {
			delete(r.holders, k)
		}
	}
	r.names[deviceID] = nickname
	k := r.fold.String(nickname)
	if r.holders[k] == nil {
		r.holders[k] = make(map[string]struct{})
	}
	r.holders[k][deviceID] = struct{}{}
}
