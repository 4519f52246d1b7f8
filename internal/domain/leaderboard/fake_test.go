package leaderboard_test

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/mazeball/internal/domain/model"
)

var errDiskFull = errors.New("disk full")

type key struct {
	level  int
	device string
}

// memStore records writes and can be told to fail.
type memStore struct {
	mu      sync.Mutex
	rows    map[key]model.Entry
	fail    bool
	upserts int
	updates int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[key]model.Entry)}
}

func (m *memStore) setFail(v bool) {
	m.mu.Lock()
	m.fail = v
	m.mu.Unlock()
}

func (m *memStore) UpsertEntry(_ context.Context, levelID int, e model.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errDiskFull
	}
	m.upserts++
	m.rows[key{levelID, e.DeviceID}] = e
	return nil
}

func (m *memStore) UpdateEntryTime(_ context.Context, levelID int, deviceID string, t int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errDiskFull
	}
	m.updates++
	e := m.rows[key{levelID, deviceID}]
	e.TimeMillis = t
	m.rows[key{levelID, deviceID}] = e
	return nil
}

func (m *memStore) row(level int, device string) (model.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[key{level, device}]
	return e, ok
}
