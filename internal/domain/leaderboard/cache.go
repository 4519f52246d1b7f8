// Package leaderboard implements the in-memory leaderboard cache and the
// merge engine that reconciles submitted times with stored best times.
package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/mazeball/internal/domain/model"
	"github.com/okian/mazeball/pkg/logger"
)

// Persister is the part of the persistent store the merge engine writes to.
type Persister interface {
	UpsertEntry(ctx context.Context, levelID int, entry model.Entry) error
	UpdateEntryTime(ctx context.Context, levelID int, deviceID string, timeMillis int64) error
}

// level holds one level's entries. mu guards every read-modify-write step.
type level struct {
	mu       sync.RWMutex
	root     *node
	byDevice map[string]*node
	named    int
}

func newLevel() *level {
	return &level{byDevice: make(map[string]*node)}
}

func (l *level) put(e model.Entry) {
	if old, ok := l.byDevice[e.DeviceID]; ok {
		l.root = remove(l.root, old.entry.TimeMillis, old.entry.DeviceID)
		if old.entry.Named() {
			l.named--
		}
	}
	n := newNode(e)
	l.root = insert(l.root, n)
	l.byDevice[e.DeviceID] = n
	if e.Named() {
		l.named++
	}
}

// Cache is the process-wide leaderboard state. Different levels are
// mutated in parallel; the levels map itself is guarded by mu.
type Cache struct {
	mu     sync.RWMutex
	levels map[int]*level

	store  Persister
	logger logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache returns an empty cache writing through to store.
func NewCache(store Persister, opts ...Option) *Cache {
	c := &Cache{
		levels: make(map[int]*level),
		store:  store,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the cache contents with a full scan of the store. It is
// meant to run once before the cache serves traffic.
func (c *Cache) Load(boards model.Leaderboards) {
	levels := make(map[int]*level, len(boards))
	for id, entries := range boards {
		l := newLevel()
		for _, e := range entries {
			if old, ok := l.byDevice[e.DeviceID]; ok && old.entry.TimeMillis <= e.TimeMillis {
				continue
			}
			l.put(e)
		}
		levels[id] = l
	}
	c.mu.Lock()
	c.levels = levels
	c.mu.Unlock()
}

func (c *Cache) level(id int) (*level, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.levels[id]
	return l, ok
}

func (c *Cache) levelOrCreate(id int) *level {
	if l, ok := c.level(id); ok {
		return l
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.levels[id]; ok {
		return l
	}
	l := newLevel()
	c.levels[id] = l
	return l
}

func (c *Cache) snapshotLevels() map[int]*level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]*level, len(c.levels))
	for id, l := range c.levels {
		out[id] = l
	}
	return out
}

// All returns every level's named entries sorted by time then device id.
// Levels without a named entry are omitted.
func (c *Cache) All() model.Leaderboards {
	out := make(model.Leaderboards)
	for id, l := range c.snapshotLevels() {
		l.mu.RLock()
		if l.named > 0 {
			rows := make([]model.Entry, 0, l.named)
			inOrder(l.root, func(n *node) {
				if n.entry.Named() {
					rows = append(rows, n.entry)
				}
			})
			out[id] = rows
		}
		l.mu.RUnlock()
	}
	return out
}

// DeviceLevels returns the ids of every level holding an entry for deviceID, ascending.
func (c *Cache) DeviceLevels(deviceID string) []int {
	var ids []int
	for id, l := range c.snapshotLevels() {
		l.mu.RLock()
		_, ok := l.byDevice[deviceID]
		l.mu.RUnlock()
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// ApplyName sets PlayerName on every cached entry of deviceID. It mirrors a
// nickname propagation that has already been persisted.
func (c *Cache) ApplyName(deviceID, name string) {
	for _, l := range c.snapshotLevels() {
		l.mu.Lock()
		if n, ok := l.byDevice[deviceID]; ok {
			was := n.entry.Named()
			// Name is not part of the ordering key; update in place.
			n.entry.PlayerName = name
			switch now := n.entry.Named(); {
			case !was && now:
				l.named++
			case was && !now:
				l.named--
			}
		}
		l.mu.Unlock()
	}
}

// Stats summarizes the cache.
type Stats struct {
	Levels       int
	Entries      int
	NamedEntries int
}

// Stats counts levels holding at least one entry, all entries and named entries.
func (c *Cache) Stats() Stats {
	var s Stats
	for _, l := range c.snapshotLevels() {
		l.mu.RLock()
		if n := len(l.byDevice); n > 0 {
			s.Levels++
			s.Entries += n
			s.NamedEntries += l.named
		}
		l.mu.RUnlock()
	}
	return s
}
