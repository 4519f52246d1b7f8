package leaderboard

import "github.com/okian/mazeball/internal/domain/model"

// Entry returns the cached entry for (levelID, deviceID), named or not.
func (c *Cache) Entry(levelID int, deviceID string) (model.Entry, bool) {
	l, ok := c.level(levelID)
	if !ok {
		return model.Entry{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.byDevice[deviceID]
	if !ok {
		return model.Entry{}, false
	}
	return n.entry, true
}
