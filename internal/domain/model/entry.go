// Package model contains domain models passed between layers.
package model

import "strings"

// Entry is one device's best time on one level.
type Entry struct {
	DeviceID   string // opaque per-installation identifier
	PlayerName string // nickname at creation or last rename; empty means not chosen yet
	TimeMillis int64  // best completion time, never increases
}

// Named reports whether the entry is publicly visible. Whitespace-only
// names count as unset.
func (e Entry) Named() bool {
	return strings.TrimSpace(e.PlayerName) != ""
}

// Score is one locally recorded completion time submitted by a device.
type Score struct {
	LevelID    int
	TimeMillis int64
}

// Leaderboards maps a level id to its entries.
type Leaderboards map[int][]Entry
