// Package repository is the persistent store behind the leaderboard cache and
// the nickname registry. It is the source of truth across restarts.
package repository

import (
	"context"

	"github.com/okian/mazeball/internal/domain/model"
)

// Store provides durable access to the leaderboard_entries and player_names
// relations. Every method that fails returns a *StorageError.
type Store interface {
	// LoadAllLeaderboards scans every entry grouped by level, in no particular order.
	LoadAllLeaderboards(ctx context.Context) (model.Leaderboards, error)
	// LoadAllNicknames scans the device to nickname mapping.
	LoadAllNicknames(ctx context.Context) (map[string]string, error)

	// UpsertEntry inserts the (levelID, entry.DeviceID) row or overwrites its
	// time and name.
	UpsertEntry(ctx context.Context, levelID int, entry model.Entry) error
	// UpdateEntryTime rewrites the time of an existing row. A missing row is an error.
	UpdateEntryTime(ctx context.Context, levelID int, deviceID string, timeMillis int64) error

	// UpsertNickname inserts or overwrites the nickname of a device.
	UpsertNickname(ctx context.Context, deviceID, nickname string) error
	// PropagateNicknameToEntries sets player_name on every entry of the device.
	PropagateNicknameToEntries(ctx context.Context, deviceID, nickname string) error
	// ApplyNickname runs UpsertNickname and PropagateNicknameToEntries in one
	// transaction.
	ApplyNickname(ctx context.Context, deviceID, nickname string) error

	Ping(ctx context.Context) error
	Close() error
}
