package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/mazeball/internal/adapters/repository/migrations"
	"github.com/okian/mazeball/internal/domain/model"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	defaultBusyTimeout = 5 * time.Second
	defaultSynchronous = "NORMAL"
)

// SQLiteStore is the Store backed by a single SQLite database file.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	synchronous string
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and applies the
// embedded schema migrations.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, storageErr("open", fmt.Errorf("database path is required"))
	}
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout, synchronous: defaultSynchronous}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", s.dsn(filepath.Clean(path)))
	if err != nil {
		return nil, storageErr("open", err)
	}
	// One writer connection; SQLite serializes writes anyway and this keeps
	// ApplyNickname's transaction from contending with itself.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr("ping", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, storageErr("migrate", err)
	}
	s.db = db
	return s, nil
}

func (s *SQLiteStore) dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous("+s.synchronous+")")
	return "file:" + path + "?" + q.Encode()
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return storageErr("close", s.db.Close())
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return storageErr("ping", s.db.PingContext(ctx))
}

// LoadAllLeaderboards implements Store.
func (s *SQLiteStore) LoadAllLeaderboards(ctx context.Context) (model.Leaderboards, error) {
	const op = "load_leaderboards"
	rows, err := s.db.QueryContext(ctx,
		`SELECT level_id, device_id, player_name, time_millis FROM leaderboard_entries`)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	boards := make(model.Leaderboards)
	for rows.Next() {
		var (
			level int
			e     model.Entry
		)
		if err := rows.Scan(&level, &e.DeviceID, &e.PlayerName, &e.TimeMillis); err != nil {
			return nil, storageErr(op, err)
		}
		boards[level] = append(boards[level], e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return boards, nil
}

// LoadAllNicknames implements Store.
func (s *SQLiteStore) LoadAllNicknames(ctx context.Context) (map[string]string, error) {
	const op = "load_nicknames"
	rows, err := s.db.QueryContext(ctx, `SELECT device_id, player_name FROM player_names`)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var deviceID, name string
		if err := rows.Scan(&deviceID, &name); err != nil {
			return nil, storageErr(op, err)
		}
		names[deviceID] = name
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return names, nil
}

// UpsertEntry implements Store.
func (s *SQLiteStore) UpsertEntry(ctx context.Context, levelID int, entry model.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leaderboard_entries (level_id, device_id, player_name, time_millis)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (level_id, device_id) DO UPDATE SET
		   player_name = excluded.player_name,
		   time_millis = excluded.time_millis`,
		levelID, entry.DeviceID, entry.PlayerName, entry.TimeMillis,
	)
	return storageErr("upsert_entry", err)
}

// UpdateEntryTime implements Store.
func (s *SQLiteStore) UpdateEntryTime(ctx context.Context, levelID int, deviceID string, timeMillis int64) error {
	const op = "update_entry_time"
	res, err := s.db.ExecContext(ctx,
		`UPDATE leaderboard_entries SET time_millis = ? WHERE level_id = ? AND device_id = ?`,
		timeMillis, levelID, deviceID,
	)
	if err != nil {
		return storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return storageErr(op, fmt.Errorf("level %d device %q: %w", levelID, deviceID, ErrEntryNotFound))
	}
	return nil
}

// UpsertNickname implements Store.
func (s *SQLiteStore) UpsertNickname(ctx context.Context, deviceID, nickname string) error {
	return storageErr("upsert_nickname", upsertNickname(ctx, s.db, deviceID, nickname))
}

// PropagateNicknameToEntries implements Store.
func (s *SQLiteStore) PropagateNicknameToEntries(ctx context.Context, deviceID, nickname string) error {
	return storageErr("propagate_nickname", propagateNickname(ctx, s.db, deviceID, nickname))
}

// ApplyNickname implements Store.
func (s *SQLiteStore) ApplyNickname(ctx context.Context, deviceID, nickname string) error {
	const op = "apply_nickname"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	if err := upsertNickname(ctx, tx, deviceID, nickname); err != nil {
		_ = tx.Rollback()
		return storageErr(op, err)
	}
	if err := propagateNickname(ctx, tx, deviceID, nickname); err != nil {
		_ = tx.Rollback()
		return storageErr(op, err)
	}
	return storageErr(op, tx.Commit())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertNickname(ctx context.Context, db execer, deviceID, nickname string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO player_names (device_id, player_name) VALUES (?, ?)
		 ON CONFLICT (device_id) DO UPDATE SET player_name = excluded.player_name`,
		deviceID, nickname,
	)
	return err
}

func propagateNickname(ctx context.Context, db execer, deviceID, nickname string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE leaderboard_entries SET player_name = ? WHERE device_id = ?`,
		nickname, deviceID,
	)
	return err
}
