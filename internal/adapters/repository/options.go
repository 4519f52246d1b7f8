package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithSynchronous sets the synchronous pragma (OFF, NORMAL, FULL, EXTRA).
func WithSynchronous(mode string) Option {
	return func(s *SQLiteStore) {
		switch mode {
		case "OFF", "NORMAL", "FULL", "EXTRA":
			s.synchronous = mode
		}
	}
}
