// Package writethrough holds the single persist-then-apply step used by every
// mutating path of the leaderboard cache and the nickname registry.
package writethrough

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/mazeball/pkg/metrics"
)

// Do runs persist and, only when it succeeds, apply. A failed persist leaves
// in-memory state untouched and is returned wrapped with op.
func Do(ctx context.Context, op string, persist func(ctx context.Context) error, apply func()) error {
	start := time.Now()
	err := persist(ctx)
	metrics.RecordStorageLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStorageError(op)
		metrics.RecordErrorByComponent("repository", errorType(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if apply != nil {
		apply()
	}
	return nil
}

// errorType labels a persist failure for the error metrics.
func errorType(err error) string {
	var c interface{ Constraint() bool }
	if errors.As(err, &c) && c.Constraint() {
		return "constraint_violation"
	}
	return "storage_error"
}
