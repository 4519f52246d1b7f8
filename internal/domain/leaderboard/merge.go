package leaderboard

import (
	"context"
	"fmt"

	"github.com/okian/mazeball/internal/domain/model"
	"github.com/okian/mazeball/internal/domain/writethrough"
	"github.com/okian/mazeball/pkg/logger"
	"github.com/okian/mazeball/pkg/metrics"
)

// Outcome is what a single submitted score did to the cache.
type Outcome int

const (
	Kept Outcome = iota
	Created
	Improved
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Improved:
		return "improved"
	default:
		return "kept"
	}
}

// MergeResult counts outcomes of one submission.
type MergeResult struct {
	Created  int
	Improved int
	Kept     int
}

func (r *MergeResult) add(o Outcome) {
	switch o {
	case Created:
		r.Created++
	case Improved:
		r.Improved++
	default:
		r.Kept++
	}
}

// Validate rejects scores that can never be stored. It runs before any
// score of a submission is merged.
func Validate(scores []model.Score) error {
	for i, s := range scores {
		if s.LevelID < 0 {
			return fmt.Errorf("score %d: level %d: %w", i, s.LevelID, ErrInvalidScore)
		}
		if s.TimeMillis < 0 {
			return fmt.Errorf("score %d: time %d: %w", i, s.TimeMillis, ErrInvalidScore)
		}
	}
	return nil
}

// Merge reconciles scores submitted by deviceID with the cache, keeping the
// lower time per level. New entries carry nickname. Only changes are
// persisted, each before the cache is touched. On a storage failure the
// scores merged so far stay merged and the rest are skipped.
func (c *Cache) Merge(ctx context.Context, deviceID, nickname string, scores []model.Score) (MergeResult, error) {
	var res MergeResult
	if err := Validate(scores); err != nil {
		return res, err
	}
	for _, s := range scores {
		o, err := c.mergeOne(ctx, deviceID, nickname, s)
		if err != nil {
			metrics.RecordMergeOutcome(res.Created, res.Improved, res.Kept)
			return res, err
		}
		res.add(o)
	}
	metrics.RecordMergeOutcome(res.Created, res.Improved, res.Kept)
	return res, nil
}

func (c *Cache) mergeOne(ctx context.Context, deviceID, nickname string, s model.Score) (Outcome, error) {
	l := c.levelOrCreate(s.LevelID)
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.byDevice[deviceID]
	switch {
	case !ok:
		e := model.Entry{DeviceID: deviceID, PlayerName: nickname, TimeMillis: s.TimeMillis}
		err := writethrough.Do(ctx, "upsert_entry",
			func(ctx context.Context) error { return c.store.UpsertEntry(ctx, s.LevelID, e) },
			func() { l.put(e) },
		)
		if err != nil {
			c.logger.Error(ctx, "failed to store new entry", logger.String("device_id", deviceID), logger.Int("level_id", s.LevelID), logger.Error(err))
			return Kept, err
		}
		c.logger.Debug(ctx, "entry created", logger.String("device_id", deviceID), logger.Int("level_id", s.LevelID), logger.Int64("time_millis", s.TimeMillis))
		return Created, nil

	case s.TimeMillis < existing.entry.TimeMillis:
		e := existing.entry
		e.TimeMillis = s.TimeMillis
		err := writethrough.Do(ctx, "update_entry_time",
			func(ctx context.Context) error { return c.store.UpdateEntryTime(ctx, s.LevelID, deviceID, s.TimeMillis) },
			func() { l.put(e) },
		)
		if err != nil {
			c.logger.Error(ctx, "failed to store improved time", logger.String("device_id", deviceID), logger.Int("level_id", s.LevelID), logger.Error(err))
			return Kept, err
		}
		c.logger.Debug(ctx, "entry improved", logger.String("device_id", deviceID), logger.Int("level_id", s.LevelID),
			logger.Int64("from", existing.entry.TimeMillis), logger.Int64("to", s.TimeMillis))
		return Improved, nil

	default:
		return Kept, nil
	}
}
