package syncload

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/mazeball/pkg/logger"
)

const progressEvery = 500

// Run executes a load run against cfg.BaseURL and verifies the final boards.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	stats := &Stats{StartTime: time.Now()}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	log.Info(ctx, "starting sync load",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("devices", cfg.Devices),
		logger.Int("levels", cfg.Levels),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Float64("nameShare", cfg.NameShare),
		logger.Any("seed", seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	jobs := plan(cfg, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	exp := submit(ctx, cfg, client, jobs, stats, log)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load interrupted: %w", err)
	}

	boards, err := client.All(ctx)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	for _, entries := range boards {
		stats.EntriesVerified += len(entries)
	}
	stats.Duration = time.Since(stats.StartTime)
	logStats(ctx, log, stats)

	if err := Verify(boards, exp); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}
	log.Info(ctx, "leaderboards verified", logger.Int("entries", stats.EntriesVerified))
	return stats, nil
}

// submit fans jobs out to cfg.Workers workers and records what the server
// acknowledged.
func submit(ctx context.Context, cfg *Config, client *Client, jobs []job, stats *Stats, log logger.Logger) *Expected {
	var (
		mu   sync.Mutex
		exp  = NewExpected()
		done atomic.Int64
		wg   sync.WaitGroup
	)
	ch := make(chan job, cfg.Workers*2)

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				switch j.kind {
				case jobSync:
					_, err := client.Sync(ctx, j.deviceID, j.scores)
					atomic.AddInt64(&stats.SyncsSent, 1)
					atomic.AddInt64(&stats.ScoresSent, int64(len(j.scores)))
					mu.Lock()
					if err != nil {
						exp.Uncertain[j.deviceID] = true
					} else {
						exp.Observe(j.deviceID, j.scores)
					}
					mu.Unlock()
					if err != nil {
						atomic.AddInt64(&stats.SyncsFailed, 1)
						log.Warn(ctx, "sync failed", logger.String("device_id", j.deviceID), logger.Error(err))
					}
				case jobRename:
					err := client.Rename(ctx, j.deviceID, j.nickname)
					switch {
					case err == nil:
						atomic.AddInt64(&stats.NamesClaimed, 1)
						mu.Lock()
						exp.Names[j.deviceID] = j.nickname
						mu.Unlock()
					case errors.Is(err, ErrNameTaken):
						atomic.AddInt64(&stats.NameConflicts, 1)
					default:
						atomic.AddInt64(&stats.RenamesFailed, 1)
						mu.Lock()
						exp.NameUnknown[j.deviceID] = true
						mu.Unlock()
						log.Warn(ctx, "rename failed", logger.String("device_id", j.deviceID), logger.Error(err))
					}
				}
				if n := done.Add(1); cfg.Verbose && n%progressEvery == 0 {
					log.Info(ctx, "progress", logger.Int64("done", n), logger.Int("total", len(jobs)))
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- j:
			}
		}
	}()

	wg.Wait()
	return exp
}

func logStats(ctx context.Context, log logger.Logger, s *Stats) {
	var syncsPerSecond float64
	if s.Duration > 0 {
		syncsPerSecond = float64(s.SyncsSent) / s.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int64("syncsSent", s.SyncsSent),
		logger.Int64("syncsFailed", s.SyncsFailed),
		logger.Int64("scoresSent", s.ScoresSent),
		logger.Int64("namesClaimed", s.NamesClaimed),
		logger.Int64("nameConflicts", s.NameConflicts),
		logger.Int64("renamesFailed", s.RenamesFailed),
		logger.Int("entries", s.EntriesVerified),
		logger.String("duration", s.Duration.String()),
		logger.Float64("syncsPerSecond", syncsPerSecond))
}
