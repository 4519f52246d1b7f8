// Package syncload drives a running leaderboard server with synthetic devices
// and checks the published boards afterwards.
package syncload

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Defaults used by the sync-load command.
const (
	DefaultDevices   = 200
	DefaultLevels    = 10
	DefaultRounds    = 5
	DefaultNameShare = 0.7
	DefaultTimeout   = 10 * time.Second

	maxTimeMillis = 120_000
)

// Config holds the load run parameters.
type Config struct {
	BaseURL   string        // server base URL
	Devices   int           // synthetic devices
	Levels    int           // levels 1..Levels are played
	Rounds    int           // sync calls per device
	Workers   int           // concurrent HTTP workers
	NameShare float64       // fraction of devices that claim a nickname
	Timeout   time.Duration // per request timeout
	Seed      uint64        // 0 picks a random seed
	Verbose   bool
}

// Validate reports invalid parameters.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base url is required"))
	}
	if c.Devices <= 0 {
		errs = append(errs, fmt.Errorf("devices must be positive, got %d", c.Devices))
	}
	if c.Levels <= 0 {
		errs = append(errs, fmt.Errorf("levels must be positive, got %d", c.Levels))
	}
	if c.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("rounds must be positive, got %d", c.Rounds))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.NameShare < 0 || c.NameShare > 1 {
		errs = append(errs, fmt.Errorf("name share must be within [0,1], got %v", c.NameShare))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// Stats summarizes a run.
type Stats struct {
	SyncsSent       int64
	SyncsFailed     int64
	ScoresSent      int64
	NamesClaimed    int64
	NameConflicts   int64
	RenamesFailed   int64
	EntriesVerified int
	StartTime       time.Time
	Duration        time.Duration
}
