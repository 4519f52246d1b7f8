package syncload

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/mazeball/internal/domain/types"
)

// collideEvery makes every n-th claimer reuse the previous claimer's name in
// a different case so the run exercises 409 handling.
const collideEvery = 5

type jobKind int

const (
	jobSync jobKind = iota
	jobRename
)

type job struct {
	kind     jobKind
	deviceID string
	nickname string
	scores   []types.SubmitScore
}

// plan builds the shuffled job list: Rounds syncs per device plus one nickname
// claim for a NameShare of the devices.
func plan(cfg *Config, rng *rand.Rand) []job {
	devices := make([]string, cfg.Devices)
	for i := range devices {
		devices[i] = uuid.NewString()
	}

	jobs := make([]job, 0, cfg.Devices*(cfg.Rounds+1))
	for _, id := range devices {
		for range cfg.Rounds {
			jobs = append(jobs, job{kind: jobSync, deviceID: id, scores: randomScores(cfg, rng, id)})
		}
	}

	claimers := int(float64(cfg.Devices) * cfg.NameShare)
	prev := ""
	for i := range claimers {
		name := fmt.Sprintf("pilot-%d", i)
		if i%collideEvery == collideEvery-1 && prev != "" {
			name = strings.ToUpper(prev)
		}
		jobs = append(jobs, job{kind: jobRename, deviceID: devices[i], nickname: name})
		prev = name
	}

	rng.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })
	return jobs
}

func randomScores(cfg *Config, rng *rand.Rand, deviceID string) []types.SubmitScore {
	n := 1 + rng.IntN(min(cfg.Levels, 3))
	scores := make([]types.SubmitScore, n)
	for i := range scores {
		scores[i] = types.SubmitScore{
			LevelID:    1 + rng.IntN(cfg.Levels),
			DeviceID:   deviceID,
			TimeMillis: 1000 + rng.Int64N(maxTimeMillis),
		}
	}
	return scores
}
