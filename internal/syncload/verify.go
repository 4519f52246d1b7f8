package syncload

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/okian/mazeball/internal/domain/types"
)

// Expected is what the run knows about its own devices.
type Expected struct {
	// Best holds the minimum time per level and device over acknowledged syncs.
	Best map[int]map[string]int64
	// Names holds nicknames the server accepted.
	Names map[string]string
	// Uncertain marks devices with a failed sync; their stored time may be lower
	// than Best but never higher.
	Uncertain map[string]bool
	// NameUnknown marks devices whose rename failed without a clear answer.
	NameUnknown map[string]bool
}

// NewExpected returns an empty Expected.
func NewExpected() *Expected {
	return &Expected{
		Best:        make(map[int]map[string]int64),
		Names:       make(map[string]string),
		Uncertain:   make(map[string]bool),
		NameUnknown: make(map[string]bool),
	}
}

// Observe folds acknowledged scores into Best.
func (e *Expected) Observe(deviceID string, scores []types.SubmitScore) {
	for _, s := range scores {
		level, ok := e.Best[s.LevelID]
		if !ok {
			level = make(map[string]int64)
			e.Best[s.LevelID] = level
		}
		if cur, ok := level[deviceID]; !ok || s.TimeMillis < cur {
			level[deviceID] = s.TimeMillis
		}
	}
}

func (e *Expected) owns(deviceID string) bool {
	for _, level := range e.Best {
		if _, ok := level[deviceID]; ok {
			return true
		}
	}
	return e.Uncertain[deviceID] || e.NameUnknown[deviceID]
}

// Verify checks published boards against the run's knowledge and returns
// every violation joined.
func Verify(boards types.Leaderboards, exp *Expected) error {
	var errs []error
	fold := cases.Fold()
	holders := make(map[string]string)

	levels := make([]int, 0, len(boards))
	for id := range boards {
		levels = append(levels, id)
	}
	sort.Ints(levels)

	for _, id := range levels {
		entries := boards[id]
		if len(entries) == 0 {
			errs = append(errs, fmt.Errorf("level %d: published with no entries", id))
		}
		seen := make(map[string]bool, len(entries))
		for i, e := range entries {
			named := strings.TrimSpace(e.PlayerName) != ""
			if !named {
				errs = append(errs, fmt.Errorf("level %d: device %s published without a name", id, e.DeviceID))
			}
			if seen[e.DeviceID] {
				errs = append(errs, fmt.Errorf("level %d: device %s listed twice", id, e.DeviceID))
			}
			seen[e.DeviceID] = true
			if i > 0 && !ordered(entries[i-1], e) {
				errs = append(errs, fmt.Errorf("level %d: entries %d and %d out of order", id, i-1, i))
			}
			if named {
				key := fold.String(e.PlayerName)
				if other, ok := holders[key]; ok && other != e.DeviceID {
					errs = append(errs, fmt.Errorf("nickname %q held by %s and %s", e.PlayerName, other, e.DeviceID))
				} else {
					holders[key] = e.DeviceID
				}
			}
			errs = append(errs, checkOwn(id, e, exp)...)
		}
		errs = append(errs, checkMissing(id, seen, exp)...)
	}
	for id := range exp.Best {
		if _, ok := boards[id]; !ok {
			errs = append(errs, checkMissing(id, nil, exp)...)
		}
	}
	return errors.Join(errs...)
}

func ordered(a, b types.Entry) bool {
	if a.TimeMillis != b.TimeMillis {
		return a.TimeMillis < b.TimeMillis
	}
	return a.DeviceID < b.DeviceID
}

func checkOwn(level int, e types.Entry, exp *Expected) []error {
	if !exp.owns(e.DeviceID) {
		return nil
	}
	var errs []error
	name, named := exp.Names[e.DeviceID]
	switch {
	case exp.NameUnknown[e.DeviceID]:
	case !named:
		errs = append(errs, fmt.Errorf("level %d: device %s never got a name but is listed", level, e.DeviceID))
	case e.PlayerName != name:
		errs = append(errs, fmt.Errorf("level %d: device %s listed as %q, want %q", level, e.DeviceID, e.PlayerName, name))
	}
	best, ok := exp.Best[level][e.DeviceID]
	switch {
	case !ok && !exp.Uncertain[e.DeviceID]:
		errs = append(errs, fmt.Errorf("level %d: device %s listed without ever playing it", level, e.DeviceID))
	case ok && exp.Uncertain[e.DeviceID] && e.TimeMillis > best:
		errs = append(errs, fmt.Errorf("level %d: device %s at %d, above its best %d", level, e.DeviceID, e.TimeMillis, best))
	case ok && !exp.Uncertain[e.DeviceID] && e.TimeMillis != best:
		errs = append(errs, fmt.Errorf("level %d: device %s at %d, want %d", level, e.DeviceID, e.TimeMillis, best))
	}
	return errs
}

// checkMissing reports named devices with a best time that the level omits.
func checkMissing(level int, seen map[string]bool, exp *Expected) []error {
	var errs []error
	for dev := range exp.Best[level] {
		if _, named := exp.Names[dev]; named && !seen[dev] && !exp.NameUnknown[dev] {
			errs = append(errs, fmt.Errorf("level %d: named device %s missing", level, dev))
		}
	}
	return errs
}
