package syncload

import (
	"math/rand/v2"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlan(t *testing.T) {
	Convey("Given a small configuration", t, func() {
		cfg := &Config{Devices: 10, Levels: 4, Rounds: 3, NameShare: 1}
		jobs := plan(cfg, rand.New(rand.NewPCG(1, 2)))

		Convey("Then each device gets its rounds and every device claims a name", func() {
			syncs := map[string]int{}
			var names []string
			for _, j := range jobs {
				switch j.kind {
				case jobSync:
					syncs[j.deviceID]++
					So(len(j.scores), ShouldBeBetweenOrEqual, 1, 3)
					for _, s := range j.scores {
						So(s.LevelID, ShouldBeBetweenOrEqual, 1, 4)
						So(s.TimeMillis, ShouldBeGreaterThan, 0)
					}
				case jobRename:
					names = append(names, j.nickname)
				}
			}
			So(len(syncs), ShouldEqual, 10)
			for _, n := range syncs {
				So(n, ShouldEqual, 3)
			}
			So(len(names), ShouldEqual, 10)
			So(names, ShouldContain, "PILOT-3")
			So(names, ShouldContain, "pilot-3")
		})
	})

	Convey("Given a zero name share", t, func() {
		jobs := plan(&Config{Devices: 5, Levels: 1, Rounds: 1}, rand.New(rand.NewPCG(3, 4)))
		Convey("Then nobody claims a name", func() {
			for _, j := range jobs {
				So(j.kind, ShouldEqual, jobSync)
				So(strings.TrimSpace(j.nickname), ShouldBeEmpty)
			}
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given an invalid configuration", t, func() {
		cfg := &Config{Devices: 0, Levels: 1, Rounds: 1, Workers: 1, NameShare: 2}
		err := cfg.Validate()
		Convey("Then every problem is reported", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "base url is required")
			So(err.Error(), ShouldContainSubstring, "devices must be positive")
			So(err.Error(), ShouldContainSubstring, "name share")
			So(err.Error(), ShouldContainSubstring, "timeout must be positive")
		})
	})
}
