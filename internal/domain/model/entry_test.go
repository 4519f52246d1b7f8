package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEntryNamed(t *testing.T) {
	Convey("Given leaderboard entries", t, func() {
		Convey("When the player name is empty", func() {
			e := Entry{DeviceID: "A", TimeMillis: 5000}
			So(e.Named(), ShouldBeFalse)
		})

		Convey("When the player name is only whitespace", func() {
			e := Entry{DeviceID: "A", PlayerName: " \t ", TimeMillis: 5000}
			So(e.Named(), ShouldBeFalse)
		})

		Convey("When the player name is set", func() {
			e := Entry{DeviceID: "A", PlayerName: "Alice", TimeMillis: 4500}
			So(e.Named(), ShouldBeTrue)
		})
	})
}
