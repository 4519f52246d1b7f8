package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mazeball/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())
		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "mazeball.db")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.MaxNicknameLength, convey.ShouldEqual, 0)
			convey.So(cfg.MaxScoresPerSync, convey.ShouldEqual, 1000)
			convey.So(cfg.DeviceLockStripes, convey.ShouldEqual, 64)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with an invalid field", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When db_path is blank", func() {
			cfg.DBPath = "  "
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "db_path")
		})

		convey.Convey("When max_nickname_length is negative", func() {
			cfg.MaxNicknameLength = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When max_nickname_length is zero", func() {
			cfg.MaxNicknameLength = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When device_lock_stripes is negative", func() {
			cfg.DeviceLockStripes = -1
			var fe *config.FieldError
			convey.So(errors.As(cfg.Validate(), &fe), convey.ShouldBeTrue)
			convey.So(fe.Key, convey.ShouldEqual, "device_lock_stripes")
		})
	})
}
