package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/rks/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.FetchConcurrency, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.RatingCache, convey.ShouldBeTrue)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		cases := map[string]func(){
			"empty addr":          func() { cfg.Addr = " " },
			"unknown driver":      func() { cfg.StoreDriver = "mongo" },
			"zero concurrency":    func() { cfg.FetchConcurrency = 0 },
			"zero fetch timeout":  func() { cfg.FetchTimeoutMS = 0 },
			"zero leaderboard":    func() { cfg.MaxLeaderboardLimit = 0 },
			"redis without a key": func() { cfg.RedisAddr = "localhost:6379"; cfg.RedisKey = "" },
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				mutate()
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When every SQL driver is selected", func() {
			for _, d := range []string{config.DriverSQLite, config.DriverPostgres} {
				cfg.StoreDriver = d
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			}
		})
	})
}
