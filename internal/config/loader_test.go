package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rks/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RKS_ADDR", ":8080")
			_ = os.Setenv("RKS_STORE_DRIVER", "sqlite")
			_ = os.Setenv("RKS_STORE_DSN", "file:rks.db")
			_ = os.Setenv("RKS_FETCH_CONCURRENCY", "16")
			_ = os.Setenv("RKS_FETCH_TIMEOUT_MS", "500")
			_ = os.Setenv("RKS_RATING_CACHE", "false")
			_ = os.Setenv("RKS_LOG_FORMAT", "json")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file:rks.db")
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 16)
				convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 500)
				convey.So(cfg.RatingCache, convey.ShouldBeFalse)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
# leaderboard service
addr: ":9090"
store_driver: postgres
store_dsn: "postgres://rks@localhost/rks"
max_leaderboard_limit: 25
redis_addr: "localhost:6379"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RKS_CONFIG", tmpFile)
			_ = os.Setenv("RKS_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverPostgres)
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "postgres://rks@localhost/rks")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.RedisKey, convey.ShouldEqual, "rks:leaderboard")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RKS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RKS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store driver", func() {
			_ = os.Setenv("RKS_STORE_DRIVER", "mongo")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "mongo")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RKS_FETCH_CONCURRENCY", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RKS_CONFIG",
		"RKS_ADDR",
		"RKS_LOG_FORMAT",
		"RKS_STORE_DRIVER",
		"RKS_STORE_DSN",
		"RKS_FETCH_CONCURRENCY",
		"RKS_FETCH_TIMEOUT_MS",
		"RKS_RATING_CACHE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rks-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
