package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/racepick/internal/config"
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
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Trials, convey.ShouldEqual, 20_000)
				convey.So(cfg.MaxGames, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RACEPICK_ADDR", ":8080")
			_ = os.Setenv("RACEPICK_TRIALS", "5000")
			_ = os.Setenv("RACEPICK_SEED", "42")
			_ = os.Setenv("RACEPICK_MIN_SAMPLES", "8")
			_ = os.Setenv("RACEPICK_WORKER_COUNT", "3")
			_ = os.Setenv("RACEPICK_OUR_TEAM", "Zoosters")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Trials, convey.ShouldEqual, 5000)
				convey.So(cfg.Seed, convey.ShouldEqual, 42)
				convey.So(cfg.MinSamples, convey.ShouldEqual, 8)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.OurTeam, convey.ShouldEqual, "Zoosters")
				convey.So(cfg.MaxRadius, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
# league night
addr: ":9090"
trials: 50000
max_radius: 2
snapshot_path: /tmp/roster.yaml
their_team: Sharks
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RACEPICK_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Trials, convey.ShouldEqual, 50000)
				convey.So(cfg.MaxRadius, convey.ShouldEqual, 2)
				convey.So(cfg.SnapshotPath, convey.ShouldEqual, "/tmp/roster.yaml")
				convey.So(cfg.TheirTeam, convey.ShouldEqual, "Sharks")
				convey.So(cfg.MinSamples, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\ntrials: 50000\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RACEPICK_CONFIG", tmpFile)
			_ = os.Setenv("RACEPICK_TRIALS", "100")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Trials, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RACEPICK_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RACEPICK_CONFIG", "/nonexistent/racepick.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RACEPICK_TRIALS", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading a redis ttl from the environment", func() {
			_ = os.Setenv("RACEPICK_REDIS_TTL", "90m")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it is parsed as a duration", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RedisTTL, convey.ShouldEqual, 90*time.Minute)
			})
		})

		convey.Convey("When loading config with zero trials", func() {
			_ = os.Setenv("RACEPICK_TRIALS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RACEPICK_CONFIG",
		"RACEPICK_ADDR",
		"RACEPICK_TRIALS",
		"RACEPICK_SEED",
		"RACEPICK_MIN_SAMPLES",
		"RACEPICK_WORKER_COUNT",
		"RACEPICK_OUR_TEAM",
		"RACEPICK_REDIS_TTL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "racepick-config-*.yaml")
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
