package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/synaptic/internal/config"
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
			_ = os.Setenv("SYNAPTIC_ADDR", ":8080")
			_ = os.Setenv("SYNAPTIC_TICK_HZ", "30")
			_ = os.Setenv("SYNAPTIC_MAX_POPULATION", "12")
			_ = os.Setenv("SYNAPTIC_NEUROGENESIS_RATE", "0.02")
			_ = os.Setenv("SYNAPTIC_STRESS_ENABLED", "false")
			_ = os.Setenv("SYNAPTIC_SEED", "42")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TickHz, convey.ShouldEqual, 30)
				convey.So(cfg.MaxPopulation, convey.ShouldEqual, 12)
				convey.So(cfg.NeurogenesisRate, convey.ShouldEqual, 0.02)
				convey.So(cfg.StressEnabled, convey.ShouldBeFalse)
				convey.So(cfg.Seed, convey.ShouldEqual, int64(42))
				convey.So(cfg.SpawnIntervalMS, convey.ShouldEqual, 2000)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
tick_hz: 120
db_path: "/tmp/sessions.db"
export_format: csv
log_format: json
# spawn faster for playtests
spawn_interval_ms: 500
`)
			_ = os.Setenv("SYNAPTIC_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TickHz, convey.ShouldEqual, 120)
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/sessions.db")
				convey.So(cfg.ExportFormat, convey.ShouldEqual, "csv")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.SpawnIntervalMS, convey.ShouldEqual, 500)
				convey.So(cfg.MaxPopulation, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, `
addr: ":9090"
tick_hz: 120
`)
			_ = os.Setenv("SYNAPTIC_CONFIG", path)
			_ = os.Setenv("SYNAPTIC_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TickHz, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := writeConfigFile(t, "addr: [unclosed\n")
			_ = os.Setenv("SYNAPTIC_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SYNAPTIC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SYNAPTIC_TICK_HZ", "fast")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config that fails validation", func() {
			_ = os.Setenv("SYNAPTIC_SPAWN_INTERVAL_MS", "0")

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
		"SYNAPTIC_CONFIG",
		"SYNAPTIC_ADDR",
		"SYNAPTIC_TICK_HZ",
		"SYNAPTIC_MAX_POPULATION",
		"SYNAPTIC_NEUROGENESIS_RATE",
		"SYNAPTIC_STRESS_ENABLED",
		"SYNAPTIC_SEED",
		"SYNAPTIC_SPAWN_INTERVAL_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synaptic.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
