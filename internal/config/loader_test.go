package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/canon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 5)
				convey.So(cfg.CacheEnabled, convey.ShouldBeTrue)
				convey.So(cfg.CacheTTLSec, convey.ShouldEqual, 3600)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CANON_ADDR", ":8080")
			_ = os.Setenv("CANON_WORKER_COUNT", "3")
			_ = os.Setenv("CANON_STORE_DRIVER", "postgres")
			_ = os.Setenv("CANON_STORE_DSN", "postgres://canon@localhost/sports?sslmode=disable")
			_ = os.Setenv("CANON_CACHE_ENABLED", "false")
			_ = os.Setenv("CANON_REDIS_ADDR", "redis:6379")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverPostgres)
				convey.So(cfg.StoreDSN, convey.ShouldStartWith, "postgres://")
				convey.So(cfg.CacheEnabled, convey.ShouldBeFalse)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# service
addr: ":9090"
chunk_size: 25
cache_backend: memory
cache_ttl_sec: 60 # one minute
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CANON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 25)
				convey.So(cfg.CacheBackend, convey.ShouldEqual, config.BackendMemory)
				convey.So(cfg.CacheTTLSec, convey.ShouldEqual, 60)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 4
chunk_size: 25
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CANON_CONFIG", tmpFile)
			_ = os.Setenv("CANON_ADDR", ":8080")
			_ = os.Setenv("CANON_WORKER_COUNT", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CANON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CANON_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CANON_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown driver", func() {
			_ = os.Setenv("CANON_STORE_DRIVER", "mysql")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "store_driver")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CANON_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

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
		"CANON_CONFIG",
		"CANON_ADDR",
		"CANON_QUEUE_SIZE",
		"CANON_WORKER_COUNT",
		"CANON_CHUNK_SIZE",
		"CANON_STORE_DRIVER",
		"CANON_STORE_DSN",
		"CANON_CACHE_ENABLED",
		"CANON_CACHE_BACKEND",
		"CANON_REDIS_ADDR",
		"CANON_CACHE_TTL_SEC",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "canon-config-*.yaml")
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
