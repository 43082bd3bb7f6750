package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/canon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 5)
			convey.So(cfg.ChunkSize, convey.ShouldEqual, 50)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.CacheBackend, convey.ShouldEqual, config.BackendRedis)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, time.Hour)
			convey.So(cfg.CacheOpTimeout(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.StoreConnMaxLifetime(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.TaskTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with an invalid setting", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"addr", func(c *config.Config) { c.Addr = "" }},
			{"worker_count", func(c *config.Config) { c.WorkerCount = 0 }},
			{"queue_size", func(c *config.Config) { c.QueueSize = -1 }},
			{"chunk_size", func(c *config.Config) { c.ChunkSize = 0 }},
			{"task_timeout", func(c *config.Config) { c.TaskTimeoutMS = -1 }},
			{"store_dsn", func(c *config.Config) { c.StoreDSN = "" }},
			{"cache_ttl", func(c *config.Config) { c.CacheTTLSec = 0 }},
			{"store_driver", func(c *config.Config) { c.StoreDriver = "oracle" }},
			{"backend", func(c *config.Config) { c.CacheBackend = "memcached" }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then validation fails for "+tc.name, func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
