package cache

import (
	"time"

	"github.com/okian/canon/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTTL sets the default entry lifetime used by Set.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithOpTimeout bounds every backend call.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// WithEnabled turns the client off when false. A disabled client misses on
// every Get and refuses every write.
func WithEnabled(enabled bool) Option {
	return func(c *Client) {
		c.enabled = enabled
	}
}
