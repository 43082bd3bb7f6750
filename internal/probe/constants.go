package probe

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultRounds        = 200
	DefaultTimeout       = 30 * time.Second
	ProgressInterval     = time.Second
	PercentageMultiplier = 100
)

// Percentiles reported for the load phase.
const (
	p50 = 0.50
	p95 = 0.95
	p99 = 0.99
)
