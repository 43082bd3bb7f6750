package probe

import (
	"time"

	"github.com/okian/canon/internal/domain/query"
)

// Config holds configuration for a probe run
type Config struct {
	BaseURL string        // Base URL of the service
	Teams   []string      // Team names to resolve
	Players []string      // Player names to resolve
	Markets []string      // Market names to resolve
	Sport   string        // Sport scoping team lookups
	Rounds  int           // Number of batch requests in the load phase
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Log file for probe output
	Verbose bool          // Enable verbose logging
}

// lookupResponse mirrors the body of GET /cache.
type lookupResponse struct {
	Found   bool         `json:"found"`
	Message string       `json:"message"`
	Query   query.Params `json:"query"`
}

// cacheStats mirrors the fields of GET /cache/stats the probe relies on.
type cacheStats struct {
	Status string `json:"status"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

// healthResponse mirrors the body of GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
}

// Stats holds probe statistics
type Stats struct {
	RunID            string
	LookupsSent      int
	LookupsFound     int
	HitsGained       int64
	VariantsChecked  int
	PrecisionQueries int
	BatchesSent      int
	BatchesFailed    int
	LatencyP50       time.Duration
	LatencyP95       time.Duration
	LatencyP99       time.Duration
	LatencyMax       time.Duration
	Throughput       float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
