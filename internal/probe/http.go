package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/canon/pkg/logger"
)

// requestIDHeader matches the header the service echoes back.
const requestIDHeader = "X-Request-ID"

// HTTPClient wraps http.Client with timeout and run correlation
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
	runID   string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration, runID string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		runID:   runID,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// do tags the request with a per-request id derived from the run id.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set(requestIDHeader, c.runID+"-"+uuid.NewString()[:8])
	return c.client.Do(req)
}

// getJSON performs a GET and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v interface{}) (int, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return resp.StatusCode, err
	}
	if err := unmarshalJSON(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return resp.StatusCode, nil
}

// postJSON performs a POST and decodes the response into v.
func (c *HTTPClient) postJSON(ctx context.Context, url string, in, v interface{}) (int, error) {
	resp, err := c.Post(ctx, url, in)
	if err != nil {
		return 0, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := unmarshalJSON(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return resp.StatusCode, nil
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// runLoad posts the batch request config.Rounds times using a worker pool and
// records per-request latency.
func runLoad(ctx context.Context, config *Config, client *HTTPClient, batch interface{}, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "running load phase",
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers))

	url := config.BaseURL + "/cache/batch"

	var (
		sent   int64
		failed int64
		mu     sync.Mutex
	)
	latencies := make([]time.Duration, 0, config.Rounds)

	var lastReport atomic.Int64
	jobs := make(chan struct{}, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range jobs {
				if ctx.Err() != nil {
					return
				}
				began := time.Now()
				var out map[string]map[string]json.RawMessage
				_, err := client.postJSON(ctx, url, batch, &out)
				elapsed := time.Since(began)

				atomic.AddInt64(&sent, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					log.Debug(ctx, "batch request failed", logger.Error(err))
					continue
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if time.Duration(now-last) >= ProgressInterval && lastReport.CompareAndSwap(last, now) {
					log.Debug(ctx, "load progress",
						logger.Int64("sent", atomic.LoadInt64(&sent)),
						logger.Int64("failed", atomic.LoadInt64(&failed)),
						logger.Int("rounds", config.Rounds))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < config.Rounds; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- struct{}{}:
			}
		}
	}()

	wg.Wait()
	elapsed := time.Since(start)

	stats.BatchesSent = int(atomic.LoadInt64(&sent))
	stats.BatchesFailed = int(atomic.LoadInt64(&failed))
	if elapsed > 0 {
		stats.Throughput = float64(stats.BatchesSent) / elapsed.Seconds()
	}
	summarizeLatencies(latencies, stats)

	if err := ctx.Err(); err != nil {
		return err
	}
	if stats.BatchesFailed > 0 {
		return fmt.Errorf("%d of %d batch requests failed", stats.BatchesFailed, stats.BatchesSent)
	}
	return nil
}

// summarizeLatencies fills the latency percentiles of stats.
func summarizeLatencies(latencies []time.Duration, stats *Stats) {
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	stats.LatencyP50 = percentile(latencies, p50)
	stats.LatencyP95 = percentile(latencies, p95)
	stats.LatencyP99 = percentile(latencies, p99)
	stats.LatencyMax = latencies[len(latencies)-1]
}

// percentile returns the nearest-rank percentile of sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
