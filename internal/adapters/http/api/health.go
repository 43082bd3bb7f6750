package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/canon/internal/adapters/cache"
	"github.com/okian/canon/pkg/metrics"
)

// Health states reported by /healthz.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

type healthResponse struct {
	Status string      `json:"status"`
	Store  string      `json:"store"`
	Cache  cache.Stats `json:"cache"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz requests. An unreachable store is
// unhealthy (503); an enabled cache that is not online only degrades.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	resp := healthResponse{Status: healthHealthy, Store: "ok", Cache: h.deps.CacheStats(r.Context())}
	if resp.Cache.Status != cache.StatusOnline && resp.Cache.Status != cache.StatusDisabled {
		resp.Status = healthDegraded
	}
	if err := h.deps.Ping(r.Context()); err != nil {
		resp.Status = healthUnhealthy
		resp.Store = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NewMetricsHandler serves the process metrics registry.
func NewMetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
