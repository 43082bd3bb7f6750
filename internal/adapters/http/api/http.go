// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/canon/internal/adapters/cache"
	"github.com/okian/canon/internal/adapters/repository"
	service "github.com/okian/canon/internal/app"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
)

const (
	defaultMaxBatchItems = 500
	maxBodyBytes         = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LookupDependencies
	BatchDependencies
	CacheDependencies
	HealthDependencies
}

// LookupDependencies resolves single lookups.
type LookupDependencies interface {
	Resolve(ctx context.Context, p query.Params) (model.Result, error)
}

// BatchDependencies resolves independent and precision batches.
type BatchDependencies interface {
	ResolveBatch(ctx context.Context, req types.BatchRequest) (types.BatchResults, error)
	ResolvePrecisionBatch(ctx context.Context, queries []query.Params) (types.PrecisionResults, error)
}

// CacheDependencies administers the result cache.
type CacheDependencies interface {
	Invalidate(ctx context.Context, p query.Params) (bool, error)
	InvalidateCategory(ctx context.Context, c query.Category) (int64, bool)
	ClearAllCache(ctx context.Context) bool
	CacheStats(ctx context.Context) cache.Stats
}

// HealthDependencies reports backing store health and cache state.
type HealthDependencies interface {
	Ping(ctx context.Context) error
	CacheStats(ctx context.Context) cache.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	lookupHandler  *LookupHandler
	batchHandler   *BatchHandler
	cacheHandler   *CacheHandler
	metricsHandler http.Handler
}

// NewServer creates a new API server with all handlers. maxBatchItems caps
// the names of one batch request; values below one use the default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBatchItems int) *Server {
	if maxBatchItems < 1 {
		maxBatchItems = defaultMaxBatchItems
	}
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		lookupHandler:  NewLookupHandler(deps),
		batchHandler:   NewBatchHandler(deps, maxBatchItems),
		cacheHandler:   NewCacheHandler(deps),
		metricsHandler: NewMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", route(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", route(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", s.metricsHandler)
	mux.HandleFunc("/cache/batch/precision", route(s.batchHandler.HandlePrecision, "cache_batch_precision"))
	mux.HandleFunc("/cache/batch", route(s.batchHandler.HandleBatch, "cache_batch"))
	mux.HandleFunc("/cache/stats", route(s.cacheHandler.HandleStats, "cache_stats"))
	mux.HandleFunc("/cache/invalidate", route(s.cacheHandler.HandleInvalidate, "cache_invalidate"))
	mux.HandleFunc("/cache/clear", route(s.cacheHandler.HandleClear, "cache_clear"))
	mux.HandleFunc("/cache", route(s.lookupHandler.HandleLookup, "cache"))
}

func route(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(h, endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Deleted *int64 `json:"deleted,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to its HTTP status and writes it.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	writeError(w, r, status, code, err)
}

// statusFor classifies an upstream error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, query.ErrEmptyQuery),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrSportRequired),
		errors.Is(err, ErrTooManyItems):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
