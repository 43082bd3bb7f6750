package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/canon/internal/adapters/cache"
	"github.com/okian/canon/internal/domain/query"
)

// CacheHandler handles cache administration requests.
type CacheHandler struct {
	deps CacheDependencies
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheDependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleStats handles GET /cache/stats requests.
func (h *CacheHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.CacheStats(r.Context()))
}

// HandleInvalidate handles DELETE /cache/invalidate requests. Either
// ?category=<name> drops a whole category or the lookup parameters name one
// entry.
func (h *CacheHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.invalidate"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}

	v := r.URL.Query()
	if raw := v.Get("category"); raw != "" {
		cat, ok := query.ParseCategory(raw)
		if !ok {
			writeFailure(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown category %q", raw)))
			return
		}
		n, ok := h.deps.InvalidateCategory(r.Context(), cat)
		if !ok {
			writeFailure(w, r, NewKind(op, ErrUnavailable))
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Status:  "success",
			Message: fmt.Sprintf("invalidated %s cache entries", cat),
			Deleted: &n,
		})
		return
	}

	removed, err := h.deps.Invalidate(r.Context(), paramsFromQuery(v))
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, statusResponse{Status: "not_found", Message: "cache entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "cache entry invalidated"})
}

// HandleClear handles DELETE /cache/clear requests.
func (h *CacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	if !h.deps.ClearAllCache(r.Context()) {
		if h.disabled(r) {
			writeJSON(w, http.StatusOK, statusResponse{Status: "disabled", Message: "cache disabled; nothing to clear"})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", errors.New("failed to clear cache"))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "all cache entries cleared"})
}

// disabled reports whether the cache is switched off by configuration, as
// opposed to failing.
func (h *CacheHandler) disabled(r *http.Request) bool {
	return h.deps.CacheStats(r.Context()).Status == cache.StatusDisabled
}
