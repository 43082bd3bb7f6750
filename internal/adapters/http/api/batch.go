package api

import (
	"fmt"
	"net/http"

	"github.com/okian/canon/internal/domain/types"
)

// BatchHandler handles independent and precision batch requests.
type BatchHandler struct {
	deps     BatchDependencies
	maxItems int
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies, maxItems int) *BatchHandler {
	return &BatchHandler{deps: deps, maxItems: maxItems}
}

// HandleBatch handles POST /cache/batch requests.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if n := req.Size(); n > h.maxItems {
		writeFailure(w, r, WrapKind(op, ErrTooManyItems, fmt.Errorf("%d names, limit %d", n, h.maxItems)))
		return
	}

	res, err := h.deps.ResolveBatch(r.Context(), req)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePrecision handles POST /cache/batch/precision requests.
func (h *BatchHandler) HandlePrecision(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch_precision"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.PrecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if n := len(req.Queries); n > h.maxItems {
		writeFailure(w, r, WrapKind(op, ErrTooManyItems, fmt.Errorf("%d queries, limit %d", n, h.maxItems)))
		return
	}

	res, err := h.deps.ResolvePrecisionBatch(r.Context(), req.Queries)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
