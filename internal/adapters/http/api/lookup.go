package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
)

type lookupResponse struct {
	Found   bool         `json:"found"`
	Data    model.Result `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Query   query.Params `json:"query"`
}

// LookupHandler handles single lookups.
type LookupHandler struct {
	deps LookupDependencies
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps LookupDependencies) *LookupHandler {
	return &LookupHandler{deps: deps}
}

// HandleLookup handles GET /cache?market&team&player&sport&league requests.
func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	p := paramsFromQuery(r.URL.Query())
	if err := validateLookup(p); err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Resolve(r.Context(), p)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	if res == nil {
		writeJSON(w, http.StatusNotFound, lookupResponse{Found: false, Message: "no cache entry found", Query: p})
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Found: true, Data: res, Query: p})
}

func paramsFromQuery(v url.Values) query.Params {
	return query.Params{
		Market: v.Get("market"),
		Team:   v.Get("team"),
		Player: v.Get("player"),
		Sport:  v.Get("sport"),
		League: v.Get("league"),
	}
}

// validateLookup requires an entity and, for team-only and league lookups,
// a sport.
func validateLookup(p query.Params) error {
	if p.IsEmpty() {
		return query.ErrEmptyQuery
	}
	present := func(s string) bool { return strings.TrimSpace(s) != "" }
	switch {
	case present(p.Team) && !present(p.Player) && !present(p.Sport):
		return ErrSportRequired
	case present(p.League) && !present(p.Sport):
		return ErrSportRequired
	}
	return nil
}
