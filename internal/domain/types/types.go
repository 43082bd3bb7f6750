// Package types contains the request and response shapes shared by the
// batch resolver, the service facade and the HTTP adapter.
package types

import (
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
)

// BatchRequest lists independent names per category. Sport scopes team and
// league lookups.
type BatchRequest struct {
	Teams   []string `json:"team,omitempty"`
	Players []string `json:"player,omitempty"`
	Markets []string `json:"market,omitempty"`
	Leagues []string `json:"league,omitempty"`
	Sport   string   `json:"sport,omitempty"`
}

// Size is the total number of names in the request.
func (r BatchRequest) Size() int {
	return len(r.Teams) + len(r.Players) + len(r.Markets) + len(r.Leagues)
}

// BatchResults maps category -> input name -> result. A nil result means
// the name did not resolve.
type BatchResults map[query.Category]map[string]model.Result

// PrecisionRequest is an ordered list of combined lookups.
type PrecisionRequest struct {
	Queries []query.Params `json:"queries"`
}

// PrecisionOutcome is the result of one precision lookup, in input position.
type PrecisionOutcome struct {
	Query query.Params `json:"query"`
	Found bool         `json:"found"`
	Data  model.Result `json:"data"`
}

// PrecisionResults preserves the order of PrecisionRequest.Queries.
type PrecisionResults struct {
	Results    []PrecisionOutcome `json:"results"`
	Total      int                `json:"total_queries"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
}
