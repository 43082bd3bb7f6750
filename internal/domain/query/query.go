// Package query turns loosely-typed lookup parameters into a closed set of
// resolution variants and owns the string normalization rules shared by the
// resolver, the batch paths and the cache key derivation.
package query

import "errors"

// ErrEmptyQuery is returned when none of market, team, player or league is present.
var ErrEmptyQuery = errors.New("at least one of market, team, player or league is required")

// Category names a resolution path. It doubles as the cache key namespace.
type Category string

const (
	CategoryTeam       Category = "team"
	CategoryPlayer     Category = "player"
	CategoryTeamPlayer Category = "team_player"
	CategoryLeague     Category = "league"
	CategoryMarket     Category = "market"
)

// ParseCategory maps a user-supplied name to a Category.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(Canonicalize(s)); c {
	case CategoryTeam, CategoryPlayer, CategoryTeamPlayer, CategoryLeague, CategoryMarket:
		return c, true
	default:
		return "", false
	}
}

// Params is the fixed set of optional lookup fields accepted at the boundary.
type Params struct {
	Market string `json:"market,omitempty"`
	Team   string `json:"team,omitempty"`
	Player string `json:"player,omitempty"`
	Sport  string `json:"sport,omitempty"`
	League string `json:"league,omitempty"`
}

// Normalized returns a copy with every field canonicalized.
func (p Params) Normalized() Params {
	return Params{
		Market: Canonicalize(p.Market),
		Team:   Canonicalize(p.Team),
		Player: Canonicalize(p.Player),
		Sport:  Canonicalize(p.Sport),
		League: Canonicalize(p.League),
	}
}

// IsEmpty reports whether no entity field is present. Sport alone is not a query.
func (p Params) IsEmpty() bool {
	n := p.Normalized()
	return n.Market == "" && n.Team == "" && n.Player == "" && n.League == ""
}

// Query is one resolvable lookup. The concrete types are TeamQuery,
// PlayerQuery, TeamPlayerQuery, LeagueQuery and MarketQuery.
type Query interface {
	// Category is the resolution path.
	Category() Category
	// Params returns the canonical parameters that identify this lookup.
	Params() Params
	// Key is the canonical key of the primary name.
	Key() string
}

// TeamQuery resolves teams, optionally scoped to a sport.
type TeamQuery struct {
	Name  string
	Sport string
}

func (q TeamQuery) Category() Category { return CategoryTeam }
func (q TeamQuery) Key() string        { return Canonicalize(q.Name) }
func (q TeamQuery) Params() Params {
	return Params{Team: Canonicalize(q.Name), Sport: Canonicalize(q.Sport)}
}

// PlayerQuery resolves players by name.
type PlayerQuery struct {
	Name string
}

func (q PlayerQuery) Category() Category { return CategoryPlayer }
func (q PlayerQuery) Key() string        { return Canonicalize(q.Name) }
func (q PlayerQuery) Params() Params     { return Params{Player: Canonicalize(q.Name)} }

// TeamPlayerQuery resolves players that belong to one of the matching teams.
type TeamPlayerQuery struct {
	Team   string
	Player string
	Sport  string
}

func (q TeamPlayerQuery) Category() Category { return CategoryTeamPlayer }
func (q TeamPlayerQuery) Key() string        { return Canonicalize(q.Player) }
func (q TeamPlayerQuery) Params() Params {
	return Params{Team: Canonicalize(q.Team), Player: Canonicalize(q.Player), Sport: Canonicalize(q.Sport)}
}

// LeagueQuery resolves leagues, optionally scoped to a sport.
type LeagueQuery struct {
	Name  string
	Sport string
}

func (q LeagueQuery) Category() Category { return CategoryLeague }
func (q LeagueQuery) Key() string        { return Canonicalize(q.Name) }
func (q LeagueQuery) Params() Params {
	return Params{League: Canonicalize(q.Name), Sport: Canonicalize(q.Sport)}
}

// MarketQuery resolves exactly one market.
type MarketQuery struct {
	Name string
}

func (q MarketQuery) Category() Category { return CategoryMarket }
func (q MarketQuery) Key() string        { return Canonicalize(q.Name) }
func (q MarketQuery) Params() Params     { return Params{Market: Canonicalize(q.Name)} }

// FromParams picks the variant for p. Team and player together form a
// combined lookup; otherwise team wins over player, player over league and
// league over market.
func FromParams(p Params) (Query, error) {
	n := p.Normalized()
	switch {
	case n.Team != "" && n.Player != "":
		return TeamPlayerQuery{Team: n.Team, Player: n.Player, Sport: n.Sport}, nil
	case n.Team != "":
		return TeamQuery{Name: n.Team, Sport: n.Sport}, nil
	case n.Player != "":
		return PlayerQuery{Name: n.Player}, nil
	case n.League != "":
		return LeagueQuery{Name: n.League, Sport: n.Sport}, nil
	case n.Market != "":
		return MarketQuery{Name: n.Market}, nil
	default:
		return nil, ErrEmptyQuery
	}
}
