// Package repository is the read-only entity store: sports, leagues, teams,
// players, markets and their alias tables behind database/sql.
package repository

import (
	"context"

	"github.com/okian/canon/internal/domain/model"
)

// Entity selects the table family a match runs against.
type Entity string

const (
	EntityTeam   Entity = "team"
	EntityPlayer Entity = "player"
	EntityLeague Entity = "league"
)

// Filter narrows matches and projections.
type Filter struct {
	// Sport restricts rows to a sport name (case-insensitive). Empty means any.
	Sport string
	// Nicknames adds team nickname equality to the exact tier.
	Nicknames bool
	// TeamIDs restricts player projections to members of these teams.
	TeamIDs []int64
}

// Matches maps a canonical key to the entity ids it matched, in first-seen order.
type Matches map[string][]int64

// IDs returns the union of all matched ids, in first-seen order.
func (m Matches) IDs(keys []string) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, k := range keys {
		for _, id := range m[k] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Merge adds src into m, skipping ids already recorded for a key.
func (m Matches) Merge(src Matches) {
	for k, ids := range src {
		for _, id := range ids {
			m.add(k, id)
		}
	}
}

func (m Matches) add(key string, id int64) {
	for _, existing := range m[key] {
		if existing == id {
			return
		}
	}
	m[key] = append(m[key], id)
}

// MarketAlias is one row of market_aliases.
type MarketAlias struct {
	Alias    string
	MarketID int64
}

// Store hands out sessions pinned to a single connection.
type Store interface {
	Session(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// Session runs every statement on one connection. Callers must Close it.
//
// Match methods take canonical keys (lower-cased, trimmed) and return, per
// key, the ids that matched. Projection methods return rows in id order; the
// caller is responsible for presentation order.
type Session interface {
	AliasMatches(ctx context.Context, e Entity, keys []string, f Filter) (Matches, error)
	ExactMatches(ctx context.Context, e Entity, keys []string, f Filter) (Matches, error)
	PrefixMatches(ctx context.Context, e Entity, keys []string, f Filter) (Matches, error)

	Teams(ctx context.Context, ids []int64, f Filter) ([]model.TeamView, error)
	Players(ctx context.Context, ids []int64, f Filter) ([]model.PlayerView, error)
	Leagues(ctx context.Context, ids []int64, f Filter) ([]model.LeagueView, error)

	MarketByAlias(ctx context.Context, stripped string) (model.Market, bool, error)
	MarketByName(ctx context.Context, stripped string) (model.Market, bool, error)
	MarketByPrefix(ctx context.Context, prefix string) (model.Market, bool, error)
	MarketSports(ctx context.Context, ids []int64) (map[int64][]string, error)
	Markets(ctx context.Context) ([]model.Market, error)
	MarketAliases(ctx context.Context) ([]MarketAlias, error)

	Close() error
}
