package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/canon/internal/domain/query"
)

// Namespace prefixes every key the cache owns.
const Namespace = "cache"

// Key derives the cache key for p. Fields are canonicalized first, so keys
// are insensitive to case and surrounding whitespace. The readable prefix
// names the lookup; the hash of the sorted parameters makes it unique.
func Key(p query.Params) string {
	n := p.Normalized()

	fields := make(map[string]string, 5)
	for k, v := range map[string]string{
		"market": n.Market,
		"team":   n.Team,
		"player": n.Player,
		"sport":  n.Sport,
		"league": n.League,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	// encoding/json writes map keys in sorted order
	raw, _ := json.Marshal(fields)
	hash := fmt.Sprintf("%016x", xxhash.Sum64(raw))

	return Namespace + ":" + prefix(n) + ":" + hash
}

func prefix(n query.Params) string {
	switch {
	case n.Market != "":
		return string(query.CategoryMarket) + ":" + n.Market
	case n.League != "":
		return string(query.CategoryLeague) + ":" + n.League + ":" + n.Sport
	case n.Team != "" && n.Player != "":
		return string(query.CategoryTeamPlayer) + ":" + n.Team + ":" + n.Player
	case n.Team != "":
		return string(query.CategoryTeam) + ":" + n.Team + ":" + n.Sport
	case n.Player != "":
		return string(query.CategoryPlayer) + ":" + n.Player
	default:
		return "query"
	}
}

// CategoryPattern matches every key written for lookups of category c.
func CategoryPattern(c query.Category) string {
	return Namespace + ":" + string(c) + ":*"
}

// AllPattern matches every key the cache owns.
func AllPattern() string {
	return Namespace + ":*"
}
