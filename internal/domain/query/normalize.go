package query

import "strings"

// MinPrefixLen is the shortest canonical key that may trigger a prefix match.
// Keys of this length or shorter only match exactly.
const MinPrefixLen = 2

// Canonicalize lower-cases and trims s. It is idempotent.
func Canonicalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PrefixEligible reports whether a canonical key is long enough for prefix matching.
func PrefixEligible(key string) bool {
	return len([]rune(key)) > MinPrefixLen
}

// StripMarket lower-cases s and removes every space and underscore, so that
// "Rush Yards", "rush_yards" and "RushYards" compare equal.
func StripMarket(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// expansions is applied in order; earlier entries may feed later ones.
var expansions = []struct{ from, to string }{
	{"rush ", "rushing "},
	{"rec ", "receiving "},
	{"tds", "touchdowns"},
	{"ints", "interceptions"},
	{"fg", "field goal"},
	{"xp", "extra point"},
	{"1h", "1st half"},
	{"2h", "2nd half"},
	{"yrds", "yards"},
	{"yds", "yards"},
	{"att", "attempts"},
}

// ExpandTerms lower-cases s and expands common market abbreviations
// ("rush yds" -> "rushing yards").
func ExpandTerms(s string) string {
	out := strings.ToLower(s)
	for _, e := range expansions {
		out = strings.ReplaceAll(out, e.from, e.to)
	}
	return out
}
