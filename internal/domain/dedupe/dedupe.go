// Package dedupe collapses many spellings of the same name onto one canonical
// key so each distinct name is resolved against the store only once.
package dedupe

import (
	"github.com/okian/canon/internal/domain/query"
)

// Group is one canonical key and every original spelling that maps to it,
// in order of first appearance.
type Group struct {
	Key       string
	Spellings []string
}

// Grouper partitions input names by canonical key.
type Grouper struct {
	key func(string) string
}

// New creates a Grouper. The default key function is query.Canonicalize.
func New(opts ...Option) *Grouper {
	g := &Grouper{key: query.Canonicalize}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key returns the canonical key for name.
func (g *Grouper) Key(name string) string {
	return g.key(name)
}

// Group returns one Group per distinct non-empty canonical key, ordered by
// first appearance. Exact duplicate spellings are listed once. Names whose
// key is empty are dropped.
func (g *Grouper) Group(names []string) []Group {
	index := make(map[string]int, len(names))
	seen := make(map[string]struct{}, len(names))
	groups := make([]Group, 0, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		k := g.key(name)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Spellings = append(groups[i].Spellings, name)
	}
	return groups
}

// Keys extracts the canonical keys of groups, preserving order.
func Keys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, grp := range groups {
		keys[i] = grp.Key
	}
	return keys
}

// Unique returns names with exact duplicates removed, preserving order.
func Unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
