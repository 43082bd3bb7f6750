// Package ranking orders resolved entities so that marquee leagues come first.
package ranking

import (
	"sort"
	"strings"
)

// Unranked is the priority of every league not covered by a rule.
const Unranked = 999

// Rule assigns Priority to a league label when any group matches. A group
// matches when every one of its substrings occurs in the lower-cased label.
type Rule struct {
	Priority int
	Groups   [][]string
}

// DefaultRules ranks the five major European football leagues.
func DefaultRules() []Rule {
	return []Rule{
		{Priority: 1, Groups: [][]string{{"premier league", "england"}}},
		{Priority: 2, Groups: [][]string{{"la liga"}, {"liga", "spain"}}},
		{Priority: 3, Groups: [][]string{{"bundesliga"}}},
		{Priority: 4, Groups: [][]string{{"serie a"}, {"serie", "italy"}}},
		{Priority: 5, Groups: [][]string{{"ligue 1"}, {"ligue", "france"}}},
	}
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(r *Ranker) {
		if len(rules) > 0 {
			r.rules = rules
		}
	}
}

// Ranker maps league labels to priorities. Lower sorts first.
type Ranker struct {
	rules []Rule
}

// New creates a Ranker with the default rule table.
func New(opts ...Option) *Ranker {
	r := &Ranker{rules: DefaultRules()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Priority returns the first matching rule's priority, or Unranked.
// The label is usually the league name followed by its region.
func (r *Ranker) Priority(label string) int {
	l := strings.ToLower(label)
	for _, rule := range r.rules {
		for _, group := range rule.Groups {
			if containsAll(l, group) {
				return rule.Priority
			}
		}
	}
	return Unranked
}

func containsAll(s string, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// Label joins a league name and its region for Priority.
func Label(league, region string) string {
	if region == "" {
		return league
	}
	return league + " " + region
}

// Sort orders items by priority of their league label and then by name,
// case-insensitively. It is stable.
func Sort[T any](r *Ranker, items []T, label func(T) string, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := r.Priority(label(items[i])), r.Priority(label(items[j]))
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}
