// Package grammar validates category sequences against known sentence
// patterns and serves grammar hints.
package grammar

import (
	"sort"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// Pattern is a named category sequence.
type Pattern = lexicon.SyntaxPattern

// MatchSet is the set of pattern names satisfied by a category sequence.
type MatchSet map[string]struct{}

// Has reports whether the named pattern matched.
func (m MatchSet) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Empty reports whether no pattern matched.
func (m MatchSet) Empty() bool { return len(m) == 0 }

// Names returns the matched pattern names, sorted.
func (m MatchSet) Names() []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Matcher checks category sequences against a fixed list of syntax patterns.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher creates a Matcher over patterns. The slice is not copied; patterns
// are immutable for the life of a Store.
func NewMatcher(patterns []Pattern) *Matcher {
	return &Matcher{patterns: patterns}
}

// Patterns returns the patterns the matcher tests against.
func (m *Matcher) Patterns() []Pattern { return m.patterns }

// Validate returns every pattern whose sequence is a prefix of seq. Trailing
// categories beyond a pattern's length are allowed; a sequence shorter than a
// pattern never matches it. Patterns are tested independently.
func (m *Matcher) Validate(seq []lexicon.Category) MatchSet {
	out := make(MatchSet)
	for _, p := range m.patterns {
		if isPrefix(p.Sequence, seq) {
			out[p.Name] = struct{}{}
		}
	}
	return out
}

func isPrefix(pattern, seq []lexicon.Category) bool {
	if len(seq) < len(pattern) {
		return false
	}
	for i, c := range pattern {
		if seq[i] != c {
			return false
		}
	}
	return true
}
