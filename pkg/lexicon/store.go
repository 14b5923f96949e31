// Package lexicon holds the knowledge tables GAIA classifies words against:
// the curated dictionary, heuristic POS rules, the external wordlist, syntax
// patterns and the learned-word table.
package lexicon

import (
	"sort"
	"sync"
)

// Store owns the five knowledge tables. Everything except the learned table is
// read-only after construction; the learned table is guarded by mu.
type Store struct {
	dictionary map[string]WordEntry
	rules      []HeuristicRule
	wordlist   map[string]struct{}
	patterns   []SyntaxPattern

	// byCategory indexes dictionary words by category for WordsOfCategory.
	byCategory map[Category][]string

	mu      sync.RWMutex
	learned map[string]LearnedEntry
}

// New builds a Store from already loaded tables. Nil tables are treated as empty.
// Keys are normalized; the maps passed in are not retained.
func New(t Tables) *Store {
	s := &Store{
		dictionary: make(map[string]WordEntry, len(t.Dictionary)),
		rules:      append([]HeuristicRule(nil), t.Rules...),
		wordlist:   make(map[string]struct{}, len(t.Wordlist)),
		patterns:   append([]SyntaxPattern(nil), t.Patterns...),
		byCategory: make(map[Category][]string),
		learned:    make(map[string]LearnedEntry, len(t.Learned)),
	}
	// Keys that collide after normalization resolve to the one already in
	// normal form, else the smallest original key.
	origin := make(map[string]string, len(t.Dictionary))
	for w, e := range t.Dictionary {
		k := Normalize(w)
		if prev, ok := origin[k]; ok && (prev == k || (w != k && prev < w)) {
			continue
		}
		origin[k] = w
		s.dictionary[k] = e
	}
	for k, e := range s.dictionary {
		s.byCategory[e.Category] = append(s.byCategory[e.Category], k)
	}
	for _, words := range s.byCategory {
		sort.Strings(words)
	}
	for w := range t.Wordlist {
		s.wordlist[Normalize(w)] = struct{}{}
	}
	for w, e := range t.Learned {
		e.Confidence = ClampConfidence(e.Confidence)
		s.learned[Normalize(w)] = e
	}
	return s
}

// Entry returns the curated dictionary entry for word.
func (s *Store) Entry(word string) (WordEntry, bool) {
	e, ok := s.dictionary[Normalize(word)]
	return e, ok
}

// Rules returns the heuristic rules in evaluation order. Callers must not modify them.
func (s *Store) Rules() []HeuristicRule { return s.rules }

// HasWord reports whether word is present in the external wordlist.
func (s *Store) HasWord(word string) bool {
	_, ok := s.wordlist[Normalize(word)]
	return ok
}

// Patterns returns the syntax patterns in file order. Callers must not modify them.
func (s *Store) Patterns() []SyntaxPattern { return s.patterns }

// WordsOfCategory returns the sorted dictionary words tagged with cat.
func (s *Store) WordsOfCategory(cat Category) []string {
	return append([]string(nil), s.byCategory[cat]...)
}

// Categories returns every category used by the dictionary or the rules, sorted.
func (s *Store) Categories() []Category {
	seen := make(map[Category]struct{})
	for c := range s.byCategory {
		seen[c] = struct{}{}
	}
	for _, r := range s.rules {
		seen[r.Category] = struct{}{}
	}
	out := make([]Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Learned returns the learned entry for word.
func (s *Store) Learned(word string) (LearnedEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.learned[Normalize(word)]
	return e, ok
}

// LearnedSnapshot returns a copy of the learned table.
func (s *Store) LearnedSnapshot() map[string]LearnedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]LearnedEntry, len(s.learned))
	for k, v := range s.learned {
		out[k] = v
	}
	return out
}

// UpdateLearned atomically replaces the learned entry for word with the result
// of fn, which receives the current entry and whether it existed. The stored
// confidence is clamped to [0, 1].
func (s *Store) UpdateLearned(word string, fn func(cur LearnedEntry, ok bool) LearnedEntry) LearnedEntry {
	key := Normalize(word)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.learned[key]
	next := fn(cur, ok)
	next.Confidence = ClampConfidence(next.Confidence)
	s.learned[key] = next
	return next
}

// Counts returns the number of rows in each table.
func (s *Store) Counts() map[Table]int {
	s.mu.RLock()
	learned := len(s.learned)
	s.mu.RUnlock()
	return map[Table]int{
		TableDictionary: len(s.dictionary),
		TableRules:      len(s.rules),
		TableWordlist:   len(s.wordlist),
		TablePatterns:   len(s.patterns),
		TableLearned:    learned,
	}
}
