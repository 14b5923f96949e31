package lexicon

// Table names one of the five backing tables of the knowledge store.
type Table string

const (
	TableDictionary Table = "dictionary"
	TableRules      Table = "rules"
	TableWordlist   Table = "wordlist"
	TablePatterns   Table = "patterns"
	TableLearned    Table = "learned"
)

// AllTables lists the tables in load/report order.
var AllTables = []Table{TableDictionary, TableRules, TableWordlist, TablePatterns, TableLearned}

// WordEntry is a curated dictionary entry.
type WordEntry struct {
	Category    Category
	Definitions []string
	Examples    []string
}

// HeuristicRule classifies a word as Category when it is listed in Words,
// ends with one of Suffixes, or starts with one of Prefixes (checked in that
// order). All strings are stored lowercased.
type HeuristicRule struct {
	Category Category
	Words    map[string]struct{}
	Suffixes []string
	Prefixes []string
}

// LearnedEntry is a classification learned at runtime.
// Confidence is always within [0, 1].
type LearnedEntry struct {
	Category   Category
	Confidence float64
}

// SyntaxPattern is a named category sequence describing an allowed sentence prefix.
type SyntaxPattern struct {
	Name     string
	Sequence []Category
}

// Tables bundles the five tables of a Store. It is the input of New.
type Tables struct {
	Dictionary map[string]WordEntry
	Rules      []HeuristicRule
	Wordlist   map[string]struct{}
	Patterns   []SyntaxPattern
	Learned    map[string]LearnedEntry
}

// ClampConfidence limits c to [0, 1]. NaN maps to 0.
func ClampConfidence(c float64) float64 {
	switch {
	case c != c:
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
