package pos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/gaia/pkg/lexicon"
)

func newTestStore() *lexicon.Store {
	return lexicon.New(lexicon.Tables{
		Dictionary: map[string]lexicon.WordEntry{
			"katze":  {Category: lexicon.Noun, Definitions: []string{"cat"}},
			"laufen": {Category: lexicon.Verb},
			"schön":  {Category: lexicon.Adjective},
		},
		Rules: []lexicon.HeuristicRule{
			{
				Category: lexicon.Verb,
				Words:    map[string]struct{}{"ist": {}},
				Suffixes: []string{"en"},
			},
			{
				Category: lexicon.Noun,
				Words:    map[string]struct{}{},
				Suffixes: []string{"ung", "heit"},
				Prefixes: []string{"ge"},
			},
			{
				Category: lexicon.Adjective,
				Words:    map[string]struct{}{"gut": {}},
				Prefixes: []string{"un"},
			},
		},
		Wordlist: map[string]struct{}{"aardvark": {}, "katze": {}},
		Learned: map[string]lexicon.LearnedEntry{
			"schön": {Category: lexicon.Adverb, Confidence: 0.4},
		},
	})
}

func TestResolvePriority(t *testing.T) {
	r := NewResolver(newTestStore())

	tests := []struct {
		word string
		want Classification
	}{
		{"Schön", Classification{lexicon.Adverb, 0.4, SourceLearned}},
		{"KATZE", Classification{lexicon.Noun, DictionaryConfidence, SourceDictionary}},
		{"laufen", Classification{lexicon.Verb, DictionaryConfidence, SourceDictionary}},
		{"ist", Classification{lexicon.Verb, HeuristicConfidence, SourceHeuristic}},
		{"machen", Classification{lexicon.Verb, HeuristicConfidence, SourceHeuristic}},
		{"Zeitung", Classification{lexicon.Noun, HeuristicConfidence, SourceHeuristic}},
		{"gebot", Classification{lexicon.Noun, HeuristicConfidence, SourceHeuristic}},
		{"unklar", Classification{lexicon.Adjective, HeuristicConfidence, SourceHeuristic}},
		{"aardvark", Classification{lexicon.Unknown, ExternalListConfidence, SourceExternalList}},
		{"xyzzy", Classification{lexicon.Unknown, 0.0, SourceUnknown}},
		{"", Classification{lexicon.Unknown, 0.0, SourceUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.word))
		})
	}
}

func TestResolveRuleOrderWins(t *testing.T) {
	// "gehen" ends with "en" (verb rule, first) and starts with "ge" (noun rule, second).
	r := NewResolver(newTestStore())
	assert.Equal(t, lexicon.Verb, r.Resolve("gehen").Category)

	// Within one rule the word list beats suffixes and prefixes; "gut" is
	// listed under adjective and matches no earlier rule.
	assert.Equal(t, lexicon.Adjective, r.Resolve("gut").Category)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := newTestStore()
	r := NewResolver(store)
	before := store.LearnedSnapshot()

	for _, w := range []string{"katze", "machen", "aardvark", "xyzzy", "schön"} {
		first := r.Resolve(w)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, r.Resolve(w))
		}
	}
	assert.Equal(t, before, store.LearnedSnapshot())
	assert.Equal(t, 1, store.Counts()[lexicon.TableLearned])
}

func TestResolveContextRules(t *testing.T) {
	afterArticle := func(word string, ctx Context) (lexicon.Category, bool) {
		prev, ok := ctx.Previous()
		if ok && lexicon.Normalize(prev) == "der" {
			return lexicon.Noun, true
		}
		return "", false
	}
	r := NewResolver(newTestStore(), WithContextRules(afterArticle))

	got := r.ResolveAll([]string{"der", "Blorp", "xyzzy"})
	require.Len(t, got, 3)
	assert.Equal(t, SourceUnknown, got[0].Source)
	assert.Equal(t, Classification{lexicon.Noun, HeuristicConfidence, SourceHeuristic}, got[1])
	assert.Equal(t, SourceUnknown, got[2].Source)

	// Without context the hook is not consulted.
	assert.Equal(t, SourceUnknown, r.Resolve("Blorp").Source)
}

func TestResolveEmptyStore(t *testing.T) {
	r := NewResolver(lexicon.New(lexicon.Tables{}))
	got := r.Resolve("anything")
	assert.Equal(t, Classification{lexicon.Unknown, 0.0, SourceUnknown}, got)
	assert.False(t, got.Known())
}
