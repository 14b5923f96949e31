package grammar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/gaia/pkg/lexicon"
)

var (
	N   = lexicon.Noun
	V   = lexicon.Verb
	Adj = lexicon.Adjective
	Adv = lexicon.Adverb
)

func TestValidateSVO(t *testing.T) {
	m := NewMatcher([]lexicon.SyntaxPattern{{Name: "SVO", Sequence: []lexicon.Category{N, V, N}}})

	tests := []struct {
		name string
		seq  []lexicon.Category
		want bool
	}{
		{"exact", []lexicon.Category{N, V, N}, true},
		{"flexible ending", []lexicon.Category{N, V, N, Adj}, true},
		{"flexible ending adverbs", []lexicon.Category{N, V, N, Adv, Adv}, true},
		{"wrong order", []lexicon.Category{V, N}, false},
		{"too short", []lexicon.Category{N, V}, false},
		{"empty", nil, false},
		{"mismatch in middle", []lexicon.Category{N, N, N}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Validate(tt.seq)
			assert.Equal(t, tt.want, got.Has("SVO"))
			assert.Equal(t, !tt.want, got.Empty())
		})
	}
}

func TestValidateMultipleMatches(t *testing.T) {
	m := NewMatcher([]lexicon.SyntaxPattern{
		{Name: "SV", Sequence: []lexicon.Category{N, V}},
		{Name: "SVO", Sequence: []lexicon.Category{N, V, N}},
		{Name: "SVA", Sequence: []lexicon.Category{N, V, Adj}},
		{Name: "Any", Sequence: nil},
	})

	got := m.Validate([]lexicon.Category{N, V, N, Adv})
	assert.Equal(t, []string{"Any", "SV", "SVO"}, got.Names())

	got = m.Validate([]lexicon.Category{"particle"})
	assert.Equal(t, []string{"Any"}, got.Names())
}

func TestValidateNoPatterns(t *testing.T) {
	got := NewMatcher(nil).Validate([]lexicon.Category{N, V, N})
	assert.True(t, got.Empty())
	assert.Empty(t, got.Names())
}

func TestHints(t *testing.T) {
	h := NewHints(map[string]string{
		"Sein": "irregular verb",
		"noun": "Nouns are capitalized.",
	})
	classify := ClassifierFunc(func(word string) lexicon.Category {
		if lexicon.Normalize(word) == "katze" {
			return lexicon.Noun
		}
		return lexicon.Unknown
	})

	assert.Equal(t, "irregular verb", h.Hint("sein", classify))
	assert.Equal(t, "Nouns are capitalized.", h.Hint("Katze", classify))
	assert.Equal(t, NoHint, h.Hint("blorp", classify))
	assert.Equal(t, NoHint, h.Hint("katze", nil))
}

func TestLoadHints(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "grammar_rules.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"rules": {"verb": "Verbs conjugate."}}`), 0o644))

	h, err := LoadHints(p)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Len())

	h, err = LoadHints(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, lexicon.ErrSourceUnavailable))
	require.NotNil(t, h)
	assert.Equal(t, NoHint, h.Hint("anything", nil))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"rules": [`), 0o644))
	_, err = LoadHints(bad)
	assert.True(t, errors.Is(err, lexicon.ErrSourceMalformed))
}
