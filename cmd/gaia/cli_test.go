package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/gaia/pkg/lexicon"
	"github.com/japaniel/gaia/pkg/pos"
)

var fixtures = map[string]string{
	"dictionary.json": `{
  "cat":  {"type": "noun", "definitions": ["a small domesticated feline"], "examples": ["The cat sleeps."]},
  "dog":  {"type": "noun", "definitions": ["a domesticated canine"], "examples": []},
  "eats": {"type": "verb", "definitions": ["consumes food"], "examples": []},
  "sees": {"type": "verb", "definitions": ["perceives with the eyes"], "examples": []}
}`,
	"pos_rules.json":        `{"adverb": {"suffixes": ["ly"]}, "noun": {"suffixes": ["tion"]}}`,
	"syntax_patterns.json":  `{"patterns": [{"name": "SVO", "sequence": ["noun", "verb", "noun"]}, {"name": "SV", "sequence": ["noun", "verb"]}]}`,
	"grammar_rules.json":    `{"rules": {"verb": "Verbs describe actions.", "cat": "Cats are nouns."}}`,
	"words_dictionary.json": `{"aardvark": 1, "cat": 1}`,
}

// setupWorkspace writes the knowledge fixtures and a config file and returns
// the config path and the data directory.
func setupWorkspace(t *testing.T, backend string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "knowledge")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	for name, content := range fixtures {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644))
	}
	cfg := "data:\n  dir: " + dataDir + "\n" +
		"db:\n  path: " + filepath.Join(dir, "gaia.db") + "\n" +
		"learning:\n  backend: " + backend + "\n" +
		"log:\n  level: error\n"
	cfgPath := filepath.Join(dir, "gaia.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dataDir
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLookup(t *testing.T) {
	cfgPath, _ := setupWorkspace(t, "json")

	out, err := runCLI(t, cfgPath, "lookup", "Cat", "zebra")
	require.NoError(t, err)
	assert.Contains(t, out, "Part of speech: noun")
	assert.Contains(t, out, " - a small domesticated feline")
	assert.Contains(t, out, " - The cat sleeps.")
	assert.Contains(t, out, "GAIA does not yet know the word 'zebra'.")
}

func TestLookupRequiresDictionary(t *testing.T) {
	cfgPath, dataDir := setupWorkspace(t, "json")
	require.NoError(t, os.Remove(filepath.Join(dataDir, "dictionary.json")))

	_, err := runCLI(t, cfgPath, "lookup", "cat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lexicon.ErrMissingRequiredSource))

	// Other commands degrade instead.
	out, err := runCLI(t, cfgPath, "pos", "quickly")
	require.NoError(t, err)
	assert.Contains(t, out, "adverb")
}

func TestPosJSON(t *testing.T) {
	cfgPath, _ := setupWorkspace(t, "json")

	out, err := runCLI(t, cfgPath, "-o", "json", "pos", "cat", "quickly", "aardvark", "xyzzy")
	require.NoError(t, err)
	var got []posResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 4)
	assert.Equal(t, pos.Classification{Category: lexicon.Noun, Confidence: 0.95, Source: pos.SourceDictionary}, got[0].Classification)
	assert.Equal(t, pos.SourceHeuristic, got[1].Source)
	assert.Equal(t, pos.SourceExternalList, got[2].Source)
	assert.Equal(t, pos.SourceUnknown, got[3].Source)
}

func TestPosTrimsPunctuation(t *testing.T) {
	cfgPath, _ := setupWorkspace(t, "json")

	out, err := runCLI(t, cfgPath, "-o", "json", "pos", "cat.", "eats,", "...")
	require.NoError(t, err)
	var got []posResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "cat", got[0].Word)
	assert.Equal(t, pos.SourceDictionary, got[0].Source)
	assert.Equal(t, "eats", got[1].Word)
	assert.Equal(t, lexicon.Verb, got[1].Category)

	_, err = runCLI(t, cfgPath, "pos", "?!")
	assert.Error(t, err)
}

func TestLearnAveragesAndPersists(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfgPath, dataDir := setupWorkspace(t, backend)

			_, err := runCLI(t, cfgPath, "learn", "Blorp", "verb", "--confidence", "0.8")
			require.NoError(t, err)
			out, err := runCLI(t, cfgPath, "-o", "json", "learn", "blorp", "noun", "--confidence", "0.4")
			require.NoError(t, err)

			var res posResult
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.Equal(t, lexicon.Noun, res.Category)
			assert.InDelta(t, 0.6, res.Confidence, 1e-9)

			out, err = runCLI(t, cfgPath, "-o", "json", "pos", "blorp")
			require.NoError(t, err)
			var got []posResult
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			require.Len(t, got, 1)
			assert.Equal(t, pos.SourceLearned, got[0].Source)
			assert.InDelta(t, 0.6, got[0].Confidence, 1e-9)

			_, statErr := os.Stat(filepath.Join(dataDir, "learned_words.json"))
			if backend == "json" {
				assert.NoError(t, statErr)
			} else {
				assert.True(t, os.IsNotExist(statErr))
			}

			out, err = runCLI(t, cfgPath, "memories", "--limit", "10")
			require.NoError(t, err)
			assert.Contains(t, out, "GAIA learned the word 'blorp' as verb")
			assert.Contains(t, out, "GAIA learned the word 'blorp' as noun")
		})
	}
}

func TestLearnRejectsBadCategory(t *testing.T) {
	cfgPath, _ := setupWorkspace(t, "json")
	_, err := runCLI(t, cfgPath, "learn", "blorp", "")
	assert.True(t, errors.Is(err, lexicon.ErrInvalidCategory))
}

func TestValidateAndHint(t *testing.T) {
	cfgPath, _ := setupWorkspace(t, "json")

	out, err := runCLI(t, cfgPath, "validate", "Cat eats dog quickly.")
	require.NoError(t, err)
	assert.Contains(t, out, "Syntax pattern matched: SV, SVO")

	out, err = runCLI(t, cfgPath, "validate", "eats", "cat")
	require.NoError(t, err)
	assert.Contains(t, out, "No syntax pattern matched.")

	out, err = runCLI(t, cfgPath, "hint", "cat", "sees", "zebra")
	require.NoError(t, err)
	assert.Contains(t, out, "Cats are nouns.")
	assert.Contains(t, out, "Verbs describe actions.")
	assert.Contains(t, out, "No specific grammar rule found.")
}

func TestAnalyzeFile(t *testing.T) {
	cfgPath, dataDir := setupWorkspace(t, "json")
	text := filepath.Join(dataDir, "story.txt")
	require.NoError(t, os.WriteFile(text, []byte("Cat sees dog. Dog eats.\nBlorp zing!"), 0o644))

	out, err := runCLI(t, cfgPath, "-o", "json", "analyze", "--file", text)
	require.NoError(t, err)
	var rep analyzeReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Sentences, 3)
	assert.Equal(t, 2, rep.Valid)
	assert.Equal(t, []string{"SV", "SVO"}, rep.Sentences[0].Patterns)
	assert.Equal(t, "Blorp zing!", rep.Sentences[2].Text)
}

func TestWordsAndStatus(t *testing.T) {
	cfgPath, dataDir := setupWorkspace(t, "json")

	out, err := runCLI(t, cfgPath, "words", "noun")
	require.NoError(t, err)
	assert.Equal(t, "cat\ndog\n", out)

	out, err = runCLI(t, cfgPath, "-o", "json", "words")
	require.NoError(t, err)
	var counts []categoryCount
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	assert.Equal(t, []categoryCount{{lexicon.Adverb, 0}, {lexicon.Noun, 2}, {lexicon.Verb, 2}}, counts)

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "pos_rules.json"), []byte("{broken"), 0o644))
	out, err = runCLI(t, cfgPath, "-o", "json", "status")
	require.NoError(t, err)
	var rows []tableStatus
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	byTable := map[lexicon.Table]tableStatus{}
	for _, r := range rows {
		byTable[r.Table] = r
	}
	assert.Equal(t, 4, byTable[lexicon.TableDictionary].Rows)
	assert.Contains(t, byTable[lexicon.TableRules].Error, "SOURCE_MALFORMED")
	assert.Contains(t, byTable[lexicon.TableLearned].Error, "SOURCE_UNAVAILABLE")
}

func TestRejectsUnknownOutput(t *testing.T) {
	cfgPath, _ := setupWorkspace(t, "json")
	_, err := runCLI(t, cfgPath, "-o", "xml", "pos", "cat")
	assert.Error(t, err)
}
