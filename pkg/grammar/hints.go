package grammar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// NoHint is returned when neither the word nor its category has a hint.
const NoHint = "No specific grammar rule found."

// Classifier resolves a word to a category. *pos.Resolver satisfies it.
type Classifier interface {
	Classify(word string) lexicon.Category
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(word string) lexicon.Category

func (f ClassifierFunc) Classify(word string) lexicon.Category { return f(word) }

// Hints maps words or category names to human-readable grammar hints.
type Hints struct {
	rules map[string]string
}

// NewHints builds Hints from a key -> hint map. Keys are normalized.
func NewHints(rules map[string]string) *Hints {
	h := &Hints{rules: make(map[string]string, len(rules))}
	for k, v := range rules {
		h.rules[lexicon.Normalize(k)] = v
	}
	return h
}

// LoadHints reads a grammar rules file of the form {"rules": {key: hint}}.
// A missing file yields SOURCE_UNAVAILABLE and a parse failure
// SOURCE_MALFORMED; callers may fall back to empty Hints.
func LoadHints(path string) (*Hints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewHints(nil), &lexicon.Error{Code: lexicon.CodeSourceUnavailable, Path: path, Message: "grammar rules", Cause: err}
	}
	var doc struct {
		Rules map[string]string `json:"rules" yaml:"rules"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return NewHints(nil), &lexicon.Error{Code: lexicon.CodeSourceMalformed, Path: path, Message: "grammar rules", Cause: fmt.Errorf("decode: %w", err)}
	}
	return NewHints(doc.Rules), nil
}

// Len returns the number of hint entries.
func (h *Hints) Len() int { return len(h.rules) }

// Hint returns the hint for word itself, else the hint for its category as
// decided by c, else NoHint.
func (h *Hints) Hint(word string, c Classifier) string {
	key := lexicon.Normalize(word)
	if hint, ok := h.rules[key]; ok {
		return hint
	}
	if c == nil {
		return NoHint
	}
	if hint, ok := h.rules[lexicon.Normalize(string(c.Classify(word)))]; ok {
		return hint
	}
	return NoHint
}
