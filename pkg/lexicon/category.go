package lexicon

import (
	"fmt"
	"strings"
	"unicode"
)

// Category is a grammatical class tag such as "noun" or "verb".
// The set is open: heuristic rule files may introduce new tags.
type Category string

const (
	Noun      Category = "noun"
	Verb      Category = "verb"
	Adjective Category = "adjective"
	Adverb    Category = "adverb"
	Unknown   Category = "unknown"
)

// NewCategory validates s as a category tag. Surrounding whitespace is trimmed;
// empty tags and tags containing inner whitespace are rejected.
func NewCategory(s string) (Category, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", &Error{Code: CodeInvalidCategory, Message: "category must be non-empty"}
	}
	if strings.IndexFunc(t, unicode.IsSpace) >= 0 {
		return "", &Error{Code: CodeInvalidCategory, Message: fmt.Sprintf("category %q contains whitespace", t)}
	}
	return Category(t), nil
}

// MustCategory is like NewCategory but panics on invalid input. Intended for
// package-level tables and tests.
func MustCategory(s string) Category {
	c, err := NewCategory(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Category) String() string { return string(c) }

// IsUnknown reports whether c is the Unknown tag or unset.
func (c Category) IsUnknown() bool { return c == "" || c == Unknown }

// Normalize is the key normalization applied to every word lookup.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
