// Package analyze turns raw text into classified sentences: it splits and
// tokenizes text, resolves each token and validates the category sequence.
package analyze

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-shiori/go-readability"

	"github.com/japaniel/gaia/pkg/grammar"
	"github.com/japaniel/gaia/pkg/lexicon"
	"github.com/japaniel/gaia/pkg/pos"
)

// Token is one word of a sentence with its classification.
type Token struct {
	Word string `json:"word"`
	pos.Classification
}

// Sentence is the analysis of a single sentence.
type Sentence struct {
	Index      int                `json:"index"`
	Text       string             `json:"text"`
	Tokens     []Token            `json:"tokens"`
	Categories []lexicon.Category `json:"categories"`
	Patterns   []string           `json:"patterns"`
}

// Valid reports whether at least one syntax pattern matched.
func (s Sentence) Valid() bool { return len(s.Patterns) > 0 }

// Unknown returns the words no table knew.
func (s Sentence) Unknown() []string {
	var out []string
	for _, t := range s.Tokens {
		if !t.Known() {
			out = append(out, t.Word)
		}
	}
	return out
}

// Tokenize splits text on whitespace and trims punctuation from both ends of
// each token. Tokens that are pure punctuation are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, unicode.IsPunct)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// SplitSentences splits text after '.', '!', '?' and newlines. Surrounding
// whitespace is trimmed and empty sentences are dropped.
func SplitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	emit := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range text {
		if r != '\n' {
			current.WriteRune(r)
		}
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			emit()
		}
	}
	emit()
	return sentences
}

// Article is the readable part of an HTML page.
type Article struct {
	Title string
	Text  string
}

// ExtractHTML pulls the main article text out of an HTML document. pageURL is
// used to resolve relative links and may be nil.
func ExtractHTML(r io.Reader, pageURL *url.URL) (Article, error) {
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "http", Host: "localhost"}
	}
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("readability extraction failed: %w", err)
	}
	return Article{Title: strings.TrimSpace(article.Title), Text: article.TextContent}, nil
}

// Analyzer classifies sentences and validates their structure.
type Analyzer struct {
	resolver *pos.Resolver
	matcher  *grammar.Matcher
}

// NewAnalyzer creates an Analyzer. The matcher is built from the resolver's
// store patterns.
func NewAnalyzer(r *pos.Resolver) *Analyzer {
	return &Analyzer{resolver: r, matcher: grammar.NewMatcher(r.Store().Patterns())}
}

// Resolver returns the resolver used for classification.
func (a *Analyzer) Resolver() *pos.Resolver { return a.resolver }

// Matcher returns the syntax matcher.
func (a *Analyzer) Matcher() *grammar.Matcher { return a.matcher }

// AnalyzeSentence tokenizes, classifies and validates a single sentence.
func (a *Analyzer) AnalyzeSentence(text string) Sentence {
	words := Tokenize(text)
	classes := a.resolver.ResolveAll(words)
	s := Sentence{
		Text:       text,
		Tokens:     make([]Token, len(words)),
		Categories: make([]lexicon.Category, len(words)),
	}
	for i, w := range words {
		s.Tokens[i] = Token{Word: w, Classification: classes[i]}
		s.Categories[i] = classes[i].Category
	}
	s.Patterns = a.matcher.Validate(s.Categories).Names()
	return s
}
