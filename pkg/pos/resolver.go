// Package pos classifies words into part-of-speech categories and learns new
// classifications over time.
package pos

import (
	"strings"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// Source identifies the knowledge tier a Classification came from.
type Source string

const (
	SourceLearned      Source = "learned"
	SourceDictionary   Source = "dictionary"
	SourceHeuristic    Source = "heuristic"
	SourceExternalList Source = "external_wordlist"
	SourceUnknown      Source = "unknown"
)

// Fixed confidences per source tier. Learned entries carry their own.
const (
	DictionaryConfidence   = 0.95
	HeuristicConfidence    = 0.6
	ExternalListConfidence = 0.3
	UnknownConfidence      = 0.0
)

// Classification is the result of resolving a single word.
type Classification struct {
	Category   lexicon.Category `json:"category"`
	Confidence float64          `json:"confidence"`
	Source     Source           `json:"source"`
}

// Known reports whether the word was found in any table.
func (c Classification) Known() bool { return c.Source != SourceUnknown }

// Context describes where a word sits in its sentence.
type Context struct {
	Tokens []string
	Index  int
}

// Previous returns the token before Index, if any.
func (c Context) Previous() (string, bool) {
	if c.Index <= 0 || c.Index > len(c.Tokens) {
		return "", false
	}
	return c.Tokens[c.Index-1], true
}

// ContextRule is a heuristic that may inspect the surrounding sentence. word is
// already normalized. Context rules run after the table rules, in the
// heuristic tier, and only when a Context is available.
type ContextRule func(word string, ctx Context) (lexicon.Category, bool)

// Resolver classifies words by walking the knowledge tables in priority order:
// learned, dictionary, heuristic rules, external wordlist. It never writes.
type Resolver struct {
	store        *lexicon.Store
	contextRules []ContextRule
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithContextRules installs context-aware heuristic rules.
func WithContextRules(rules ...ContextRule) ResolverOption {
	return func(r *Resolver) { r.contextRules = append(r.contextRules, rules...) }
}

// NewResolver creates a Resolver over store.
func NewResolver(store *lexicon.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying knowledge store.
func (r *Resolver) Store() *lexicon.Store { return r.store }

// Resolve classifies word without sentence context.
func (r *Resolver) Resolve(word string) Classification {
	return r.resolve(word, nil)
}

// Classify returns only the category of Resolve(word).
func (r *Resolver) Classify(word string) lexicon.Category {
	return r.Resolve(word).Category
}

// ResolveInContext classifies word, letting context rules inspect ctx.
func (r *Resolver) ResolveInContext(word string, ctx Context) Classification {
	return r.resolve(word, &ctx)
}

// ResolveAll classifies every token, passing each its sentence context.
func (r *Resolver) ResolveAll(tokens []string) []Classification {
	out := make([]Classification, len(tokens))
	for i, tok := range tokens {
		out[i] = r.ResolveInContext(tok, Context{Tokens: tokens, Index: i})
	}
	return out
}

func (r *Resolver) resolve(word string, ctx *Context) Classification {
	key := lexicon.Normalize(word)
	if key == "" {
		return unknown()
	}

	if e, ok := r.store.Learned(key); ok {
		return Classification{Category: e.Category, Confidence: e.Confidence, Source: SourceLearned}
	}

	if e, ok := r.store.Entry(key); ok {
		return Classification{Category: e.Category, Confidence: DictionaryConfidence, Source: SourceDictionary}
	}

	if cat, ok := matchRules(r.store.Rules(), key); ok {
		return Classification{Category: cat, Confidence: HeuristicConfidence, Source: SourceHeuristic}
	}
	if ctx != nil {
		for _, rule := range r.contextRules {
			if cat, ok := rule(key, *ctx); ok {
				return Classification{Category: cat, Confidence: HeuristicConfidence, Source: SourceHeuristic}
			}
		}
	}

	if r.store.HasWord(key) {
		return Classification{Category: lexicon.Unknown, Confidence: ExternalListConfidence, Source: SourceExternalList}
	}
	return unknown()
}

func unknown() Classification {
	return Classification{Category: lexicon.Unknown, Confidence: UnknownConfidence, Source: SourceUnknown}
}

// matchRules returns the category of the first rule matching word. Within a
// rule the word list is checked first, then suffixes, then prefixes.
func matchRules(rules []lexicon.HeuristicRule, word string) (lexicon.Category, bool) {
	for _, rule := range rules {
		if _, ok := rule.Words[word]; ok {
			return rule.Category, true
		}
		for _, s := range rule.Suffixes {
			if strings.HasSuffix(word, s) {
				return rule.Category, true
			}
		}
		for _, p := range rule.Prefixes {
			if strings.HasPrefix(word, p) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
