package pos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/japaniel/gaia/pkg/lexicon"
)

// DefaultLearnConfidence is the confidence callers use when they have no
// better estimate.
const DefaultLearnConfidence = 0.8

// PersistMode selects when learned classifications reach durable storage.
type PersistMode int

const (
	// WriteThrough persists inside every Learn call.
	WriteThrough PersistMode = iota
	// Batched hands persistence to a Flusher.
	Batched
)

// ParsePersistMode maps "write-through" and "batched" to a PersistMode.
func ParsePersistMode(s string) (PersistMode, error) {
	switch s {
	case "", "write-through", "writethrough", "immediate":
		return WriteThrough, nil
	case "batched", "batch":
		return Batched, nil
	}
	return WriteThrough, fmt.Errorf("unknown persist mode %q", s)
}

func (m PersistMode) String() string {
	if m == Batched {
		return "batched"
	}
	return "write-through"
}

// Learner merges new classifications into the learned table of a Store.
// A single writer lock covers merge and persist within the process. Only words
// learned since the last successful persist are handed to the persister, which
// merges them into storage, so learners in other processes sharing the same
// table do not overwrite each other's words.
type Learner struct {
	store     *lexicon.Store
	persister lexicon.LearnedPersister
	mode      PersistMode
	logger    *log.Logger

	batchSize     int
	flushInterval time.Duration
	flusher       *Flusher

	mu    sync.Mutex
	dirty map[string]struct{}
}

// LearnerOption configures a Learner.
type LearnerOption func(*Learner)

// WithPersistMode sets the persistence policy. Default is WriteThrough.
func WithPersistMode(m PersistMode) LearnerOption {
	return func(l *Learner) { l.mode = m }
}

// WithBatching configures the Flusher used in Batched mode.
func WithBatching(batchSize int, flushInterval time.Duration) LearnerOption {
	return func(l *Learner) {
		l.batchSize = batchSize
		l.flushInterval = flushInterval
	}
}

// WithLearnerLogger sets the logger for persistence diagnostics.
func WithLearnerLogger(logger *log.Logger) LearnerOption {
	return func(l *Learner) { l.logger = logger }
}

// NewLearner creates a Learner writing to store and persisting through p.
// A nil persister keeps learned state in memory only.
func NewLearner(store *lexicon.Store, p lexicon.LearnedPersister, opts ...LearnerOption) *Learner {
	l := &Learner{
		store:         store,
		persister:     p,
		batchSize:     20,
		flushInterval: 5 * time.Second,
		dirty:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	if l.mode == Batched && l.persister != nil {
		l.flusher = NewFlusher(l.persistSnapshot, l.batchSize, l.flushInterval)
		l.flusher.OnError = func(err error) {
			l.logger.Error("batched persist failed", "err", err)
		}
	}
	return l
}

// Merge combines an existing entry with a new observation: the category is
// replaced by the latest one and the confidence becomes the mean of both.
func Merge(cur lexicon.LearnedEntry, exists bool, cat lexicon.Category, confidence float64) lexicon.LearnedEntry {
	confidence = lexicon.ClampConfidence(confidence)
	if !exists {
		return lexicon.LearnedEntry{Category: cat, Confidence: confidence}
	}
	return lexicon.LearnedEntry{
		Category:   cat,
		Confidence: lexicon.ClampConfidence((cur.Confidence + confidence) / 2),
	}
}

// Learn records that word has category cat with the given confidence and
// returns the merged entry. In WriteThrough mode a persist failure is returned
// as PERSIST_FAILED; the in-memory table still holds the merge.
func (l *Learner) Learn(ctx context.Context, word string, cat lexicon.Category, confidence float64) (lexicon.LearnedEntry, error) {
	if lexicon.Normalize(word) == "" {
		return lexicon.LearnedEntry{}, fmt.Errorf("word must be non-empty")
	}
	cat, err := lexicon.NewCategory(string(cat))
	if err != nil {
		return lexicon.LearnedEntry{}, err
	}

	l.mu.Lock()
	merged := l.store.UpdateLearned(word, func(cur lexicon.LearnedEntry, ok bool) lexicon.LearnedEntry {
		return Merge(cur, ok, cat, confidence)
	})
	if l.persister != nil {
		l.dirty[lexicon.Normalize(word)] = struct{}{}
	}
	if l.mode == WriteThrough {
		err = l.persistLocked(ctx)
		l.mu.Unlock()
		return merged, err
	}
	l.mu.Unlock()

	if l.flusher != nil {
		if err := l.flusher.Submit(); err != nil {
			return merged, err
		}
	}
	return merged, nil
}

// Flush persists the learned table now.
func (l *Learner) Flush(ctx context.Context) error {
	if l.flusher != nil {
		return l.flusher.Flush(ctx)
	}
	return l.persistSnapshot(ctx)
}

// Close flushes pending batched learns. It is a no-op in WriteThrough mode.
func (l *Learner) Close() error {
	if l.flusher == nil {
		return nil
	}
	err := l.flusher.Close()
	if errors.Is(err, ErrFlusherClosed) {
		return nil
	}
	return err
}

func (l *Learner) persistSnapshot(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx)
}

// persistLocked assumes l.mu is held. Words stay dirty until a persist succeeds.
func (l *Learner) persistLocked(ctx context.Context) error {
	if l.persister == nil || len(l.dirty) == 0 {
		return nil
	}
	changed := make(map[string]lexicon.LearnedEntry, len(l.dirty))
	for w := range l.dirty {
		if e, ok := l.store.Learned(w); ok {
			changed[w] = e
		}
	}
	if err := l.persister.Persist(ctx, changed); err != nil {
		if !errors.Is(err, lexicon.ErrPersistFailed) {
			err = &lexicon.Error{Code: lexicon.CodePersistFailed, Table: lexicon.TableLearned, Cause: err}
		}
		l.logger.Error("failed to persist learned words", "words", len(changed), "err", err)
		return err
	}
	clear(l.dirty)
	return nil
}
