package pos

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// recordingPersister merges persisted entries into last and can be told to fail.
type recordingPersister struct {
	mu      sync.Mutex
	calls   int
	last    map[string]lexicon.LearnedEntry
	changed []map[string]lexicon.LearnedEntry
	fail    error
}

func (p *recordingPersister) Load(context.Context) (map[string]lexicon.LearnedEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, nil
}

func (p *recordingPersister) Persist(_ context.Context, entries map[string]lexicon.LearnedEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail != nil {
		return p.fail
	}
	if p.last == nil {
		p.last = make(map[string]lexicon.LearnedEntry)
	}
	for w, e := range entries {
		p.last[w] = e
	}
	p.changed = append(p.changed, entries)
	return nil
}

func (p *recordingPersister) snapshot() (int, map[string]lexicon.LearnedEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]lexicon.LearnedEntry, len(p.last))
	for w, e := range p.last {
		out[w] = e
	}
	return p.calls, out
}

func TestLearnAveragesConfidenceLatestCategoryWins(t *testing.T) {
	store := lexicon.New(lexicon.Tables{})
	p := &recordingPersister{}
	l := NewLearner(store, p)
	ctx := context.Background()

	e, err := l.Learn(ctx, "Blitz", lexicon.Noun, 0.8)
	require.NoError(t, err)
	assert.Equal(t, lexicon.LearnedEntry{Category: lexicon.Noun, Confidence: 0.8}, e)

	e, err = l.Learn(ctx, "blitz", lexicon.Verb, 0.4)
	require.NoError(t, err)
	assert.Equal(t, lexicon.Verb, e.Category)
	assert.InDelta(t, 0.6, e.Confidence, 1e-12)

	calls, last := p.snapshot()
	assert.Equal(t, 2, calls, "write-through persists on every learn")
	assert.Equal(t, e, last["blitz"])

	c := NewResolver(store).Resolve("BLITZ")
	assert.Equal(t, SourceLearned, c.Source)
	assert.Equal(t, lexicon.Verb, c.Category)
}

func TestLearnOverridesDictionary(t *testing.T) {
	store := newTestStore()
	r := NewResolver(store)
	require.Equal(t, SourceDictionary, r.Resolve("katze").Source)

	_, err := NewLearner(store, nil).Learn(context.Background(), "katze", lexicon.Verb, 0.1)
	require.NoError(t, err)

	got := r.Resolve("katze")
	assert.Equal(t, Classification{lexicon.Verb, 0.1, SourceLearned}, got)
}

func TestLearnClampsConfidence(t *testing.T) {
	store := lexicon.New(lexicon.Tables{})
	l := NewLearner(store, nil)
	ctx := context.Background()

	e, err := l.Learn(ctx, "hoch", lexicon.Adjective, 7)
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.Confidence)

	e, err = l.Learn(ctx, "hoch", lexicon.Adjective, -3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, e.Confidence)
}

func TestLearnRejectsInvalidInput(t *testing.T) {
	l := NewLearner(lexicon.New(lexicon.Tables{}), nil)
	ctx := context.Background()

	_, err := l.Learn(ctx, "  ", lexicon.Noun, 0.5)
	assert.Error(t, err)

	_, err = l.Learn(ctx, "wort", lexicon.Category("two words"), 0.5)
	assert.True(t, errors.Is(err, lexicon.ErrInvalidCategory))
}

func TestLearnPersistFailureKeepsMemoryState(t *testing.T) {
	store := lexicon.New(lexicon.Tables{})
	p := &recordingPersister{fail: fmt.Errorf("disk full")}
	l := NewLearner(store, p)

	e, err := l.Learn(context.Background(), "baum", lexicon.Noun, 0.7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lexicon.ErrPersistFailed))

	got, ok := store.Learned("baum")
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestLearnWriteThroughToJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge", "learned_words.json")
	store := lexicon.New(lexicon.Tables{})
	l := NewLearner(store, lexicon.JSONFile{Path: path})

	_, err := l.Learn(context.Background(), "Haus", lexicon.Noun, 0.9)
	require.NoError(t, err)

	loaded, err := lexicon.LoadLearned(path)
	require.NoError(t, err)
	assert.Equal(t, store.LearnedSnapshot(), loaded)
}

func TestLearnBatched(t *testing.T) {
	store := lexicon.New(lexicon.Tables{})
	p := &recordingPersister{}
	l := NewLearner(store, p, WithPersistMode(Batched), WithBatching(3, 0))
	ctx := context.Background()

	for _, w := range []string{"eins", "zwei"} {
		_, err := l.Learn(ctx, w, lexicon.Noun, 0.5)
		require.NoError(t, err)
	}
	calls, _ := p.snapshot()
	assert.Equal(t, 0, calls, "below batch size nothing is persisted")

	_, err := l.Learn(ctx, "drei", lexicon.Noun, 0.5)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, last := p.snapshot()
		return len(last) == 3
	}, time.Second, 5*time.Millisecond)

	_, err = l.Learn(ctx, "vier", lexicon.Noun, 0.5)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, last := p.snapshot()
	assert.Len(t, last, 4, "close flushes pending learns")
}

func TestLearnConcurrentNoLostUpdates(t *testing.T) {
	store := lexicon.New(lexicon.Tables{})
	p := &recordingPersister{}
	l := NewLearner(store, p)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Learn(ctx, fmt.Sprintf("wort%d", i), lexicon.Noun, 0.5)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	_, last := p.snapshot()
	assert.Len(t, last, n, "last persisted snapshot must contain every learned word")
}

func TestLearnPersistsOnlyChangedWords(t *testing.T) {
	store := lexicon.New(lexicon.Tables{
		Learned: map[string]lexicon.LearnedEntry{"alt": {Category: lexicon.Noun, Confidence: 0.9}},
	})
	p := &recordingPersister{}
	l := NewLearner(store, p)

	_, err := l.Learn(context.Background(), "neu", lexicon.Verb, 0.5)
	require.NoError(t, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.changed, 1)
	assert.Equal(t, map[string]lexicon.LearnedEntry{"neu": {Category: lexicon.Verb, Confidence: 0.5}}, p.changed[0])
}

func TestLearnRetriesWordsAfterPersistFailure(t *testing.T) {
	store := lexicon.New(lexicon.Tables{})
	p := &recordingPersister{fail: fmt.Errorf("disk full")}
	l := NewLearner(store, p)
	ctx := context.Background()

	_, err := l.Learn(ctx, "eins", lexicon.Noun, 0.5)
	require.Error(t, err)

	p.mu.Lock()
	p.fail = nil
	p.mu.Unlock()
	_, err = l.Learn(ctx, "zwei", lexicon.Noun, 0.5)
	require.NoError(t, err)

	_, last := p.snapshot()
	assert.Contains(t, last, "eins")
	assert.Contains(t, last, "zwei")
}

func TestLearnersSharingJSONFileKeepEachOthersWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learned_words.json")
	ctx := context.Background()

	open := func() *Learner {
		store, _, err := lexicon.Load(ctx, lexicon.Paths{Learned: path})
		require.NoError(t, err)
		return NewLearner(store, lexicon.JSONFile{Path: path})
	}
	a, b := open(), open()

	_, err := a.Learn(ctx, "alpha", lexicon.Noun, 0.8)
	require.NoError(t, err)
	_, err = b.Learn(ctx, "beta", lexicon.Verb, 0.8)
	require.NoError(t, err)

	loaded, err := lexicon.LoadLearned(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]lexicon.LearnedEntry{
		"alpha": {Category: lexicon.Noun, Confidence: 0.8},
		"beta":  {Category: lexicon.Verb, Confidence: 0.8},
	}, loaded)
}

func TestLearnersSharingJSONFileConcurrently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learned_words.json")
	ctx := context.Background()

	const perLearner = 8
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		store := lexicon.New(lexicon.Tables{})
		l := NewLearner(store, lexicon.JSONFile{Path: path})
		wg.Add(1)
		go func(i int, l *Learner) {
			defer wg.Done()
			for j := 0; j < perLearner; j++ {
				_, err := l.Learn(ctx, fmt.Sprintf("wort%d-%d", i, j), lexicon.Noun, 0.5)
				assert.NoError(t, err)
			}
		}(i, l)
	}
	wg.Wait()

	loaded, err := lexicon.LoadLearned(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 2*perLearner)
}

func TestParsePersistMode(t *testing.T) {
	m, err := ParsePersistMode("batched")
	require.NoError(t, err)
	assert.Equal(t, Batched, m)

	m, err = ParsePersistMode("write-through")
	require.NoError(t, err)
	assert.Equal(t, WriteThrough, m)

	_, err = ParsePersistMode("sometimes")
	assert.Error(t, err)
}
