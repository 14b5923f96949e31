package lexicon

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Paths locates the backing file of each table. An empty path leaves the
// table empty.
type Paths struct {
	Dictionary string
	Rules      string
	Wordlist   string
	Patterns   string
	Learned    string
}

// LoadReport records the per-table outcome of Load.
type LoadReport struct {
	// Errors holds the load fault of each table that degraded to empty.
	Errors map[Table]error
	// Counts holds the number of rows loaded per table.
	Counts map[Table]int
}

// OK reports whether every table loaded cleanly.
func (r *LoadReport) OK() bool { return len(r.Errors) == 0 }

type loadOptions struct {
	logger           *log.Logger
	strictDictionary bool
	learned          LearnedPersister
}

// Option configures Load.
type Option func(*loadOptions)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

// WithStrictDictionary makes a missing curated dictionary fatal
// (MISSING_REQUIRED_SOURCE). Used by the standalone dictionary lookup.
func WithStrictDictionary(strict bool) Option {
	return func(o *loadOptions) { o.strictDictionary = strict }
}

// WithLearnedPersister loads the learned table from p instead of Paths.Learned.
func WithLearnedPersister(p LearnedPersister) Option {
	return func(o *loadOptions) { o.learned = p }
}

// Load reads all five tables. Each load is independent: a missing or malformed
// source degrades only that table to empty and is recorded in the report. The
// returned error is non-nil only when strict dictionary mode is on and the
// dictionary is unavailable, or when ctx is canceled.
func Load(ctx context.Context, paths Paths, opts ...Option) (*Store, *LoadReport, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var (
		tables Tables
		mu     sync.Mutex
		report = &LoadReport{Errors: make(map[Table]error)}
	)
	record := func(table Table, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		report.Errors[table] = err
		mu.Unlock()
		if errors.Is(err, ErrSourceMalformed) {
			logger.Error("knowledge source malformed, using empty table", "table", table, "err", err)
		} else {
			logger.Warn("knowledge source unavailable, using empty table", "table", table, "err", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := LoadDictionary(paths.Dictionary)
		record(TableDictionary, err)
		tables.Dictionary = d
		return nil
	})
	g.Go(func() error {
		r, err := LoadRules(paths.Rules)
		record(TableRules, err)
		tables.Rules = r
		return nil
	})
	g.Go(func() error {
		w, err := LoadWordlist(paths.Wordlist)
		record(TableWordlist, err)
		tables.Wordlist = w
		return nil
	})
	g.Go(func() error {
		p, err := LoadPatterns(paths.Patterns)
		record(TablePatterns, err)
		tables.Patterns = p
		return nil
	})
	g.Go(func() error {
		var (
			l   map[string]LearnedEntry
			err error
		)
		if o.learned != nil {
			l, err = o.learned.Load(gctx)
		} else {
			l, err = LoadLearned(paths.Learned)
		}
		record(TableLearned, err)
		tables.Learned = l
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	if o.strictDictionary {
		if err, ok := report.Errors[TableDictionary]; ok && errors.Is(err, ErrSourceUnavailable) {
			return nil, report, &Error{
				Code:    CodeMissingRequiredSource,
				Table:   TableDictionary,
				Path:    paths.Dictionary,
				Message: "curated dictionary is required",
				Cause:   err,
			}
		}
	}

	s := New(tables)
	report.Counts = s.Counts()
	logger.Debug("knowledge store loaded", "counts", report.Counts)
	return s, report, nil
}
