package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/japaniel/gaia/pkg/analyze"
	"github.com/japaniel/gaia/pkg/db"
	"github.com/japaniel/gaia/pkg/grammar"
	"github.com/japaniel/gaia/pkg/lexicon"
	"github.com/japaniel/gaia/pkg/memory"
	"github.com/japaniel/gaia/pkg/pos"
)

// engine bundles the loaded knowledge store with everything built on top of it.
type engine struct {
	store    *lexicon.Store
	report   *lexicon.LoadReport
	resolver *pos.Resolver
	learner  *pos.Learner
	analyzer *analyze.Analyzer
	hints    *grammar.Hints

	conn   *sql.DB
	memory *memory.Log
}

type engineOptions struct {
	strictDictionary bool
	// withMemory opens the sqlite database even for the json backend.
	withMemory bool
}

func (a *app) openEngine(ctx context.Context, opts engineOptions) (*engine, error) {
	cfg := a.cfg
	e := &engine{}

	var persister lexicon.LearnedPersister = lexicon.JSONFile{Path: cfg.Data.Paths().Learned}
	if cfg.Learning.Backend == "sqlite" || opts.withMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		conn, err := db.Open(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		e.conn = conn
		e.memory = memory.New(conn)
		if cfg.Learning.Backend == "sqlite" {
			persister = db.LearnedTable{DB: conn}
		}
	}

	store, report, err := lexicon.Load(ctx, cfg.Data.Paths(),
		lexicon.WithLogger(a.logger),
		lexicon.WithStrictDictionary(opts.strictDictionary || cfg.StrictDictionary),
		lexicon.WithLearnedPersister(persister),
	)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store, e.report = store, report

	mode, err := pos.ParsePersistMode(cfg.Learning.Mode)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.resolver = pos.NewResolver(store)
	e.learner = pos.NewLearner(store, persister,
		pos.WithPersistMode(mode),
		pos.WithBatching(cfg.Learning.BatchSize, cfg.Learning.FlushInterval),
		pos.WithLearnerLogger(a.logger),
	)
	e.analyzer = analyze.NewAnalyzer(e.resolver)

	hints, err := grammar.LoadHints(cfg.Data.GrammarPath())
	if err != nil {
		if errors.Is(err, lexicon.ErrSourceMalformed) {
			a.logger.Error("grammar rules malformed, hints disabled", "err", err)
		} else {
			a.logger.Debug("grammar rules unavailable, hints disabled", "err", err)
		}
	}
	e.hints = hints
	return e, nil
}

// Close flushes pending learns and releases the database.
func (e *engine) Close() error {
	var errs []error
	if e.learner != nil {
		errs = append(errs, e.learner.Close())
	}
	if e.conn != nil {
		errs = append(errs, e.conn.Close())
	}
	return errors.Join(errs...)
}
