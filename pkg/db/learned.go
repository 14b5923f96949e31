package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/japaniel/gaia/pkg/lexicon"
)

// LearnedTable persists the learned-word table in sqlite. It satisfies
// lexicon.LearnedPersister.
type LearnedTable struct {
	DB *sql.DB
}

// Load returns every stored learned word. Rows whose category no longer
// parses are skipped.
func (t LearnedTable) Load(ctx context.Context) (map[string]lexicon.LearnedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := GetLearnedWords(t.DB)
	if err != nil {
		return nil, &lexicon.Error{Code: lexicon.CodeSourceUnavailable, Table: lexicon.TableLearned, Message: "query learned_words", Cause: err}
	}
	out := make(map[string]lexicon.LearnedEntry, len(rows))
	for _, r := range rows {
		cat, err := lexicon.NewCategory(r.Category)
		if err != nil {
			continue
		}
		out[lexicon.Normalize(r.Word)] = lexicon.LearnedEntry{
			Category:   cat,
			Confidence: lexicon.ClampConfidence(r.Confidence),
		}
	}
	return out, nil
}

// Persist upserts the changed entries in a single transaction. Rows not in
// changed are left untouched.
func (t LearnedTable) Persist(ctx context.Context, changed map[string]lexicon.LearnedEntry) error {
	fail := func(err error) error {
		return &lexicon.Error{Code: lexicon.CodePersistFailed, Table: lexicon.TableLearned, Message: "sqlite", Cause: err}
	}
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	for word, e := range changed {
		if err := UpsertLearnedWord(tx, word, e.Category.String(), lexicon.ClampConfidence(e.Confidence)); err != nil {
			_ = tx.Rollback()
			return fail(fmt.Errorf("word %q: %w", word, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(err)
	}
	return nil
}
