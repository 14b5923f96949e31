package lexicon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LearnedPersister loads and stores the learned-word table.
//
// Persist receives only the entries that changed since the last successful
// persist and merges them into the stored table. Rows written by other
// processes sharing the same storage are kept.
type LearnedPersister interface {
	Load(ctx context.Context) (map[string]LearnedEntry, error)
	Persist(ctx context.Context, changed map[string]LearnedEntry) error
}

// lockRetry is how often JSONFile retries a held file lock.
const lockRetry = 10 * time.Millisecond

// JSONFile persists the learned table as an indented JSON object at Path.
// Writers serialize on an advisory lock file next to Path.
type JSONFile struct {
	Path string
}

// Load reads the table. A missing file yields SOURCE_UNAVAILABLE.
func (f JSONFile) Load(ctx context.Context) (map[string]LearnedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadLearned(f.Path)
}

// BackupPath is where Persist moves a learned file it cannot parse.
func (f JSONFile) BackupPath() string { return f.Path + ".bak" }

// Persist merges changed into the file at Path, creating parent directories as
// needed. The current file is re-read under the lock, so words learned by
// another process since this one loaded are preserved. A file that no longer
// parses is moved to BackupPath before being replaced. The write goes through
// a temporary file and a rename.
func (f JSONFile) Persist(ctx context.Context, changed map[string]LearnedEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fail := func(err error) error {
		return &Error{Code: CodePersistFailed, Table: TableLearned, Path: f.Path, Cause: err}
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}
	lock := flock.New(f.Path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fail(err)
	}
	if !locked {
		return fail(errors.New("learned table lock not acquired"))
	}
	defer lock.Unlock()

	current, err := LoadLearned(f.Path)
	switch {
	case err == nil:
	case errors.Is(err, ErrSourceMalformed):
		if err := os.Rename(f.Path, f.BackupPath()); err != nil {
			return fail(err)
		}
		current = nil
	case errors.Is(err, os.ErrNotExist):
		current = nil
	default:
		return fail(err)
	}

	merged := make(map[string]LearnedEntry, len(current)+len(changed))
	for w, e := range current {
		merged[w] = e
	}
	for w, e := range changed {
		merged[Normalize(w)] = e
	}

	data, err := encodeLearned(merged)
	if err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(dir, ".learned-*.json")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fail(err)
	}
	return nil
}
