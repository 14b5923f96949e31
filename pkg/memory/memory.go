// Package memory is an append-only, timestamped event log backed by sqlite.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/japaniel/gaia/pkg/db"
)

// DefaultRecentLimit is the number of records Recent returns for a
// non-positive limit.
const DefaultRecentLimit = 5

// Record is one remembered event.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
}

// Log appends and reads memory records.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Log over conn. conn must already be migrated (db.Open does that).
func New(conn *sql.DB) *Log {
	return &Log{db: conn, now: time.Now}
}

// Append stores content with optional tags and returns the stored record.
// Timestamps are truncated to the second.
func (l *Log) Append(ctx context.Context, content string, tags ...string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Record{}, fmt.Errorf("memory content must be non-empty")
	}
	if tags == nil {
		tags = []string{}
	}
	r := Record{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC().Truncate(time.Second),
		Content:   content,
		Tags:      tags,
	}
	if err := db.InsertMemory(l.db, db.Memory{ID: r.ID, CreatedAt: r.Timestamp, Content: r.Content, Tags: r.Tags}); err != nil {
		return Record{}, fmt.Errorf("append memory: %w", err)
	}
	return r, nil
}

// Recent returns the last limit records, oldest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := db.RecentMemories(l.db, limit)
	if err != nil {
		return nil, fmt.Errorf("recent memories: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, m := range rows {
		out = append(out, Record{ID: m.ID, Timestamp: m.CreatedAt.UTC(), Content: m.Content, Tags: m.Tags})
	}
	return out, nil
}

// Since returns every record at or after t, oldest first.
func (l *Log) Since(ctx context.Context, t time.Time) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := db.MemoriesSince(l.db, t)
	if err != nil {
		return nil, fmt.Errorf("memories since %s: %w", t.Format(time.RFC3339), err)
	}
	out := make([]Record, 0, len(rows))
	for _, m := range rows {
		out = append(out, Record{ID: m.ID, Timestamp: m.CreatedAt.UTC(), Content: m.Content, Tags: m.Tags})
	}
	return out, nil
}
