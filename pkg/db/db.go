package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS learned_words (
	word TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	confidence REAL NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS memories (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL,
	content TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);
`

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Open opens (or creates) the sqlite database at path and runs migrations.
// ":memory:" databases are limited to one connection so every caller sees
// the same database.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return conn, nil
}
