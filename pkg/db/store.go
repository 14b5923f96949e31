package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// UpsertLearnedWord inserts a learned word or overwrites its category and confidence.
func UpsertLearnedWord(db DBExecutor, word, category string, confidence float64) error {
	trimmedWord := strings.TrimSpace(word)
	if trimmedWord == "" {
		return fmt.Errorf("word must be non-empty")
	}
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO learned_words (word, category, confidence, updated_at)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(word) DO UPDATE SET
			    category = excluded.category,
			    confidence = excluded.confidence,
			    updated_at = CASE
			      WHEN learned_words.category = excluded.category AND learned_words.confidence = excluded.confidence
			      THEN learned_words.updated_at
			      ELSE excluded.updated_at
			    END`,
		trimmedWord, category, confidence, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert learned word: %w", err)
	}
	return nil
}

// GetLearnedWords returns all learned words ordered by word.
func GetLearnedWords(db DBExecutor) ([]LearnedWord, error) {
	rows, err := db.Query(`SELECT word, category, confidence, updated_at FROM learned_words ORDER BY word`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LearnedWord
	for rows.Next() {
		var w LearnedWord
		if err := rows.Scan(&w.Word, &w.Category, &w.Confidence, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMemory appends a memory record.
func InsertMemory(db DBExecutor, m Memory) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("memory id must be non-empty")
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = db.Exec(`INSERT INTO memories (id, created_at, content, tags) VALUES (?, ?, ?, ?)`,
		m.ID, m.CreatedAt.UTC(), m.Content, string(tagJSON))
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// RecentMemories returns the last limit memories in insertion order (oldest first).
func RecentMemories(db DBExecutor, limit int) ([]Memory, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := db.Query(`SELECT id, created_at, content, tags FROM (
		SELECT seq, id, created_at, content, tags FROM memories ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Memory
	for rows.Next() {
		var (
			m    Memory
			tags string
		)
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.Content, &tags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of memory %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MemoriesSince returns memories created at or after t, oldest first.
func MemoriesSince(db DBExecutor, t time.Time) ([]Memory, error) {
	rows, err := db.Query(`SELECT id, created_at, content, tags FROM memories WHERE created_at >= ? ORDER BY seq ASC`, t.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Memory
	for rows.Next() {
		var (
			m    Memory
			tags string
		)
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.Content, &tags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of memory %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
