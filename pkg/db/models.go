package db

import "time"

// LearnedWord is a persisted row of the learned-word table.
type LearnedWord struct {
	Word       string
	Category   string
	Confidence float64
	UpdatedAt  time.Time
}

// Memory is a timestamped event-log record.
type Memory struct {
	ID        string
	CreatedAt time.Time
	Content   string
	Tags      []string
}
