package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as RFC 3339 text in UTC. Documents (course
// content, progress records) are stored as JSON next to the columns that
// are queried.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id         TEXT PRIMARY KEY,
		tutor_id   TEXT NOT NULL DEFAULT '',
		title      TEXT NOT NULL DEFAULT '',
		published  INTEGER NOT NULL DEFAULT 0,
		data       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL,
		enrolled   TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS progress (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		course_id       TEXT NOT NULL,
		capstone_status TEXT NOT NULL DEFAULT 'pending',
		data            TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE (user_id, course_id)
	)`,
	`CREATE INDEX IF NOT EXISTS progress_course ON progress (course_id, capstone_status)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		type       TEXT NOT NULL,
		message    TEXT NOT NULL,
		read       INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user ON notifications (user_id, read)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL DEFAULT '',
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
