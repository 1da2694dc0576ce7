package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection. The journal runs in WAL mode so
// analytics reads proceed while an ingestion run writes.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS owners (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER UNIQUE,
		user_id INTEGER NOT NULL DEFAULT 0,
		user_type TEXT,
		reputation INTEGER NOT NULL DEFAULT 0,
		display_name TEXT,
		link TEXT
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL UNIQUE,
		title TEXT NOT NULL,
		body TEXT,
		score INTEGER NOT NULL DEFAULT 0,
		view_count INTEGER NOT NULL DEFAULT 0,
		answer_count INTEGER NOT NULL DEFAULT 0,
		is_answered BOOLEAN NOT NULL DEFAULT 0,
		accepted_answer_id INTEGER,
		link TEXT,
		created_at TIMESTAMP,
		owner_id INTEGER NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES owners(id)
	);

	CREATE TABLE IF NOT EXISTS question_tags (
		question_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (question_id, tag_id),
		FOREIGN KEY (question_id) REFERENCES questions(id),
		FOREIGN KEY (tag_id) REFERENCES tags(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		answer_id INTEGER NOT NULL UNIQUE,
		question_stack_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		is_accepted BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP,
		owner_reputation INTEGER,
		owner_account_id INTEGER,
		owner_user_id INTEGER,
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);
	CREATE INDEX IF NOT EXISTS idx_answers_question_stack ON answers(question_stack_id);

	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		requested INTEGER NOT NULL,
		fetched INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
