// Package store is the SQLite persistence layer: users, their reminders and
// the system log.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id   INTEGER NOT NULL UNIQUE,
	username      TEXT NOT NULL DEFAULT '',
	first_name    TEXT NOT NULL DEFAULT '',
	timezone      TEXT NOT NULL DEFAULT 'UTC',
	created_at    TIMESTAMP NOT NULL,
	last_activity TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	original_input TEXT NOT NULL DEFAULT '',
	scheduled_time TIMESTAMP NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	is_sent        INTEGER NOT NULL DEFAULT 0,
	sent_at        TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reminders_user_time ON reminders(user_id, scheduled_time);
CREATE INDEX IF NOT EXISTS idx_reminders_pending   ON reminders(scheduled_time, is_sent);

CREATE TABLE IF NOT EXISTS system_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	level       TEXT NOT NULL,
	message     TEXT NOT NULL,
	module      TEXT NOT NULL DEFAULT '',
	user_id     INTEGER,
	reminder_id INTEGER,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_system_logs_created ON system_logs(created_at);
`

// Open opens (creating if needed) the SQLite database and applies the schema.
func Open(dbPath string) (*DB, error) {
	// Foreign keys are off by default in SQLite.
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{db}, nil
}

// Healthy reports whether the database still answers.
func (d *DB) Healthy() bool {
	return d.Ping() == nil
}
