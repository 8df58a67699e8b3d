package storage

import (
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many
// have run. Append only.
var migrations = []string{
	// v1: selection, chat transcript, batch history
	`
	CREATE TABLE staged_entries (
		position INTEGER PRIMARY KEY,
		source_path TEXT NOT NULL,
		relative_path TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE chat_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL,
		text TEXT NOT NULL,
		is_user INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX idx_chat_user ON chat_messages(username, seq);
	CREATE TABLE batch_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		total INTEGER NOT NULL,
		uploaded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0
	);
	`,
	// v2: per-file failure reasons
	`
	CREATE TABLE batch_failures (
		batch_id INTEGER NOT NULL REFERENCES batch_runs(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		message TEXT NOT NULL
	);
	CREATE INDEX idx_failures_batch ON batch_failures(batch_id);
	`,
}

// SchemaVersion is the version a fully migrated database reports.
func SchemaVersion() int {
	return len(migrations)
}

func (s *Store) userVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) migrate() error {
	current, err := s.userVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema v%d is newer than this binary (v%d)", current, len(migrations))
	}

	for v := current; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
		s.logger.Debugf("Schema migration applied: v%d", v+1)
	}
	return nil
}
