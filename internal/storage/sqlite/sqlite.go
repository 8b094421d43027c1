// Package sqlite is the embedded-file storage backend. It mirrors the
// postgres package's store surface over a local database file, so the
// two are interchangeable behind the service interfaces.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS stories (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	url TEXT,
	"text" TEXT,
	"by" TEXT NOT NULL,
	score INTEGER NOT NULL DEFAULT 0,
	descendants INTEGER NOT NULL DEFAULT 0,
	"time" INTEGER NOT NULL,
	"type" TEXT NOT NULL DEFAULT 'story',
	synced_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY,
	story_id INTEGER NOT NULL REFERENCES stories (id),
	parent_id INTEGER,
	"by" TEXT,
	"text" TEXT NOT NULL,
	"time" INTEGER,
	synced_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	stories_count INTEGER NOT NULL DEFAULT 0,
	comments_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'running',
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_stories_score ON stories (score DESC);
CREATE INDEX IF NOT EXISTS idx_stories_time ON stories ("time");
CREATE INDEX IF NOT EXISTS idx_comments_story_id ON comments (story_id);
`

// Open opens (creating if needed) the database file at path and applies
// the schema. WAL and a busy timeout keep the single file usable across
// the syncer and the HTTP read surface.
func Open(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	dsn := "file:" + path +
		"?_time_format=sqlite" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)"

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
