// Package history keeps the station's as-run log: every segment that went
// on air, in a SQLite database. It is a record for humans, never read back
// to decide what plays.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/satindergrewal/airwaves/internal/timeline"
)

// Entry is one row of the as-run log.
type Entry struct {
	AiredAt   time.Time `json:"aired_at"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Narration string    `json:"narration,omitempty"`
}

// Log wraps the as-run database.
type Log struct {
	db *sql.DB
}

// Open opens or creates the log at path.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS as_run (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			aired_at  INTEGER NOT NULL,
			kind      TEXT NOT NULL,
			title     TEXT NOT NULL DEFAULT '',
			narration TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS as_run_aired_at ON as_run(aired_at);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create as_run table: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends a segment. Silence gaps are not logged.
func (l *Log) Record(ctx context.Context, s timeline.State, at time.Time) error {
	if s.Kind == timeline.Silence {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO as_run (aired_at, kind, title, narration) VALUES (?, ?, ?, ?)`,
		at.UnixMilli(), s.Kind.String(), s.Title(), s.Caption())
	if err != nil {
		return fmt.Errorf("record %s: %w", s, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT aired_at, kind, title, narration FROM as_run ORDER BY aired_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&ms, &e.Kind, &e.Title, &e.Narration); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.AiredAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}
