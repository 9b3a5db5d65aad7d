package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
// Use MemoryPath for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, wrap(err, ErrOpenFailed)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(err, ErrOpenFailed)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, wrap(err, ErrSchemaFailed)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		snapshot TEXT NOT NULL,
		formats TEXT NOT NULL,
		files TEXT,
		output_dir TEXT NOT NULL,
		outcome TEXT NOT NULL,
		errors INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_snapshot ON builds(snapshot);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a build record.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	formats, err := json.Marshal(rec.Formats)
	if err != nil {
		return wrap(fmt.Errorf("marshal formats: %w", err), ErrRecordFailed)
	}
	files, err := json.Marshal(rec.Files)
	if err != nil {
		return wrap(fmt.Errorf("marshal files: %w", err), ErrRecordFailed)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, snapshot, formats, files, output_dir, outcome, errors, warnings, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Snapshot, string(formats), string(files), rec.OutputDir, rec.Outcome,
		rec.Errors, rec.Warnings, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return wrap(err, ErrRecordFailed)
	}
	return nil
}

// Latest returns the most recent record, or nil when none exists.
func (s *SQLiteStore) Latest(ctx context.Context) (*Record, error) {
	recs, err := s.List(ctx, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// List returns up to limit records, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, snapshot, formats, files, output_dir, outcome, errors, warnings, started_at, duration_ms
		FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrap(err, ErrQueryFailed)
	}
	defer func() { _ = rows.Close() }()

	var recs []Record
	for rows.Next() {
		var (
			rec            Record
			formats        string
			files          sql.NullString
			started, durMS int64
		)
		if err := rows.Scan(&rec.BuildID, &rec.Snapshot, &formats, &files, &rec.OutputDir, &rec.Outcome,
			&rec.Errors, &rec.Warnings, &started, &durMS); err != nil {
			return nil, wrap(fmt.Errorf("scan build: %w", err), ErrQueryFailed)
		}
		if err := json.Unmarshal([]byte(formats), &rec.Formats); err != nil {
			return nil, wrap(fmt.Errorf("unmarshal formats: %w", err), ErrQueryFailed)
		}
		if files.Valid && files.String != "" {
			if err := json.Unmarshal([]byte(files.String), &rec.Files); err != nil {
				return nil, wrap(fmt.Errorf("unmarshal files: %w", err), ErrQueryFailed)
			}
		}
		rec.StartedAt = time.UnixMilli(started)
		rec.Duration = time.Duration(durMS) * time.Millisecond
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(fmt.Errorf("iterate rows: %w", err), ErrQueryFailed)
	}
	return recs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
