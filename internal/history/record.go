// Package history persists a record of every build so unchanged inputs can
// be detected and past runs inspected.
package history

import (
	"context"
	"time"
)

// Record describes one completed build.
type Record struct {
	BuildID   string        `json:"build_id"`
	Snapshot  string        `json:"snapshot"`
	Formats   []string      `json:"formats"`
	Files     []string      `json:"files,omitempty"`
	OutputDir string        `json:"output_dir"`
	Outcome   string        `json:"outcome"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Store persists build records.
type Store interface {
	// Record appends a build record.
	Record(ctx context.Context, rec Record) error

	// Latest returns the most recent record, or nil when there is none.
	Latest(ctx context.Context) (*Record, error)

	// List returns up to limit records, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]Record, error)

	// Close releases resources.
	Close() error
}
