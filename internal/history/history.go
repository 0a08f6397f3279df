// Package history keeps a log of completed builds in SQLite.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Build is one completed build or single-page render.
type Build struct {
	ID        string
	Kind      string
	Reason    string
	Trigger   string
	Rendered  int
	Skipped   int
	Failed    int
	Revision  string
	StartedAt time.Time
	Duration  time.Duration
	Error     string
}

// NewBuildID returns a fresh build identifier.
func NewBuildID() string { return uuid.NewString() }

// Store records builds and lists the most recent ones.
type Store interface {
	Record(ctx context.Context, b Build) error
	Recent(ctx context.Context, limit int) ([]Build, error)
	Close() error
}

// NoopStore discards everything. Used when history is disabled.
type NoopStore struct{}

func (NoopStore) Record(context.Context, Build) error          { return nil }
func (NoopStore) Recent(context.Context, int) ([]Build, error) { return nil, nil }
func (NoopStore) Close() error                                 { return nil }
