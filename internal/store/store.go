// Package store persists rendered document state so a document instance can
// be resumed after a restart.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
)

// ErrNotFound is returned when no snapshot exists for an id
var ErrNotFound = errors.New("document not found")

// Snapshot is the persisted form of one document instance
type Snapshot struct {
	ID        uuid.UUID      `json:"id"`
	State     assembly.State `json:"state"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Store saves and loads document snapshots
type Store interface {
	Save(ctx context.Context, id uuid.UUID, state assembly.State) error
	Load(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close()
}
