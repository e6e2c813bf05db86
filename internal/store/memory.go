package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
)

// Memory is an in-process Store
type Memory struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]Snapshot
	now       func() time.Time
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[uuid.UUID]Snapshot),
		now:       time.Now,
	}
}

func (m *Memory) Save(_ context.Context, id uuid.UUID, state assembly.State) error {
	state.Sections = maps.Clone(state.Sections)
	m.mu.Lock()
	m.snapshots[id] = Snapshot{ID: id, State: state, UpdatedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(_ context.Context, id uuid.UUID) (*Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.snapshots[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	snap.State.Sections = maps.Clone(snap.State.Sections)
	return &snap, nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.snapshots, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {}
