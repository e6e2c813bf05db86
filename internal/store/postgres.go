package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmyLu0828/the-resume-hub/internal/assembly"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS documents (
	id         UUID PRIMARY KEY,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres stores snapshots in a PostgreSQL table
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and makes sure the table exists
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Save upserts the snapshot for id
func (p *Postgres) Save(ctx context.Context, id uuid.UUID, state assembly.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal document state: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO documents (id, state, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET state = $2, updated_at = NOW()`,
		id, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// Load returns the snapshot for id, or ErrNotFound
func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	snap := Snapshot{ID: id}
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT state, updated_at FROM documents WHERE id = $1`, id,
	).Scan(&payload, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}

	if err := json.Unmarshal(payload, &snap.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	return &snap, nil
}

// Delete removes the snapshot for id
func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}
