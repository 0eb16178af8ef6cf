package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryable is the part of *pgxpool.Pool the store uses.
type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresStore keeps each collection as one JSONB row in the collections
// table (see migrations/001_collections.sql).
type PostgresStore struct {
	db queryable
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) Load(ctx context.Context, c Collection) (Snapshot, error) {
	if !c.Valid() {
		return Snapshot{}, ErrUnknownCollection
	}

	var snap Snapshot
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data, version, updated_at FROM collections WHERE name = $1`,
		string(c),
	).Scan(&data, &snap.Version, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select collection: %w", err)
	}
	snap.Data = json.RawMessage(data)
	return snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, c Collection, data json.RawMessage, expected int64) (int64, error) {
	if !c.Valid() {
		return 0, ErrUnknownCollection
	}

	var row pgx.Row
	if expected == 0 {
		row = s.db.QueryRow(ctx, `
			INSERT INTO collections (name, data, version, updated_at)
			VALUES ($1, $2::jsonb, 1, NOW())
			ON CONFLICT (name) DO NOTHING
			RETURNING version`,
			string(c), string(data))
	} else {
		row = s.db.QueryRow(ctx, `
			UPDATE collections
			SET data = $2::jsonb, version = version + 1, updated_at = NOW()
			WHERE name = $1 AND version = $3
			RETURNING version`,
			string(c), string(data), expected)
	}

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("write collection: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) Version(ctx context.Context, c Collection) (int64, error) {
	if !c.Valid() {
		return 0, ErrUnknownCollection
	}
	var version int64
	err := s.db.QueryRow(ctx, `SELECT version FROM collections WHERE name = $1`, string(c)).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select version: %w", err)
	}
	return version, nil
}
