// Package pgstore keeps inventory snapshots in PostgreSQL as jsonb rows.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/store"
)

const driverName = "pgx"

type Store struct {
	db    *sql.DB
	codec *store.Codec
}

// Open connects to dsn and creates the inventories table if needed.
func Open(ctx context.Context, dsn string, codec *store.Codec) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, codec: codec}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS inventories (
			id           TEXT PRIMARY KEY,
			status       TEXT        NOT NULL,
			date_updated TIMESTAMPTZ NOT NULL,
			payload      JSONB       NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create inventories table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, inv *domain.Inventory) error {
	payload, err := s.codec.Encode(inv)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inventories (id, status, date_updated, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			status       = EXCLUDED.status,
			date_updated = EXCLUDED.date_updated,
			payload      = EXCLUDED.payload
	`, inv.ID, string(inv.Status), inv.DateUpdated, string(payload))
	if err != nil {
		return fmt.Errorf("failed to put inventory: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Inventory, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM inventories WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return s.codec.Decode(payload)
}

func (s *Store) List(ctx context.Context) ([]*domain.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM inventories ORDER BY date_updated DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var inventories []*domain.Inventory
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		inv, err := s.codec.Decode(payload)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventories: %w", err)
	}
	return inventories, nil
}
