package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/propinv/internal/domain"
)

// dateLayout is fixed width so date_updated sorts lexically.
const dateLayout = "2006-01-02T15:04:05.000Z"

type InventoryStore struct {
	db    *sql.DB
	codec *Codec
}

func NewInventoryStore(db *sql.DB, codec *Codec) *InventoryStore {
	return &InventoryStore{db: db, codec: codec}
}

// Put inserts or wholly replaces the snapshot with the same id.
func (s *InventoryStore) Put(ctx context.Context, inv *domain.Inventory) error {
	payload, err := s.codec.Encode(inv)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inventories (id, status, date_updated, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status       = excluded.status,
			date_updated = excluded.date_updated,
			payload      = excluded.payload
	`, inv.ID, string(inv.Status), inv.DateUpdated.UTC().Format(dateLayout), payload)
	if err != nil {
		return fmt.Errorf("failed to put inventory: %w", err)
	}
	return nil
}

func (s *InventoryStore) Get(ctx context.Context, id string) (*domain.Inventory, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM inventories WHERE id = ?
	`, id).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	return s.codec.Decode(payload)
}

// List returns every snapshot, most recently updated first.
func (s *InventoryStore) List(ctx context.Context) ([]*domain.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM inventories ORDER BY date_updated DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}
	defer rows.Close()

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
