package store

import (
	"encoding/json"
	"fmt"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/domain"
)

// Codec serialises whole inventory snapshots. Decoding fills in fields that
// older snapshots predate so they load instead of failing.
type Codec struct {
	documents []string
}

func NewCodec(cat *catalog.Catalog) *Codec {
	return &Codec{documents: cat.Documents}
}

func (c *Codec) Encode(inv *domain.Inventory) ([]byte, error) {
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inventory: %w", err)
	}
	return data, nil
}

func (c *Codec) Decode(data []byte) (*domain.Inventory, error) {
	var inv domain.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	inv.FillDefaults(c.documents)
	return &inv, nil
}
