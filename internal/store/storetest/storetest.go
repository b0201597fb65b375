// Package storetest holds the behaviour every inventory store backend must
// share, run against each backend from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/domain"
)

type Store interface {
	Put(ctx context.Context, inv *domain.Inventory) error
	Get(ctx context.Context, id string) (*domain.Inventory, error)
	List(ctx context.Context) ([]*domain.Inventory, error)
}

var epoch = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

// Sample returns a fully populated snapshot: answered checks, a photo, an
// uploaded document, a signature and a front image.
func Sample(t *testing.T, at time.Time) *domain.Inventory {
	t.Helper()
	inv := domain.NewInventory(catalog.Default(), domain.NewID, at)
	room := inv.Rooms[0]
	item := room.Items[0]
	yes := "kitchen and hall"

	steps := []domain.Mutation{
		domain.UpdateFields(domain.FieldPatch{Address: strPtr("1 High St"), TenantPresent: boolPtr(true)}),
		domain.SetFrontImage([]byte("front")),
		domain.AnswerCheck(inv.HealthSafetyChecks[0].ID, domain.AnswerYes, &yes),
		domain.AppendPhoto(room.ID, item.ID, domain.Photo{ID: domain.NewID(), Image: []byte{0xFF, 0xD8, 0xFF}, Timestamp: at}),
		domain.UploadDocument(inv.Documents[0].ID, []byte("%PDF-1.7"), at),
		domain.AddSignature(domain.SignatureEntry{ID: domain.NewID(), Name: "Sam", Type: domain.SignerTenant, Data: []byte{1, 2}, Date: at}),
	}
	for _, m := range steps {
		var err error
		inv, err = domain.Apply(inv, at, m)
		require.NoError(t, err)
	}
	return inv
}

// Run exercises the store contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Get(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		inv := Sample(t, epoch)

		require.NoError(t, s.Put(ctx, inv))
		got, err := s.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv, got)
	})

	t.Run("put replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		inv := Sample(t, epoch)
		require.NoError(t, s.Put(ctx, inv))

		next, err := domain.Apply(inv, epoch.Add(time.Hour), domain.UpdateFields(domain.FieldPatch{Address: strPtr("2 Low Rd")}))
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, next))

		got, err := s.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "2 Low Rd", got.Address)
		assert.Equal(t, next.DateUpdated, got.DateUpdated)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("list", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		older := Sample(t, epoch)
		newer := Sample(t, epoch.Add(24*time.Hour))
		require.NoError(t, s.Put(ctx, older))
		require.NoError(t, s.Put(ctx, newer))

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		ids := []string{all[0].ID, all[1].ID}
		assert.ElementsMatch(t, []string{older.ID, newer.ID}, ids)
	})
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
