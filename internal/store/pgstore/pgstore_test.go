package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/store"
	"github.com/vbonduro/propinv/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("PROPINV_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PROPINV_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) storetest.Store {
		s, err := Open(context.Background(), dsn, store.NewCodec(catalog.Default()))
		require.NoError(t, err)
		_, err = s.db.Exec(`TRUNCATE inventories`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "", store.NewCodec(catalog.Default()))
	assert.Error(t, err)
}
