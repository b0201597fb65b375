package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/store/storetest"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec(catalog.Default())
	inv := storetest.Sample(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))

	data, err := codec.Encode(inv)
	require.NoError(t, err)
	got, err := codec.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, inv, got)
}

// legacySnapshot was written before signatures, documents and status existed.
var legacySnapshot = []byte(`{
	"id": "legacy-1",
	"address": "1 High St",
	"dateCreated": "2025-01-02T10:00:00Z",
	"dateUpdated": "2025-01-02T11:00:00Z",
	"healthSafetyChecks": [{"id": "c1", "question": "Smoke alarms?", "answer": "YES"}],
	"rooms": [{"id": "r1", "name": "Hall", "floorGroup": "GROUND FLOOR",
		"items": [{"id": "i1", "name": "Walls", "condition": "Good", "cleanliness": "Good", "description": ""}]}]
}`)

func TestCodecFillsMissingFields(t *testing.T) {
	cat := catalog.Default()
	codec := NewCodec(cat)

	inv, err := codec.Decode(legacySnapshot)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, inv.Status)
	assert.False(t, inv.TenantPresent)
	assert.NotNil(t, inv.Signatures)
	assert.Empty(t, inv.Signatures)
	require.Len(t, inv.Documents, len(cat.Documents))
	assert.Equal(t, cat.Documents[0], inv.Documents[0].Name)
	assert.NotEmpty(t, inv.Documents[0].ID)
	assert.NotNil(t, inv.Rooms[0].Items[0].Photos)
	assert.Equal(t, domain.AnswerYes, inv.HealthSafetyChecks[0].Answer)
	require.NoError(t, inv.Validate())
}

func TestCodecLegacyDocumentIDsAreStable(t *testing.T) {
	codec := NewCodec(catalog.Default())

	first, err := codec.Decode(legacySnapshot)
	require.NoError(t, err)
	second, err := codec.Decode(legacySnapshot)
	require.NoError(t, err)

	require.NotEmpty(t, first.Documents)
	assert.Equal(t, first.Documents, second.Documents)
}

func TestCodecRejectsGarbage(t *testing.T) {
	_, err := NewCodec(catalog.Default()).Decode([]byte("not json"))
	assert.Error(t, err)
}
