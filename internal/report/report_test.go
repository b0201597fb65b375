package report

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/domain"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		RoomGroups: []catalog.RoomGroup{
			{Group: "GROUND FLOOR", Rooms: []string{"Meter Cupboard", "Kitchen"}},
			{Group: "FIRST FLOOR", Rooms: []string{"Bedroom 1"}},
		},
		DefaultItems:    []string{"Walls", "Flooring"},
		RoomItems:       map[string][]string{"Kitchen": {"Oven", "Sink"}, "Meter Cupboard": {"Gas Meter", "Door"}},
		MeterRooms:      []string{"Meter Cupboard"},
		Meters:          []string{"Gas Meter"},
		MajorAppliances: []string{"Oven"},
		Questions:       []string{"Smoke alarms present?"},
		Documents:       []string{"EPC"},
	}
}

func newInventory(t *testing.T) *domain.Inventory {
	t.Helper()
	n := 0
	ids := func() string { n++; return "id-" + strconv.Itoa(n) }
	return domain.NewInventory(testCatalog(), ids, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
}

func TestBuildSections(t *testing.T) {
	inv := newInventory(t)

	r := Build(inv, testCatalog())

	require.Len(t, r.Sections, 2)
	assert.Equal(t, "GROUND FLOOR", r.Sections[0].FloorGroup)
	assert.Len(t, r.Sections[0].Rooms, 2)
	assert.Equal(t, "FIRST FLOOR", r.Sections[1].FloorGroup)
	assert.Equal(t, "Bedroom 1", r.Sections[1].Rooms[0].Name)
	assert.Equal(t, 3, r.RoomCount())
	assert.True(t, r.Ready)
	assert.Empty(t, r.Vault)
}

func TestBuildSplitsNonContiguousGroups(t *testing.T) {
	inv := newInventory(t)
	// Move the bedroom between the two ground floor rooms.
	inv.Rooms[1], inv.Rooms[2] = inv.Rooms[2], inv.Rooms[1]

	r := Build(inv, testCatalog())

	require.Len(t, r.Sections, 3)
	assert.Equal(t, "GROUND FLOOR", r.Sections[0].FloorGroup)
	assert.Equal(t, "FIRST FLOOR", r.Sections[1].FloorGroup)
	assert.Equal(t, "GROUND FLOOR", r.Sections[2].FloorGroup)
}

func TestBuildClassifiesItems(t *testing.T) {
	inv := newInventory(t)
	meterRoom := &inv.Rooms[0]
	meterRoom.Items[0].MeterType = domain.MeterPAYG
	meterRoom.Items[0].Supplier = "British Gas"
	kitchen := &inv.Rooms[1]
	kitchen.Items[0].Make = "Bosch"

	r := Build(inv, testCatalog())

	gas := r.Sections[0].Rooms[0].Items[0]
	assert.Equal(t, catalog.KindMeter, gas.Kind)
	require.NotNil(t, gas.Meter)
	assert.Equal(t, domain.MeterPAYG, gas.Meter.MeterType)
	assert.Equal(t, "British Gas", gas.Meter.Supplier)
	assert.Nil(t, gas.Appliance)

	door := r.Sections[0].Rooms[0].Items[1]
	assert.Equal(t, catalog.KindOrdinary, door.Kind)
	assert.Nil(t, door.Meter)
	assert.Nil(t, door.Appliance)

	oven := r.Sections[0].Rooms[1].Items[0]
	assert.Equal(t, catalog.KindAppliance, oven.Kind)
	require.NotNil(t, oven.Appliance)
	assert.Equal(t, "Bosch", oven.Appliance.Make)
	assert.Equal(t, domain.WorkingStatusNotTested, oven.Appliance.WorkingStatus)
}

func TestBuildPhotoOrdinals(t *testing.T) {
	inv := newInventory(t)
	at := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	inv.Rooms[1].Items[0].Photos = []domain.Photo{{ID: "A", Image: []byte{1}, Timestamp: at}, {ID: "C", Image: []byte{3}}}
	inv.Rooms[1].Items[1].Photos = []domain.Photo{{ID: "B", Image: []byte{2}}}
	inv.Rooms[2].Items[0].Photos = []domain.Photo{{ID: "D", Image: []byte{4}}}

	r := Build(inv, testCatalog())

	kitchen := r.Sections[0].Rooms[1]
	assert.Equal(t, []int{1, 2}, kitchen.Items[0].PhotoOrdinals)
	assert.Equal(t, []int{3}, kitchen.Items[1].PhotoOrdinals)
	assert.Equal(t, []int{4}, r.Sections[1].Rooms[0].Items[0].PhotoOrdinals)

	require.Len(t, r.Vault, 4)
	assert.Equal(t, VaultRow{Ordinal: 1, PhotoID: "A", RoomName: "Kitchen", ItemName: "Oven", Timestamp: at}, r.Vault[0])
	require.Len(t, r.Entries(), 4)
	assert.Equal(t, []byte{4}, r.Entries()[3].Photo.Image)
	assert.True(t, r.Ready)
}

func TestBuildNotReadyWithSharedPhoto(t *testing.T) {
	inv := newInventory(t)
	p := domain.Photo{ID: "dup", Image: []byte{1}}
	inv.Rooms[0].Items[0].Photos = []domain.Photo{p}
	inv.Rooms[1].Items[0].Photos = []domain.Photo{p}

	assert.False(t, Build(inv, testCatalog()).Ready)
}

func TestBuildDocumentsAndSignatures(t *testing.T) {
	inv := newInventory(t)
	uploaded := time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC)
	inv.Documents[0].FileData = []byte("pdf")
	inv.Documents[0].UploadDate = &uploaded
	inv.Signatures = []domain.SignatureEntry{{ID: "s", Name: "Sam", Type: domain.SignerTenant, Data: []byte{1}, Date: uploaded}}

	r := Build(inv, testCatalog())

	require.Len(t, r.Documents, 1)
	assert.True(t, r.Documents[0].Uploaded)
	assert.Equal(t, &uploaded, r.Documents[0].UploadDate)
	assert.Equal(t, []SignatureRow{{Name: "Sam", Type: domain.SignerTenant, Date: uploaded}}, r.Signatures)
}

func TestReportJSONOmitsPayloads(t *testing.T) {
	inv := newInventory(t)
	inv.FrontImage = []byte("front")
	inv.Rooms[0].Items[0].Photos = []domain.Photo{{ID: "A", Image: []byte("secret-bytes")}}

	data, err := json.Marshal(Build(inv, testCatalog()))
	require.NoError(t, err)

	assert.NotContains(t, string(data), "c2VjcmV0LWJ5dGVz")
	assert.Contains(t, string(data), `"kind":"meter"`)
	assert.Contains(t, string(data), `"hasFrontImage":true`)
}
