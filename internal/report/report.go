// Package report assembles the read-only view a renderer or exporter needs:
// rooms grouped into floor sections, item kinds, photo numbering and the
// pre-print readiness signal.
package report

import (
	"time"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/vault"
)

type Report struct {
	InventoryID         string        `json:"inventoryId"`
	Address             string        `json:"address"`
	ClientName          string        `json:"clientName"`
	InspectorName       string        `json:"inspectorName"`
	PropertyDescription string        `json:"propertyDescription"`
	HasFrontImage       bool          `json:"hasFrontImage"`
	Status              domain.Status `json:"status"`
	DateCreated         time.Time     `json:"dateCreated"`
	DateUpdated         time.Time     `json:"dateUpdated"`
	TenantPresent       bool          `json:"tenantPresent"`
	DeclarationAgreed   bool          `json:"declarationAgreed"`

	Sections   []Section                  `json:"sections"`
	Checks     []domain.HealthSafetyCheck `json:"checks"`
	Documents  []DocumentRow              `json:"documents"`
	Signatures []SignatureRow             `json:"signatures"`
	Vault      []VaultRow                 `json:"vault"`

	// Ready is the pre-print signal: every room is laid out and the vault
	// has been enumerated for this snapshot.
	Ready bool `json:"ready"`

	entries []vault.Entry
}

// Section is a contiguous run of rooms sharing a floor group.
type Section struct {
	FloorGroup string    `json:"floorGroup"`
	Rooms      []RoomRow `json:"rooms"`
}

type RoomRow struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Items []ItemRow `json:"items"`
}

type ItemRow struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Kind          catalog.Kind       `json:"kind"`
	Condition     domain.Condition   `json:"condition"`
	Cleanliness   domain.Cleanliness `json:"cleanliness"`
	Description   string             `json:"description"`
	PhotoOrdinals []int              `json:"photoOrdinals"`
	Appliance     *ApplianceFields   `json:"appliance,omitempty"`
	Meter         *MeterFields       `json:"meter,omitempty"`
}

type ApplianceFields struct {
	Make          string `json:"make"`
	Model         string `json:"model"`
	SerialNumber  string `json:"serialNumber"`
	WorkingStatus string `json:"workingStatus"`
}

type MeterFields struct {
	MeterType    domain.MeterType `json:"meterType"`
	Supplier     string           `json:"supplier"`
	SerialNumber string           `json:"serialNumber"`
}

type DocumentRow struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Uploaded   bool       `json:"uploaded"`
	UploadDate *time.Time `json:"uploadDate"`
}

type SignatureRow struct {
	Name string            `json:"name"`
	Type domain.SignerType `json:"type"`
	Date time.Time         `json:"date"`
}

// VaultRow is a vault entry without the image payload.
type VaultRow struct {
	Ordinal   int       `json:"ordinal"`
	PhotoID   string    `json:"photoId"`
	RoomName  string    `json:"roomName"`
	ItemName  string    `json:"itemName"`
	Timestamp time.Time `json:"timestamp"`
}

// Build derives the report for one snapshot. Item kinds are classified once
// here from the catalog; nothing in the result is persisted.
func Build(inv *domain.Inventory, cat *catalog.Catalog) *Report {
	entries := vault.Build(inv)
	ordinals := vault.Ordinals(entries)

	r := &Report{
		InventoryID:         inv.ID,
		Address:             inv.Address,
		ClientName:          inv.ClientName,
		InspectorName:       inv.InspectorName,
		PropertyDescription: inv.PropertyDescription,
		HasFrontImage:       len(inv.FrontImage) > 0,
		Status:              inv.Status,
		DateCreated:         inv.DateCreated,
		DateUpdated:         inv.DateUpdated,
		TenantPresent:       inv.TenantPresent,
		DeclarationAgreed:   inv.DeclarationAgreed,
		Sections:            []Section{},
		Checks:              append([]domain.HealthSafetyCheck{}, inv.HealthSafetyChecks...),
		Documents:           make([]DocumentRow, 0, len(inv.Documents)),
		Signatures:          make([]SignatureRow, 0, len(inv.Signatures)),
		Vault:               make([]VaultRow, 0, len(entries)),
		entries:             entries,
	}

	for _, room := range inv.Rooms {
		row := RoomRow{ID: room.ID, Name: room.Name, Items: make([]ItemRow, 0, len(room.Items))}
		for _, item := range room.Items {
			row.Items = append(row.Items, itemRow(cat, room.Name, item, ordinals))
		}
		if n := len(r.Sections); n == 0 || r.Sections[n-1].FloorGroup != room.FloorGroup {
			r.Sections = append(r.Sections, Section{FloorGroup: room.FloorGroup})
		}
		last := &r.Sections[len(r.Sections)-1]
		last.Rooms = append(last.Rooms, row)
	}

	for _, d := range inv.Documents {
		r.Documents = append(r.Documents, DocumentRow{ID: d.ID, Name: d.Name, Uploaded: d.Uploaded(), UploadDate: d.UploadDate})
	}
	for _, s := range inv.Signatures {
		r.Signatures = append(r.Signatures, SignatureRow{Name: s.Name, Type: s.Type, Date: s.Date})
	}
	for _, e := range entries {
		r.Vault = append(r.Vault, VaultRow{
			Ordinal:   e.Ordinal,
			PhotoID:   e.Photo.ID,
			RoomName:  e.RoomName,
			ItemName:  e.ItemName,
			Timestamp: e.Photo.Timestamp,
		})
	}

	// Photo ids shared between items would collapse in the ordinal map.
	r.Ready = r.RoomCount() == len(inv.Rooms) && len(entries) == len(ordinals)
	return r
}

func itemRow(cat *catalog.Catalog, roomName string, item domain.Item, ordinals map[string]int) ItemRow {
	row := ItemRow{
		ID:            item.ID,
		Name:          item.Name,
		Kind:          cat.Classify(roomName, item.Name),
		Condition:     item.Condition,
		Cleanliness:   item.Cleanliness,
		Description:   item.Description,
		PhotoOrdinals: make([]int, 0, len(item.Photos)),
	}
	for _, p := range item.Photos {
		row.PhotoOrdinals = append(row.PhotoOrdinals, ordinals[p.ID])
	}

	switch row.Kind {
	case catalog.KindAppliance:
		row.Appliance = &ApplianceFields{
			Make:          item.Make,
			Model:         item.Model,
			SerialNumber:  item.SerialNumber,
			WorkingStatus: item.WorkingStatus,
		}
	case catalog.KindMeter:
		row.Meter = &MeterFields{
			MeterType:    item.MeterType,
			Supplier:     item.Supplier,
			SerialNumber: item.SerialNumber,
		}
	}
	return row
}

// Entries returns the vault entries, image payloads included, that the
// report was built from.
func (r *Report) Entries() []vault.Entry {
	return r.entries
}

// RoomCount returns the number of rooms across all sections.
func (r *Report) RoomCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Rooms)
	}
	return n
}
