package domain

import (
	"fmt"
	"time"

	"github.com/vbonduro/propinv/internal/catalog"
)

// NewInventory expands the catalog into a fresh DRAFT inventory. Rooms follow
// catalog order group by group; every item starts rated Good/Good, untested
// and on a standard meter.
func NewInventory(cat *catalog.Catalog, newID func() string, now time.Time) *Inventory {
	now = Normalize(now)
	inv := &Inventory{
		ID:                 newID(),
		DateCreated:        now,
		DateUpdated:        now,
		Status:             StatusDraft,
		HealthSafetyChecks: make([]HealthSafetyCheck, 0, len(cat.Questions)),
		Rooms:              make([]Room, 0, cat.RoomCount()),
		Documents:          newDocuments(cat.Documents, func(int) string { return newID() }),
		Signatures:         []SignatureEntry{},
	}

	for _, q := range cat.Questions {
		inv.HealthSafetyChecks = append(inv.HealthSafetyChecks, HealthSafetyCheck{
			ID:       newID(),
			Question: q,
			Answer:   AnswerUnanswered,
		})
	}

	for _, g := range cat.RoomGroups {
		for _, name := range g.Rooms {
			names := cat.ItemsFor(name)
			room := Room{
				ID:         newID(),
				Name:       name,
				FloorGroup: g.Group,
				Items:      make([]Item, 0, len(names)),
			}
			for _, itemName := range names {
				room.Items = append(room.Items, newItem(newID(), itemName))
			}
			inv.Rooms = append(inv.Rooms, room)
		}
	}

	return inv
}

func newItem(id, name string) Item {
	return Item{
		ID:            id,
		Name:          name,
		Condition:     ConditionGood,
		Cleanliness:   CleanlinessGood,
		Photos:        []Photo{},
		WorkingStatus: WorkingStatusNotTested,
		MeterType:     MeterStandard,
	}
}

func newDocuments(names []string, idFor func(i int) string) []Document {
	docs := make([]Document, 0, len(names))
	for i, name := range names {
		docs = append(docs, Document{ID: idFor(i), Name: name})
	}
	return docs
}

// FillDefaults synthesises values for fields that older snapshots predate:
// missing signatures become an empty list, a missing document list is rebuilt
// from the required documents catalog, and a missing status means DRAFT.
// Rebuilt documents get ids derived from the inventory id, so every decode of
// the same snapshot yields the same ids.
func (inv *Inventory) FillDefaults(documents []string) {
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if inv.Signatures == nil {
		inv.Signatures = []SignatureEntry{}
	}
	if inv.Documents == nil {
		inv.Documents = newDocuments(documents, func(i int) string {
			return legacyDocumentID(inv.ID, i)
		})
	}
	if inv.HealthSafetyChecks == nil {
		inv.HealthSafetyChecks = []HealthSafetyCheck{}
	}
	if inv.Rooms == nil {
		inv.Rooms = []Room{}
	}
	for r := range inv.Rooms {
		if inv.Rooms[r].Items == nil {
			inv.Rooms[r].Items = []Item{}
		}
		for i := range inv.Rooms[r].Items {
			if inv.Rooms[r].Items[i].Photos == nil {
				inv.Rooms[r].Items[i].Photos = []Photo{}
			}
		}
	}
	if inv.DateUpdated.Before(inv.DateCreated) {
		inv.DateUpdated = inv.DateCreated
	}
}

// Locked reports whether the inventory has been finalised.
func (inv *Inventory) Locked() bool {
	return inv.Status == StatusLocked
}

// Clone returns a deep copy that shares no slices with inv.
func (inv *Inventory) Clone() *Inventory {
	out := *inv
	out.FrontImage = cloneBytes(inv.FrontImage)

	if inv.HealthSafetyChecks != nil {
		out.HealthSafetyChecks = append([]HealthSafetyCheck{}, inv.HealthSafetyChecks...)
	}
	if inv.Rooms != nil {
		out.Rooms = make([]Room, len(inv.Rooms))
		for r, room := range inv.Rooms {
			out.Rooms[r] = room.clone()
		}
	}
	if inv.Documents != nil {
		out.Documents = make([]Document, len(inv.Documents))
		for d, doc := range inv.Documents {
			doc.FileData = cloneBytes(doc.FileData)
			if doc.UploadDate != nil {
				at := *doc.UploadDate
				doc.UploadDate = &at
			}
			out.Documents[d] = doc
		}
	}
	if inv.Signatures != nil {
		out.Signatures = make([]SignatureEntry, len(inv.Signatures))
		for s, sig := range inv.Signatures {
			sig.Data = cloneBytes(sig.Data)
			out.Signatures[s] = sig
		}
	}
	return &out
}

func (r Room) clone() Room {
	if r.Items == nil {
		return r
	}
	items := make([]Item, len(r.Items))
	for i, item := range r.Items {
		if item.Photos != nil {
			photos := make([]Photo, len(item.Photos))
			for p, photo := range item.Photos {
				photo.Image = cloneBytes(photo.Image)
				photos[p] = photo
			}
			item.Photos = photos
		}
		items[i] = item
	}
	r.Items = items
	return r
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

// Room returns the room with the given id.
func (inv *Inventory) Room(roomID string) (*Room, error) {
	for r := range inv.Rooms {
		if inv.Rooms[r].ID == roomID {
			return &inv.Rooms[r], nil
		}
	}
	return nil, fmt.Errorf("room %q: %w", roomID, ErrNotFound)
}

// Item returns the item with the given id inside the given room.
func (inv *Inventory) Item(roomID, itemID string) (*Room, *Item, error) {
	room, err := inv.Room(roomID)
	if err != nil {
		return nil, nil, err
	}
	for i := range room.Items {
		if room.Items[i].ID == itemID {
			return room, &room.Items[i], nil
		}
	}
	return nil, nil, fmt.Errorf("item %q in room %q: %w", itemID, roomID, ErrNotFound)
}

// Photo finds a photo anywhere in the inventory.
func (inv *Inventory) Photo(photoID string) (*Photo, error) {
	for r := range inv.Rooms {
		for i := range inv.Rooms[r].Items {
			photos := inv.Rooms[r].Items[i].Photos
			for p := range photos {
				if photos[p].ID == photoID {
					return &photos[p], nil
				}
			}
		}
	}
	return nil, fmt.Errorf("photo %q: %w", photoID, ErrNotFound)
}

// Validate checks the structural invariants of a snapshot.
func (inv *Inventory) Validate() error {
	if inv.ID == "" {
		return fmt.Errorf("inventory id is empty: %w", ErrValidation)
	}
	if inv.Status != StatusDraft && inv.Status != StatusLocked {
		return fmt.Errorf("unknown status %q: %w", inv.Status, ErrValidation)
	}
	if inv.DateUpdated.Before(inv.DateCreated) {
		return fmt.Errorf("dateUpdated precedes dateCreated: %w", ErrValidation)
	}
	photos := make(map[string]string)
	for _, room := range inv.Rooms {
		for _, item := range room.Items {
			for _, p := range item.Photos {
				if owner, ok := photos[p.ID]; ok {
					return fmt.Errorf("photo %q owned by items %q and %q: %w", p.ID, owner, item.ID, ErrValidation)
				}
				photos[p.ID] = item.ID
			}
		}
	}
	return nil
}
