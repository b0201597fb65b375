// Package vault numbers every photo in an inventory for cross-referencing
// between item rows and the photo appendix.
package vault

import "github.com/vbonduro/propinv/internal/domain"

// Entry is one photo in the vault with its owner and 1-based ordinal.
type Entry struct {
	Photo    domain.Photo
	RoomID   string
	RoomName string
	ItemID   string
	ItemName string
	Ordinal  int
}

// Build walks rooms, items and photos in snapshot order and numbers the
// photos 1..N. The result depends on nothing but the snapshot, so callers
// rebuild it whenever they need numbering instead of keeping it around.
func Build(inv *domain.Inventory) []Entry {
	var entries []Entry
	for _, room := range inv.Rooms {
		for _, item := range room.Items {
			for _, photo := range item.Photos {
				entries = append(entries, Entry{
					Photo:    photo,
					RoomID:   room.ID,
					RoomName: room.Name,
					ItemID:   item.ID,
					ItemName: item.Name,
					Ordinal:  len(entries) + 1,
				})
			}
		}
	}
	return entries
}

// Ordinals maps photo id to ordinal for inline badge lookups.
func Ordinals(entries []Entry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.Photo.ID] = e.Ordinal
	}
	return out
}
