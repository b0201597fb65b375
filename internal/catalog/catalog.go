// Package catalog holds the static reference data used to seed a new
// inventory: room groups, per-room item lists, checklist questions and the
// required documents list. It also classifies items into the specialised kinds
// the report surfaces extra fields for.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// RoomGroup is a floor or section heading together with the rooms under it.
type RoomGroup struct {
	Group string   `yaml:"group" json:"group"`
	Rooms []string `yaml:"rooms" json:"rooms"`
}

type Catalog struct {
	RoomGroups      []RoomGroup         `yaml:"room_groups" json:"roomGroups"`
	DefaultItems    []string            `yaml:"default_items" json:"defaultItems"`
	RoomItems       map[string][]string `yaml:"room_items" json:"roomItems"`
	MeterRooms      []string            `yaml:"meter_rooms" json:"meterRooms"`
	Meters          []string            `yaml:"meters" json:"meters"`
	MajorAppliances []string            `yaml:"major_appliances" json:"majorAppliances"`
	Questions       []string            `yaml:"questions" json:"questions"`
	Documents       []string            `yaml:"documents" json:"documents"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the built-in catalog when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.RoomGroups) == 0 {
		return fmt.Errorf("catalog has no room groups")
	}
	seen := make(map[string]bool)
	for _, g := range c.RoomGroups {
		if g.Group == "" {
			return fmt.Errorf("catalog room group without a name")
		}
		for _, r := range g.Rooms {
			if seen[r] {
				return fmt.Errorf("catalog room %q listed twice", r)
			}
			seen[r] = true
		}
	}
	if len(c.DefaultItems) == 0 {
		return fmt.Errorf("catalog has no default items")
	}
	return nil
}

// RoomCount returns the total number of rooms across all groups.
func (c *Catalog) RoomCount() int {
	n := 0
	for _, g := range c.RoomGroups {
		n += len(g.Rooms)
	}
	return n
}

// ItemsFor returns the item names a room starts with.
func (c *Catalog) ItemsFor(room string) []string {
	if items, ok := c.RoomItems[room]; ok {
		return items
	}
	return c.DefaultItems
}

// Kind is the specialised classification of an item. Ordinary items show only
// ratings and notes; meters and appliances surface their extra fields.
type Kind int

const (
	KindOrdinary Kind = iota
	KindMeter
	KindAppliance
)

func (k Kind) String() string {
	switch k {
	case KindMeter:
		return "meter"
	case KindAppliance:
		return "appliance"
	default:
		return "ordinary"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "meter":
		*k = KindMeter
	case "appliance":
		*k = KindAppliance
	case "ordinary":
		*k = KindOrdinary
	default:
		return fmt.Errorf("unknown item kind %q", text)
	}
	return nil
}

// Classify derives the kind of an item from its room and item name.
func (c *Catalog) Classify(room, item string) Kind {
	switch {
	case slices.Contains(c.MeterRooms, room) && slices.Contains(c.Meters, item):
		return KindMeter
	case slices.Contains(c.MajorAppliances, item):
		return KindAppliance
	default:
		return KindOrdinary
	}
}
