package world

import (
	"encoding/json"
	"fmt"

	"lost-and-found/server/internal/geom"
)

type MapID string

// ItemID identifies a loot item. Ids are unique across every map for the
// lifetime of the process and are never reissued.
type ItemID uint64

type OfficeID string

// Building occupies a rectangle of the map. Buildings never block
// movement; they exist for rendering clients.
type Building struct {
	Bounds geom.Rectangle
}

// Office is a drop-off point where dogs convert bagged loot into score.
// The offset shifts the door sprite and has no effect on collisions.
type Office struct {
	ID       OfficeID
	Position geom.Point
	Offset   geom.Offset
}

// LootType is one catalog entry of a map. Raw retains the full document
// entry so the map can be served back to clients unchanged.
type LootType struct {
	Value float64
	Raw   json.RawMessage
}

// Item is one loot object lying on a map.
type Item struct {
	ID    ItemID
	Type  int
	Value float64
	Pos   geom.Position
}

// Map bundles the static layout of one game map with its mutable loot
// set. Loot mutations must happen under the owning game's lock.
type Map struct {
	id          MapID
	name        string
	dogSpeed    float64
	bagCapacity int
	roads       []Road
	strips      []Strip
	buildings   []Building
	offices     []Office
	lootTypes   []LootType
	loot        []Item
}

// NewMap builds a map from resolved settings. The road list must not be
// empty; spawning and loot seeding both use the first road.
func NewMap(id MapID, name string, dogSpeed float64, bagCapacity int, roads []Road, buildings []Building, offices []Office, lootTypes []LootType) (*Map, error) {
	if id == "" {
		return nil, fmt.Errorf("map with empty id")
	}
	if len(roads) == 0 {
		return nil, fmt.Errorf("map %q: no roads", id)
	}
	if dogSpeed <= 0 {
		return nil, fmt.Errorf("map %q: dog speed %v is not positive", id, dogSpeed)
	}
	if bagCapacity < 0 {
		return nil, fmt.Errorf("map %q: bag capacity %d is negative", id, bagCapacity)
	}
	m := &Map{
		id:          id,
		name:        name,
		dogSpeed:    dogSpeed,
		bagCapacity: bagCapacity,
		roads:       roads,
		buildings:   buildings,
		offices:     offices,
		lootTypes:   lootTypes,
	}
	m.strips = make([]Strip, len(roads))
	for i, road := range roads {
		m.strips[i] = road.Strip()
	}
	return m, nil
}

func (m *Map) ID() MapID    { return m.id }
func (m *Map) Name() string { return m.name }

// DogSpeed is the per-second speed dogs move at on this map.
func (m *Map) DogSpeed() float64 { return m.dogSpeed }

// BagCapacity is how many loot items a dog on this map can carry.
func (m *Map) BagCapacity() int { return m.bagCapacity }

func (m *Map) Roads() []Road         { return m.roads }
func (m *Map) Buildings() []Building { return m.buildings }
func (m *Map) Offices() []Office     { return m.offices }
func (m *Map) LootTypes() []LootType { return m.lootTypes }

// Loot returns the live loot sequence in spawn order. Callers must not
// mutate it; use AddLoot and TakeLoot.
func (m *Map) Loot() []Item { return m.loot }

func (m *Map) LootCount() int { return len(m.loot) }

// AddLoot appends an item to the map's loot sequence.
func (m *Map) AddLoot(item Item) {
	m.loot = append(m.loot, item)
}

// TakeLoot removes the item with the given id, preserving the order of
// the remaining items. It reports false when the item is not on the map.
func (m *Map) TakeLoot(id ItemID) (Item, bool) {
	for i, item := range m.loot {
		if item.ID == id {
			m.loot = append(m.loot[:i], m.loot[i+1:]...)
			return item, true
		}
	}
	return Item{}, false
}
