// Package loot owns the spawning of lost objects onto maps.
package loot

import (
	"sync/atomic"

	"lost-and-found/server/internal/world"
)

const (
	// RefillCount is how many items appear when a map runs out of loot.
	RefillCount = 5
	// DefaultItemType is the catalog index of refill items.
	DefaultItemType = 1
	// DefaultItemValue is the score value of refill items.
	DefaultItemValue = 10.0
)

// Generator refills empty maps and owns the process-wide item id
// counter, so ids stay unique across maps and are never reissued.
//
// The lootGeneratorConfig block rides along in cfg; the refill policy
// does not read it. Time-based generators can replace this one behind
// the same Refill signature.
type Generator struct {
	cfg    world.LootGeneratorConfig
	nextID atomic.Uint64
}

func NewGenerator(cfg world.LootGeneratorConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Refill spawns a fresh batch of items when the map's loot ran out. The
// items sit evenly spaced along the map's first road. It returns the
// spawned batch, empty when the map still has loot.
func (g *Generator) Refill(m *world.Map) []world.Item {
	if m == nil || m.LootCount() > 0 {
		return nil
	}
	road := m.Roads()[0]
	spawned := make([]world.Item, 0, RefillCount)
	for i := 0; i < RefillCount; i++ {
		frac := float64(i) / float64(RefillCount-1)
		item := world.Item{
			ID:    world.ItemID(g.nextID.Add(1)),
			Type:  DefaultItemType,
			Value: DefaultItemValue,
			Pos:   road.PointAt(frac),
		}
		m.AddLoot(item)
		spawned = append(spawned, item)
	}
	return spawned
}
