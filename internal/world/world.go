package world

import (
	"errors"
	"time"
)

// ErrUnknownMap reports a map id that resolves to nothing.
var ErrUnknownMap = errors.New("unknown map")

// LootGeneratorConfig carries the lootGeneratorConfig document block.
// The refill generator does not read it yet; richer generators may.
type LootGeneratorConfig struct {
	Period      float64
	Probability float64
}

// World is the static game model: every map keyed by id plus the
// game-wide settings shared across maps.
type World struct {
	maps        []*Map
	byID        map[MapID]*Map
	retireAfter time.Duration
	lootCfg     LootGeneratorConfig
}

// NewWorld indexes the given maps. Map ids must be unique.
func NewWorld(maps []*Map, retireAfter time.Duration, lootCfg LootGeneratorConfig) (*World, error) {
	if retireAfter <= 0 {
		retireAfter = DefaultRetirementTime
	}
	w := &World{
		maps:        maps,
		byID:        make(map[MapID]*Map, len(maps)),
		retireAfter: retireAfter,
		lootCfg:     lootCfg,
	}
	for _, m := range maps {
		if _, dup := w.byID[m.id]; dup {
			return nil, errors.New("duplicate map id " + string(m.id))
		}
		w.byID[m.id] = m
	}
	return w, nil
}

// FindMap resolves a map id, nil when unknown.
func (w *World) FindMap(id MapID) *Map {
	return w.byID[id]
}

// Maps lists every map in document order.
func (w *World) Maps() []*Map {
	return w.maps
}

// RetireAfter is how long a dog may stand still before its player is
// retired.
func (w *World) RetireAfter() time.Duration {
	return w.retireAfter
}

// LootConfig exposes the parsed lootGeneratorConfig block.
func (w *World) LootConfig() LootGeneratorConfig {
	return w.lootCfg
}
