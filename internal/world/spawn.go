package world

import (
	"math/rand"

	"lost-and-found/server/internal/geom"
)

// DefaultSpawn is the start of the map's first road, where dogs appear
// unless random spawn points are enabled.
func (m *Map) DefaultSpawn() geom.Position {
	return m.roads[0].Start().Position()
}

// RandomSpawn picks a point uniformly over the road network's center
// lines, weighting each road by its length. Degenerate zero-length
// roads fall back to the default spawn.
func (m *Map) RandomSpawn(rng *rand.Rand) geom.Position {
	total := 0.0
	for _, road := range m.roads {
		total += road.Length()
	}
	if total == 0 {
		return m.DefaultSpawn()
	}
	pick := RandomFloat(rng) * total
	for _, road := range m.roads {
		length := road.Length()
		if pick <= length && length > 0 {
			return road.PointAt(pick / length)
		}
		pick -= length
	}
	return m.DefaultSpawn()
}
