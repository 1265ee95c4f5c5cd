// Package collision turns a dog's per-tick path into the ordered list of
// loot pickups and office visits that happen along it.
package collision

import (
	"math"
	"sort"

	"lost-and-found/server/internal/geom"
	"lost-and-found/server/internal/world"
)

const (
	// ItemRadius is the pickup distance between a dog and a loot item.
	ItemRadius = 0.3
	// OfficeRadius is the deposit distance between a dog and an office.
	OfficeRadius = 0.55

	// zeroPath is the threshold below which a move counts as stationary.
	zeroPath = 1e-9
)

type Kind int

const (
	ItemPickup Kind = iota
	OfficeReturn
)

// Event is one collision on a dog's path, ordered by T, the fraction of
// the path travelled when the collision starts.
type Event struct {
	Kind   Kind
	Item   world.ItemID
	Office world.OfficeID
	T      float64
}

// Time computes the entry parameter at which a path from start to end
// first comes within radius of target. The boolean is false when the
// path never enters the circle. A stationary path collides at t = 0
// when it already lies within the radius.
func Time(start, end, target geom.Position, radius float64) (float64, bool) {
	dx := end.X - start.X
	dy := end.Y - start.Y
	pathLength := math.Hypot(dx, dy)

	if pathLength < zeroPath {
		current := math.Hypot(target.X-start.X, target.Y-start.Y)
		return 0, current <= radius
	}

	dirX := dx / pathLength
	dirY := dy / pathLength
	projection := (target.X-start.X)*dirX + (target.Y-start.Y)*dirY

	closest := start
	switch {
	case projection >= pathLength:
		closest = end
	case projection > 0:
		closest = geom.Position{X: start.X + dirX*projection, Y: start.Y + dirY*projection}
	}
	distanceToPath := math.Hypot(target.X-closest.X, target.Y-closest.Y)
	if distanceToPath > radius {
		return 0, false
	}

	distanceToCollision := projection - math.Sqrt(radius*radius-distanceToPath*distanceToPath)
	if distanceToCollision < 0 || distanceToCollision > pathLength {
		return 0, false
	}
	return distanceToCollision / pathLength, true
}

// Resolve lists every loot item and office the path touches, sorted by
// ascending entry time. Loot events are gathered in map-loot order and
// offices after them, and the sort is stable, so ties keep that order.
func Resolve(start, end geom.Position, m *world.Map) []Event {
	var events []Event
	for _, item := range m.Loot() {
		if t, hit := Time(start, end, item.Pos, ItemRadius); hit {
			events = append(events, Event{Kind: ItemPickup, Item: item.ID, T: t})
		}
	}
	for _, office := range m.Offices() {
		if t, hit := Time(start, end, office.Position.Position(), OfficeRadius); hit {
			events = append(events, Event{Kind: OfficeReturn, Office: office.ID, T: t})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].T < events[j].T
	})
	return events
}
