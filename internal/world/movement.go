package world

import (
	"errors"
	"fmt"
	"math"

	"lost-and-found/server/internal/geom"
)

// ErrOffRoad reports a dog positioned outside every road strip. Dogs
// spawn on roads and clipped moves end on roads, so hitting this means
// state has been corrupted somewhere.
var ErrOffRoad = errors.New("position outside the road network")

// Constrain advances a dog from start for dt seconds and clips the
// result to the road network. Every strip containing the start point
// clamps the unconstrained target; the end point is the clamped
// candidate that travels farthest along the velocity. The boolean
// reports whether the move was cut short, in which case the caller
// zeroes the dog's velocity.
func (m *Map) Constrain(start geom.Position, vel geom.Velocity, dt float64) (geom.Position, bool, error) {
	if vel.IsZero() || dt <= 0 {
		return start, false, nil
	}
	target := start.Advance(vel, dt)
	length := math.Hypot(vel.X, vel.Y)
	ux := vel.X / length
	uy := vel.Y / length

	best := start
	bestGain := math.Inf(-1)
	found := false
	for _, strip := range m.strips {
		if !strip.Contains(start) {
			continue
		}
		found = true
		candidate := strip.Clamp(target)
		gain := (candidate.X-start.X)*ux + (candidate.Y-start.Y)*uy
		if gain > bestGain {
			best = candidate
			bestGain = gain
		}
	}
	if !found {
		return geom.Position{}, false, fmt.Errorf("%w: map %s, dog at (%.3f, %.3f)", ErrOffRoad, m.id, start.X, start.Y)
	}
	return best, best != target, nil
}

// OnRoad reports whether a point lies inside any road strip.
func (m *Map) OnRoad(p geom.Position) bool {
	for _, strip := range m.strips {
		if strip.Contains(p) {
			return true
		}
	}
	return false
}
