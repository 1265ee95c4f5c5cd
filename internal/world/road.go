package world

import (
	"math"

	"lost-and-found/server/internal/geom"
)

// RoadHalfWidth is the distance from a road's center line to the edge of
// its drivable strip.
const RoadHalfWidth = 0.4

// Road is one axis-aligned segment of a map's road network.
type Road struct {
	start geom.Point
	end   geom.Point
}

// NewHorizontalRoad builds a road running along the X axis.
func NewHorizontalRoad(start geom.Point, endX int) Road {
	return Road{start: start, end: geom.Point{X: endX, Y: start.Y}}
}

// NewVerticalRoad builds a road running along the Y axis.
func NewVerticalRoad(start geom.Point, endY int) Road {
	return Road{start: start, end: geom.Point{X: start.X, Y: endY}}
}

func (r Road) Start() geom.Point { return r.start }
func (r Road) End() geom.Point   { return r.end }

func (r Road) IsHorizontal() bool {
	return r.start.Y == r.end.Y
}

// Length is the center-line length of the road.
func (r Road) Length() float64 {
	return math.Abs(float64(r.end.X-r.start.X)) + math.Abs(float64(r.end.Y-r.start.Y))
}

// PointAt returns the center-line point at the given fraction of the
// road, 0 at the start and 1 at the end.
func (r Road) PointAt(frac float64) geom.Position {
	frac = geom.Clamp(frac, 0, 1)
	a := r.start.Position()
	b := r.end.Position()
	return geom.Position{X: a.X + (b.X-a.X)*frac, Y: a.Y + (b.Y-a.Y)*frac}
}

// Strip widens the road into its drivable rectangle.
func (r Road) Strip() Strip {
	return Strip{
		MinX: math.Min(float64(r.start.X), float64(r.end.X)) - RoadHalfWidth,
		MaxX: math.Max(float64(r.start.X), float64(r.end.X)) + RoadHalfWidth,
		MinY: math.Min(float64(r.start.Y), float64(r.end.Y)) - RoadHalfWidth,
		MaxY: math.Max(float64(r.start.Y), float64(r.end.Y)) + RoadHalfWidth,
	}
}

// Strip is the rectangle a dog may occupy around one road. Boundary
// points count as inside.
type Strip struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (s Strip) Contains(p geom.Position) bool {
	return p.X >= s.MinX && p.X <= s.MaxX && p.Y >= s.MinY && p.Y <= s.MaxY
}

// Clamp projects a point onto the nearest point of the strip.
func (s Strip) Clamp(p geom.Position) geom.Position {
	return geom.Position{
		X: geom.Clamp(p.X, s.MinX, s.MaxX),
		Y: geom.Clamp(p.Y, s.MinY, s.MaxY),
	}
}
