package geom

// Point is an integer lattice coordinate used by the static map layout.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Position converts the lattice coordinate into a continuous one.
func (p Point) Position() Position {
	return Position{X: float64(p.X), Y: float64(p.Y)}
}

// Size is the extent of a rectangular layout element.
type Size struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Rectangle is an axis-aligned layout rectangle anchored at its
// top-left corner.
type Rectangle struct {
	Position Point
	Size     Size
}

// Offset shifts a point, used for office door placement.
type Offset struct {
	Dx int `json:"offsetX"`
	Dy int `json:"offsetY"`
}

// Position is a continuous world coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Velocity is a per-second displacement. Dogs only ever move along one
// axis at a time.
type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsZero reports whether the velocity has no component on either axis.
func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Advance returns the point reached after moving for dt seconds.
func (p Position) Advance(v Velocity, dt float64) Position {
	return Position{X: p.X + v.X*dt, Y: p.Y + v.Y*dt}
}

// Direction is the cardinal facing of a dog, serialized with the same
// single letters clients use for movement commands.
type Direction string

const (
	DirectionNorth Direction = "U"
	DirectionSouth Direction = "D"
	DirectionWest  Direction = "L"
	DirectionEast  Direction = "R"

	DefaultDirection Direction = DirectionNorth
)

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionNorth, DirectionSouth, DirectionWest, DirectionEast:
		return true
	}
	return false
}

// Velocity maps the direction onto an axis velocity of the given speed.
// North points toward negative Y.
func (d Direction) Velocity(speed float64) Velocity {
	switch d {
	case DirectionWest:
		return Velocity{X: -speed}
	case DirectionEast:
		return Velocity{X: speed}
	case DirectionNorth:
		return Velocity{Y: -speed}
	case DirectionSouth:
		return Velocity{Y: speed}
	}
	return Velocity{}
}

// Clamp limits value to the range [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
