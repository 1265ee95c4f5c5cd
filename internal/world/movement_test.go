package world

import (
	"errors"
	"math"
	"testing"

	"lost-and-found/server/internal/geom"
)

func testMap(t *testing.T, roads ...Road) *Map {
	t.Helper()
	m, err := NewMap("test-map", "Test Map", 2, 3, roads, nil, nil, nil)
	if err != nil {
		t.Fatalf("build map: %v", err)
	}
	return m
}

func positionsClose(a, b geom.Position) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestConstrainStopsAtStripEdge(t *testing.T) {
	m := testMap(t, NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))

	end, clipped, err := m.Constrain(geom.Position{X: 5, Y: 0}, geom.Velocity{X: 2}, 3)
	if err != nil {
		t.Fatalf("constrain: %v", err)
	}
	if !clipped {
		t.Fatalf("expected the move past the road end to be clipped")
	}
	if want := (geom.Position{X: 10.4, Y: 0}); !positionsClose(end, want) {
		t.Fatalf("expected end %+v, got %+v", want, end)
	}
}

func TestConstrainFollowsCrossRoadPastJunction(t *testing.T) {
	m := testMap(t,
		NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10),
		NewVerticalRoad(geom.Point{X: 5, Y: -5}, 5),
	)

	end, clipped, err := m.Constrain(geom.Position{X: 5, Y: 0}, geom.Velocity{Y: -3}, 2)
	if err != nil {
		t.Fatalf("constrain: %v", err)
	}
	if !clipped {
		t.Fatalf("expected the move past the vertical road end to be clipped")
	}
	if want := (geom.Position{X: 5, Y: -5.4}); !positionsClose(end, want) {
		t.Fatalf("expected end %+v, got %+v", want, end)
	}
}

func TestConstrainPicksFarthestContainingStrip(t *testing.T) {
	m := testMap(t,
		NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10),
		NewVerticalRoad(geom.Point{X: 5, Y: -5}, 5),
	)

	end, clipped, err := m.Constrain(geom.Position{X: 5, Y: 0}, geom.Velocity{Y: -3}, 1)
	if err != nil {
		t.Fatalf("constrain: %v", err)
	}
	if clipped {
		t.Fatalf("move inside the vertical strip must not be clipped")
	}
	if want := (geom.Position{X: 5, Y: -3}); !positionsClose(end, want) {
		t.Fatalf("expected end %+v, got %+v", want, end)
	}
}

func TestConstrainZeroVelocityIsNoOp(t *testing.T) {
	m := testMap(t, NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))
	start := geom.Position{X: 3, Y: 0.2}

	end, clipped, err := m.Constrain(start, geom.Velocity{}, 5)
	if err != nil {
		t.Fatalf("constrain: %v", err)
	}
	if clipped {
		t.Fatalf("stationary dog must not report a clipped move")
	}
	if end != start {
		t.Fatalf("stationary dog moved from %+v to %+v", start, end)
	}
}

func TestConstrainOnBoundaryCountsAsOnRoad(t *testing.T) {
	m := testMap(t, NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))
	corner := geom.Position{X: 10.4, Y: 0.4}

	end, clipped, err := m.Constrain(corner, geom.Velocity{X: 1}, 1)
	if err != nil {
		t.Fatalf("constrain from strip corner: %v", err)
	}
	if !clipped {
		t.Fatalf("expected a move off the corner to be clipped")
	}
	if !positionsClose(end, corner) {
		t.Fatalf("expected the dog to stay at %+v, got %+v", corner, end)
	}
}

func TestConstrainRejectsOffRoadStart(t *testing.T) {
	m := testMap(t, NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))

	_, _, err := m.Constrain(geom.Position{X: 5, Y: 3}, geom.Velocity{X: 1}, 1)
	if err == nil {
		t.Fatalf("expected an error for an off-road start")
	}
	if !errors.Is(err, ErrOffRoad) {
		t.Fatalf("expected ErrOffRoad, got %v", err)
	}
}

func TestOnRoadMatchesStripContainment(t *testing.T) {
	m := testMap(t, NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))

	cases := []struct {
		pos  geom.Position
		want bool
	}{
		{geom.Position{X: 5, Y: 0}, true},
		{geom.Position{X: -0.4, Y: 0.4}, true},
		{geom.Position{X: 10.4, Y: -0.4}, true},
		{geom.Position{X: 10.41, Y: 0}, false},
		{geom.Position{X: 5, Y: 0.5}, false},
	}
	for _, tc := range cases {
		if got := m.OnRoad(tc.pos); got != tc.want {
			t.Fatalf("OnRoad(%+v) = %v, want %v", tc.pos, got, tc.want)
		}
	}
}
