package collision

import (
	"math"
	"testing"

	"lost-and-found/server/internal/geom"
	"lost-and-found/server/internal/world"
)

func resolveMap(t *testing.T) *world.Map {
	t.Helper()
	m, err := world.NewMap("m", "M", 2, 3,
		[]world.Road{world.NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10)},
		nil,
		[]world.Office{{ID: "o0", Position: geom.Point{X: 4, Y: 0}}},
		nil)
	if err != nil {
		t.Fatalf("build map: %v", err)
	}
	return m
}

func TestTimeEntersCircleAlongPath(t *testing.T) {
	start := geom.Position{X: 0, Y: 0}
	end := geom.Position{X: 5, Y: 0}
	target := geom.Position{X: 2, Y: 0.1}

	got, hit := Time(start, end, target, ItemRadius)
	if !hit {
		t.Fatalf("expected a collision")
	}
	want := (2 - math.Sqrt(ItemRadius*ItemRadius-0.01)) / 5
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected t=%v, got %v", want, got)
	}
}

func TestTimeRejectsTargetsOffThePath(t *testing.T) {
	start := geom.Position{X: 0, Y: 0}
	end := geom.Position{X: 5, Y: 0}

	cases := []struct {
		name   string
		target geom.Position
	}{
		{"too far sideways", geom.Position{X: 2, Y: 0.5}},
		{"behind the start", geom.Position{X: -1, Y: 0}},
		{"past the reach of the end", geom.Position{X: 5.5, Y: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, hit := Time(start, end, tc.target, ItemRadius); hit {
				t.Fatalf("expected no collision for target %+v", tc.target)
			}
		})
	}
}

func TestTimeTouchesCircleJustBeyondPathEnd(t *testing.T) {
	start := geom.Position{X: 0, Y: 0}
	end := geom.Position{X: 5, Y: 0}
	target := geom.Position{X: 5.2, Y: 0}

	got, hit := Time(start, end, target, ItemRadius)
	if !hit {
		t.Fatalf("expected the path to enter the circle before its end")
	}
	if got <= 0.9 || got > 1 {
		t.Fatalf("expected entry close to the path end, got t=%v", got)
	}
}

func TestTimeStationaryPathCollidesOnlyWithinRadius(t *testing.T) {
	at := geom.Position{X: 3, Y: 0}

	got, hit := Time(at, at, geom.Position{X: 3.2, Y: 0}, ItemRadius)
	if !hit || got != 0 {
		t.Fatalf("expected immediate collision for a target within reach, got t=%v hit=%v", got, hit)
	}
	if _, hit := Time(at, at, geom.Position{X: 3.4, Y: 0}, ItemRadius); hit {
		t.Fatalf("expected no collision for a target out of reach")
	}
}

func TestResolveOrdersEventsByEntryTime(t *testing.T) {
	m := resolveMap(t)
	m.AddLoot(world.Item{ID: 7, Type: 1, Value: 10, Pos: geom.Position{X: 2, Y: 0.1}})

	events := Resolve(geom.Position{X: 0, Y: 0}, geom.Position{X: 5, Y: 0}, m)
	if len(events) != 2 {
		t.Fatalf("expected pickup and office return, got %d events", len(events))
	}
	if events[0].Kind != ItemPickup || events[0].Item != 7 {
		t.Fatalf("expected the pickup first, got %+v", events[0])
	}
	if events[1].Kind != OfficeReturn || events[1].Office != "o0" {
		t.Fatalf("expected the office return second, got %+v", events[1])
	}
	if events[0].T >= events[1].T {
		t.Fatalf("events out of order: %v then %v", events[0].T, events[1].T)
	}
}

func TestResolveKeepsGatherOrderOnTies(t *testing.T) {
	m := resolveMap(t)
	m.AddLoot(world.Item{ID: 1, Type: 1, Value: 10, Pos: geom.Position{X: 2, Y: 0}})
	m.AddLoot(world.Item{ID: 2, Type: 1, Value: 10, Pos: geom.Position{X: 2, Y: 0}})

	events := Resolve(geom.Position{X: 0, Y: 0}, geom.Position{X: 5, Y: 0}, m)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Item != 1 || events[1].Item != 2 {
		t.Fatalf("tied events must keep map-loot order, got %v then %v", events[0].Item, events[1].Item)
	}
}

func TestResolveSkipsUntouchedTargets(t *testing.T) {
	m := resolveMap(t)
	m.AddLoot(world.Item{ID: 9, Type: 1, Value: 10, Pos: geom.Position{X: 9, Y: 0}})

	events := Resolve(geom.Position{X: 0, Y: 0}, geom.Position{X: 1, Y: 0}, m)
	if len(events) != 0 {
		t.Fatalf("expected no events for a short move, got %+v", events)
	}
}
