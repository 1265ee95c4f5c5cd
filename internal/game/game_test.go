package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"lost-and-found/server/internal/geom"
	"lost-and-found/server/internal/loot"
	"lost-and-found/server/internal/world"
	"lost-and-found/server/logging"
	"lost-and-found/server/logging/economy"
	"lost-and-found/server/logging/lifecycle"
	"lost-and-found/server/logging/sinks"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func buildMap(t *testing.T, id string, speed float64, capacity int, roads []world.Road, offices []world.Office) *world.Map {
	t.Helper()
	m, err := world.NewMap(world.MapID(id), "Test Town", speed, capacity, roads, nil, offices, nil)
	if err != nil {
		t.Fatalf("build map %s: %v", id, err)
	}
	return m
}

func buildWorld(t *testing.T, retireAfter time.Duration, maps ...*world.Map) *world.World {
	t.Helper()
	w, err := world.NewWorld(maps, retireAfter, world.LootGeneratorConfig{Period: 5, Probability: 0.5})
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	return w
}

func singleRoadMap(t *testing.T, speed float64, capacity int, endX int, offices ...world.Office) *world.Map {
	t.Helper()
	roads := []world.Road{world.NewHorizontalRoad(geom.Point{X: 0, Y: 0}, endX)}
	return buildMap(t, "town", speed, capacity, roads, offices)
}

func mustJoin(t *testing.T, g *Game, name, mapID string) JoinResult {
	t.Helper()
	res, err := g.Join(name, world.MapID(mapID))
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return res
}

func mustTick(t *testing.T, g *Game, delta time.Duration) {
	t.Helper()
	if err := g.Tick(delta); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func TestJoinRejectsBadArguments(t *testing.T) {
	g := New(buildWorld(t, time.Minute, singleRoadMap(t, 1, 3, 10)), Deps{Clock: newClock().Now}, Options{})

	if _, err := g.Join("", "town"); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := g.Join("ivan", "atlantis"); !errors.Is(err, world.ErrUnknownMap) {
		t.Fatalf("expected ErrUnknownMap, got %v", err)
	}
}

func TestJoinSpawnsStationaryDog(t *testing.T) {
	g := New(buildWorld(t, time.Minute, singleRoadMap(t, 1, 3, 10)), Deps{Clock: newClock().Now}, Options{})

	res := mustJoin(t, g, "ivan", "town")
	if res.Token == "" {
		t.Fatalf("expected a token")
	}

	snap, err := g.State(res.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("expected one dog, got %d", len(snap.Players))
	}
	dog := snap.Players[0]
	if dog.Pos != (geom.Position{X: 0, Y: 0}) {
		t.Fatalf("expected spawn at road start, got %+v", dog.Pos)
	}
	if !dog.Velocity.IsZero() || dog.Direction != geom.DirectionNorth {
		t.Fatalf("expected stationary north-facing dog, got %+v", dog)
	}
	if dog.Score != 0 || len(dog.Bag) != 0 {
		t.Fatalf("expected empty bag and zero score, got %+v", dog)
	}
}

func TestPlayersListsOnlySameMap(t *testing.T) {
	town := singleRoadMap(t, 1, 3, 10)
	port := buildMap(t, "port", 2, 3, []world.Road{world.NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 20)}, nil)
	g := New(buildWorld(t, time.Minute, town, port), Deps{Clock: newClock().Now}, Options{})

	first := mustJoin(t, g, "ivan", "town")
	mustJoin(t, g, "masha", "town")
	mustJoin(t, g, "sailor", "port")

	players, err := g.Players(first.Token)
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players on town, got %d", len(players))
	}
	if players[0].Name != "ivan" || players[1].Name != "masha" {
		t.Fatalf("expected join order [ivan masha], got %+v", players)
	}

	if _, err := g.Players("0123456789abcdef0123456789abcdef"); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestSetActionRejectsUnknownMove(t *testing.T) {
	g := New(buildWorld(t, time.Minute, singleRoadMap(t, 1, 3, 10)), Deps{Clock: newClock().Now}, Options{})
	res := mustJoin(t, g, "ivan", "town")

	if err := g.SetAction(res.Token, "X"); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if err := g.SetAction("0123456789abcdef0123456789abcdef", "R"); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
}

func TestTickRejectsNonPositiveDelta(t *testing.T) {
	g := New(buildWorld(t, time.Minute, singleRoadMap(t, 1, 3, 10)), Deps{Clock: newClock().Now}, Options{})
	if err := g.Tick(0); err == nil {
		t.Fatalf("expected error for zero delta")
	}
	if err := g.Tick(-time.Second); err == nil {
		t.Fatalf("expected error for negative delta")
	}
}

func TestTickPicksUpLootAlongPath(t *testing.T) {
	m := singleRoadMap(t, 5, 3, 10)
	m.AddLoot(world.Item{ID: 1, Type: 0, Value: 10, Pos: geom.Position{X: 5, Y: 0}})
	g := New(buildWorld(t, time.Minute, m), Deps{Clock: newClock().Now}, Options{})
	res := mustJoin(t, g, "ivan", "town")

	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	mustTick(t, g, time.Second)

	snap, err := g.State(res.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	dog := snap.Players[0]
	if dog.Pos != (geom.Position{X: 5, Y: 0}) {
		t.Fatalf("expected dog at (5,0), got %+v", dog.Pos)
	}
	if len(dog.Bag) != 1 || dog.Bag[0].ID != 1 {
		t.Fatalf("expected item 1 in bag, got %+v", dog.Bag)
	}
	if len(snap.Loot) != 0 {
		t.Fatalf("expected map loot empty, got %+v", snap.Loot)
	}
}

func TestTickSkipsPickupWhenBagFull(t *testing.T) {
	m := singleRoadMap(t, 5, 1, 10)
	m.AddLoot(world.Item{ID: 1, Type: 0, Value: 10, Pos: geom.Position{X: 3, Y: 0}})
	m.AddLoot(world.Item{ID: 2, Type: 1, Value: 30, Pos: geom.Position{X: 5, Y: 0}})
	g := New(buildWorld(t, time.Minute, m), Deps{Clock: newClock().Now}, Options{})
	res := mustJoin(t, g, "ivan", "town")

	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	mustTick(t, g, time.Second)

	snap, err := g.State(res.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	dog := snap.Players[0]
	if len(dog.Bag) != 1 || dog.Bag[0].ID != 1 {
		t.Fatalf("expected only item 1 in bag, got %+v", dog.Bag)
	}
	if len(snap.Loot) != 1 || snap.Loot[0].ID != 2 {
		t.Fatalf("expected item 2 left on map, got %+v", snap.Loot)
	}
}

func TestTickPickupThenDepositInOneTick(t *testing.T) {
	office := world.Office{ID: "o1", Position: geom.Point{X: 8, Y: 0}}
	m := singleRoadMap(t, 10, 3, 10, office)
	m.AddLoot(world.Item{ID: 7, Type: 0, Value: 10, Pos: geom.Position{X: 2, Y: 0}})
	g := New(buildWorld(t, time.Minute, m), Deps{Clock: newClock().Now}, Options{})
	res := mustJoin(t, g, "ivan", "town")

	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	mustTick(t, g, time.Second)

	snap, err := g.State(res.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	dog := snap.Players[0]
	if dog.Score != 10 {
		t.Fatalf("expected score 10, got %d", dog.Score)
	}
	if len(dog.Bag) != 0 {
		t.Fatalf("expected empty bag after deposit, got %+v", dog.Bag)
	}
	if len(snap.Loot) != 0 {
		t.Fatalf("expected loot removed from map, got %+v", snap.Loot)
	}
}

func TestTickClipsDogAtRoadEdge(t *testing.T) {
	m := singleRoadMap(t, 10, 3, 5)
	g := New(buildWorld(t, time.Minute, m), Deps{Clock: newClock().Now}, Options{})
	res := mustJoin(t, g, "ivan", "town")

	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	mustTick(t, g, time.Second)

	snap, err := g.State(res.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	dog := snap.Players[0]
	if dog.Pos != (geom.Position{X: 5.4, Y: 0}) {
		t.Fatalf("expected dog clipped at road edge (5.4,0), got %+v", dog.Pos)
	}
	if !dog.Velocity.IsZero() {
		t.Fatalf("expected velocity zeroed after clip, got %+v", dog.Velocity)
	}
	if dog.Direction != geom.DirectionEast {
		t.Fatalf("expected facing preserved after clip, got %s", dog.Direction)
	}
}

func TestTickFirstDogWinsContestedLoot(t *testing.T) {
	m := singleRoadMap(t, 5, 3, 10)
	m.AddLoot(world.Item{ID: 1, Type: 0, Value: 10, Pos: geom.Position{X: 3, Y: 0}})
	g := New(buildWorld(t, time.Minute, m), Deps{Clock: newClock().Now}, Options{})
	first := mustJoin(t, g, "ivan", "town")
	second := mustJoin(t, g, "masha", "town")

	if err := g.SetAction(first.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	if err := g.SetAction(second.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	mustTick(t, g, time.Second)

	snap, err := g.State(first.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(snap.Loot) != 0 {
		t.Fatalf("expected item taken, got %+v", snap.Loot)
	}
	if len(snap.Players[0].Bag) != 1 {
		t.Fatalf("expected first joiner to hold the item, got %+v", snap.Players[0].Bag)
	}
	if len(snap.Players[1].Bag) != 0 {
		t.Fatalf("expected second joiner empty-handed, got %+v", snap.Players[1].Bag)
	}
}

func TestTickRefillsEmptyMap(t *testing.T) {
	m := singleRoadMap(t, 1, 3, 40)
	w := buildWorld(t, time.Minute, m)
	g := New(w, Deps{Clock: newClock().Now, Loot: loot.NewGenerator(w.LootConfig())}, Options{})
	res := mustJoin(t, g, "ivan", "town")

	mustTick(t, g, time.Second)

	snap, err := g.State(res.Token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(snap.Loot) != loot.RefillCount {
		t.Fatalf("expected %d items after refill, got %d", loot.RefillCount, len(snap.Loot))
	}
}

func TestIdleDogRetiresAfterThreshold(t *testing.T) {
	clock := newClock()
	g := New(buildWorld(t, 2*time.Second, singleRoadMap(t, 1, 3, 10)), Deps{Clock: clock.Now}, Options{})

	type record struct {
		name     string
		score    int
		playTime float64
	}
	var recorded []record
	g.SetRetirementCallback(func(name string, score int, playTime float64) {
		recorded = append(recorded, record{name, score, playTime})
	})

	res := mustJoin(t, g, "sleepy", "town")
	clock.Advance(500 * time.Millisecond)
	if err := g.SetAction(res.Token, ""); err != nil {
		t.Fatalf("set action: %v", err)
	}

	clock.Advance(time.Second)
	mustTick(t, g, time.Second)
	if len(recorded) != 0 {
		t.Fatalf("retired too early: %+v", recorded)
	}

	clock.Advance(time.Second)
	mustTick(t, g, time.Second)
	if len(recorded) != 1 {
		t.Fatalf("expected one retirement record, got %+v", recorded)
	}
	if recorded[0].name != "sleepy" || recorded[0].score != 0 {
		t.Fatalf("unexpected record %+v", recorded[0])
	}
	if recorded[0].playTime != 2.5 {
		t.Fatalf("expected play time 2.5s, got %v", recorded[0].playTime)
	}

	if _, err := g.State(res.Token); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected token to stop working, got %v", err)
	}
	if diag := g.Diagnostics(); diag.Players != 0 {
		t.Fatalf("expected no players left, got %d", diag.Players)
	}
}

func TestMovingDogIsNotRetired(t *testing.T) {
	clock := newClock()
	g := New(buildWorld(t, 2*time.Second, singleRoadMap(t, 0.1, 3, 10)), Deps{Clock: clock.Now}, Options{})
	res := mustJoin(t, g, "runner", "town")

	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		mustTick(t, g, time.Second)
	}

	if _, err := g.State(res.Token); err != nil {
		t.Fatalf("expected player still active, got %v", err)
	}
}

func TestEventsReachConfiguredSinks(t *testing.T) {
	clock := newClock()
	m := singleRoadMap(t, 5, 3, 10)
	m.AddLoot(world.Item{ID: 7, Type: 0, Value: 10, Pos: geom.Position{X: 5, Y: 0}})

	mem := sinks.NewMemorySink()
	logCfg := logging.DefaultConfig()
	logCfg.MinimumSeverity = logging.SeverityDebug
	router, err := logging.NewRouter(nil, logCfg, []logging.NamedSink{{Name: "memory", Sink: mem}})
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	g := New(buildWorld(t, time.Minute, m), Deps{Clock: clock.Now, Publisher: router}, Options{})

	res := mustJoin(t, g, "ivan", "town")
	if err := g.SetAction(res.Token, "R"); err != nil {
		t.Fatalf("set action: %v", err)
	}
	clock.Advance(time.Second)
	mustTick(t, g, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close router: %v", err)
	}

	joined := mem.ByType(lifecycle.EventPlayerJoined)
	if len(joined) != 1 {
		t.Fatalf("expected one join event, got %d", len(joined))
	}
	if joined[0].Map != "town" || joined[0].Time.IsZero() {
		t.Fatalf("expected a stamped town event, got %+v", joined[0])
	}
	payload, ok := joined[0].Payload.(lifecycle.PlayerJoinedPayload)
	if !ok {
		t.Fatalf("unexpected join payload %T", joined[0].Payload)
	}
	if payload.Name != "ivan" {
		t.Fatalf("expected join for ivan, got %+v", payload)
	}

	if picked := mem.ByType(economy.EventLootPickedUp); len(picked) != 1 {
		t.Fatalf("expected one pickup event, got %d", len(picked))
	}
}
