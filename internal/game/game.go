// Package game owns the authoritative simulation. A single Game guards the
// world, the player registry and the tick pipeline behind one lock; the HTTP
// and websocket layers only ever talk to this facade.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"lost-and-found/server/internal/geom"
	"lost-and-found/server/internal/session"
	"lost-and-found/server/internal/world"
	"lost-and-found/server/logging"
	"lost-and-found/server/logging/lifecycle"
)

var (
	// ErrEmptyName rejects joins without a player name.
	ErrEmptyName = errors.New("player name must not be empty")
	// ErrUnknownToken rejects requests whose token matches no active player.
	ErrUnknownToken = errors.New("unknown token")
	// ErrInvalidMove rejects movement commands outside L, R, U, D and "".
	ErrInvalidMove = errors.New("invalid move")
)

// LootGenerator restocks a map's loot between movement and retirement.
type LootGenerator interface {
	Refill(m *world.Map) []world.Item
}

// Deps are the collaborators a Game needs. Zero values select defaults:
// the wall clock, no publisher, a deterministic spawn RNG. A nil Loot
// disables loot generation entirely.
type Deps struct {
	Clock     func() time.Time
	Publisher logging.Publisher
	Loot      LootGenerator
	RNG       *rand.Rand
}

// Options toggle optional behaviour.
type Options struct {
	// RandomizeSpawn places joining dogs at a random road point instead of
	// the first road's start.
	RandomizeSpawn bool
}

// RetirementFunc receives the final record of a retired player.
type RetirementFunc func(name string, score int, playTime float64)

// Game is the authoritative state of every map and player.
type Game struct {
	mu          sync.RWMutex
	world       *world.World
	sessions    *session.Registry
	loot        LootGenerator
	clock       func() time.Time
	pub         logging.Publisher
	rng         *rand.Rand
	randomSpawn bool
	retire      RetirementFunc

	tick atomic.Uint64
}

// New assembles a Game over w.
func New(w *world.World, deps Deps, opts Options) *Game {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	rng := deps.RNG
	if rng == nil {
		rng = world.NewDeterministicRNG(world.DefaultSeed, "spawn")
	}
	return &Game{
		world:       w,
		sessions:    session.NewRegistry(nil),
		loot:        deps.Loot,
		clock:       clock,
		pub:         deps.Publisher,
		rng:         rng,
		randomSpawn: opts.RandomizeSpawn,
	}
}

// World exposes the static map catalog.
func (g *Game) World() *world.World {
	return g.world
}

// SetRetirementCallback wires the sink that receives retirement records.
func (g *Game) SetRetirementCallback(fn RetirementFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retire = fn
}

// JoinResult carries the credentials a new player needs for every later call.
type JoinResult struct {
	Token    session.Token
	PlayerID session.PlayerID
}

// Join adds a player to the map, spawns their dog and returns the session
// token. The dog starts stationary facing north.
func (g *Game) Join(name string, mapID world.MapID) (JoinResult, error) {
	if name == "" {
		return JoinResult{}, ErrEmptyName
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	m := g.world.FindMap(mapID)
	if m == nil {
		return JoinResult{}, fmt.Errorf("%w: %s", world.ErrUnknownMap, mapID)
	}
	spawn := m.DefaultSpawn()
	if g.randomSpawn {
		spawn = m.RandomSpawn(g.rng)
	}
	p, err := g.sessions.Add(name, m, spawn, g.clock())
	if err != nil {
		return JoinResult{}, err
	}
	lifecycle.PlayerJoined(context.Background(), g.pub, g.tick.Load(), string(m.ID()), logging.PlayerRef(uint64(p.ID)), lifecycle.PlayerJoinedPayload{
		Name:   name,
		SpawnX: spawn.X,
		SpawnY: spawn.Y,
	})
	return JoinResult{Token: p.Token, PlayerID: p.ID}, nil
}

// PlayerInfo identifies one player on a map.
type PlayerInfo struct {
	ID   session.PlayerID
	Name string
}

// Players lists the players sharing a map with the token's owner, in join
// order.
func (g *Game) Players(token session.Token) ([]PlayerInfo, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p := g.sessions.ByToken(token)
	if p == nil {
		return nil, ErrUnknownToken
	}
	peers := g.sessions.SameMap(p.Map)
	out := make([]PlayerInfo, 0, len(peers))
	for _, peer := range peers {
		out = append(out, PlayerInfo{ID: peer.ID, Name: peer.Dog.Name})
	}
	return out, nil
}

// DogState is a read-only copy of one dog for state snapshots.
type DogState struct {
	PlayerID  session.PlayerID
	Name      string
	Pos       geom.Position
	Velocity  geom.Velocity
	Direction geom.Direction
	Bag       []session.BagItem
	Score     int
}

// LootState is a read-only copy of one loose item.
type LootState struct {
	ID   world.ItemID
	Type int
	Pos  geom.Position
}

// StateSnapshot is everything a client needs to render the token owner's map.
type StateSnapshot struct {
	Players []DogState
	Loot    []LootState
}

// State snapshots the dogs and loot on the token owner's map.
func (g *Game) State(token session.Token) (StateSnapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p := g.sessions.ByToken(token)
	if p == nil {
		return StateSnapshot{}, ErrUnknownToken
	}
	peers := g.sessions.SameMap(p.Map)
	snap := StateSnapshot{Players: make([]DogState, 0, len(peers))}
	for _, peer := range peers {
		bag := make([]session.BagItem, len(peer.Dog.Bag))
		copy(bag, peer.Dog.Bag)
		snap.Players = append(snap.Players, DogState{
			PlayerID:  peer.ID,
			Name:      peer.Dog.Name,
			Pos:       peer.Dog.Pos,
			Velocity:  peer.Dog.Velocity,
			Direction: peer.Dog.Direction,
			Bag:       bag,
			Score:     peer.Dog.Score,
		})
	}
	items := p.Map.Loot()
	snap.Loot = make([]LootState, 0, len(items))
	for _, item := range items {
		snap.Loot = append(snap.Loot, LootState{ID: item.ID, Type: item.Type, Pos: item.Pos})
	}
	return snap, nil
}

// SetAction steers the token owner's dog. Valid moves are the four direction
// letters and "", which stops the dog.
func (g *Game) SetAction(token session.Token, move string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.sessions.ByToken(token)
	if p == nil {
		return ErrUnknownToken
	}
	if !p.SetAction(move, g.clock()) {
		lifecycle.ActionRejected(context.Background(), g.pub, g.tick.Load(), string(p.Map.ID()), logging.PlayerRef(uint64(p.ID)), lifecycle.ActionRejectedPayload{Move: move})
		return fmt.Errorf("%w: %q", ErrInvalidMove, move)
	}
	return nil
}

// Diagnostics summarizes the live simulation for the diagnostics endpoint.
type Diagnostics struct {
	Tick    uint64 `json:"tick"`
	Players int    `json:"players"`
	Maps    int    `json:"maps"`
	Loot    int    `json:"loot"`
}

// Diagnostics reports tick, player and loot counts.
func (g *Game) Diagnostics() Diagnostics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	loot := 0
	for _, m := range g.world.Maps() {
		loot += m.LootCount()
	}
	return Diagnostics{
		Tick:    g.tick.Load(),
		Players: g.sessions.Len(),
		Maps:    len(g.world.Maps()),
		Loot:    loot,
	}
}
