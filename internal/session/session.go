// Package session tracks the players currently in the game and the
// dogs they steer. All mutations happen under the owning game's lock.
package session

import (
	"fmt"
	"sync/atomic"
	"time"

	"lost-and-found/server/internal/geom"
	"lost-and-found/server/internal/world"
)

type PlayerID uint64

type DogID uint64

// Token authorizes requests for one player. See NewToken for the format.
type Token string

// BagItem is a loot item carried by a dog. The catalog type and value
// survive the pickup so an office can score the deposit.
type BagItem struct {
	ID    world.ItemID
	Type  int
	Value float64
}

// Dog is the avatar a player steers around a map. Speed and bag
// capacity are resolved from the map at join time.
type Dog struct {
	ID          DogID
	Name        string
	Pos         geom.Position
	Speed       float64
	Velocity    geom.Velocity
	Direction   geom.Direction
	Bag         []BagItem
	BagCapacity int
	Score       int
}

// BagFull reports whether the dog cannot carry another item.
func (d *Dog) BagFull() bool {
	return len(d.Bag) >= d.BagCapacity
}

// Player owns one dog on one map.
type Player struct {
	ID    PlayerID
	Token Token
	Dog   *Dog
	Map   *world.Map

	Joined time.Time
	// IdleSince is when the dog last came to a stop; the zero value
	// means the dog is moving or has not stopped yet.
	IdleSince time.Time
	Retired   bool
}

// SetAction applies a movement command to the player's dog. Valid moves
// are the four direction letters and the empty string, which stops the
// dog without changing its facing. Idle bookkeeping starts when the dog
// stops and resets when it moves.
func (p *Player) SetAction(move string, now time.Time) bool {
	speed := p.Dog.Speed
	var velocity geom.Velocity
	var direction geom.Direction
	switch move {
	case "L":
		velocity = geom.Velocity{X: -speed}
		direction = geom.DirectionWest
	case "R":
		velocity = geom.Velocity{X: speed}
		direction = geom.DirectionEast
	case "U":
		velocity = geom.Velocity{Y: -speed}
		direction = geom.DirectionNorth
	case "D":
		velocity = geom.Velocity{Y: speed}
		direction = geom.DirectionSouth
	case "":
		direction = p.Dog.Direction
	default:
		return false
	}
	p.Dog.Velocity = velocity
	p.Dog.Direction = direction

	if p.Retired {
		return true
	}
	if velocity.IsZero() {
		if p.IdleSince.IsZero() {
			p.IdleSince = now
		}
	} else {
		p.IdleSince = time.Time{}
	}
	return true
}

// Registry holds every active player with the lookup indices the game
// needs: by token, by player id, and by dog id. Iteration follows join
// order so ticks process dogs deterministically.
type Registry struct {
	players map[PlayerID]*Player
	byToken map[Token]*Player
	byDog   map[DogID]*Player
	order   []PlayerID
	tokens  TokenFunc
	nextID  atomic.Uint64
	nextDog atomic.Uint64
}

// TokenFunc issues fresh auth tokens. Tests substitute deterministic
// sources.
type TokenFunc func() (Token, error)

func NewRegistry(tokens TokenFunc) *Registry {
	if tokens == nil {
		tokens = NewToken
	}
	return &Registry{
		players: make(map[PlayerID]*Player),
		byToken: make(map[Token]*Player),
		byDog:   make(map[DogID]*Player),
		tokens:  tokens,
	}
}

// Add creates a player and its dog on the given map and wires every
// index. The dog starts stationary, facing north, with an empty bag.
func (r *Registry) Add(name string, m *world.Map, spawn geom.Position, now time.Time) (*Player, error) {
	token, err := r.tokens()
	if err != nil {
		return nil, fmt.Errorf("issue auth token: %w", err)
	}
	dog := &Dog{
		ID:          DogID(r.nextDog.Add(1)),
		Name:        name,
		Pos:         spawn,
		Speed:       m.DogSpeed(),
		Direction:   geom.DefaultDirection,
		Bag:         make([]BagItem, 0, m.BagCapacity()),
		BagCapacity: m.BagCapacity(),
	}
	player := &Player{
		ID:     PlayerID(r.nextID.Add(1)),
		Token:  token,
		Dog:    dog,
		Map:    m,
		Joined: now,
	}
	r.players[player.ID] = player
	r.byToken[token] = player
	r.byDog[dog.ID] = player
	r.order = append(r.order, player.ID)
	return player, nil
}

// ByToken resolves an auth token, nil when unknown.
func (r *Registry) ByToken(token Token) *Player {
	return r.byToken[token]
}

// ByID resolves a player id, nil when unknown.
func (r *Registry) ByID(id PlayerID) *Player {
	return r.players[id]
}

// ByDog resolves a dog id to its player, nil when unknown.
func (r *Registry) ByDog(id DogID) *Player {
	return r.byDog[id]
}

// All lists active players in join order.
func (r *Registry) All() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SameMap lists players on the given map in join order.
func (r *Registry) SameMap(m *world.Map) []*Player {
	var out []*Player
	for _, id := range r.order {
		if p, ok := r.players[id]; ok && p.Map == m {
			out = append(out, p)
		}
	}
	return out
}

// Remove deletes a player from every index. Unknown ids are no-ops.
func (r *Registry) Remove(id PlayerID) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.players, id)
	delete(r.byToken, p.Token)
	delete(r.byDog, p.Dog.ID)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Len() int {
	return len(r.players)
}
