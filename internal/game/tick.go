package game

import (
	"context"
	"fmt"
	"math"
	"time"

	"lost-and-found/server/internal/collision"
	"lost-and-found/server/internal/geom"
	"lost-and-found/server/internal/session"
	"lost-and-found/server/internal/world"
	"lost-and-found/server/logging"
	"lost-and-found/server/logging/economy"
	"lost-and-found/server/logging/lifecycle"
	"lost-and-found/server/logging/simulation"
)

// Tick advances the simulation by delta. Dogs move in join order, each
// resolving its pickups and deposits along the travelled path, then empty
// maps are restocked and idle players retired. A dog whose move fails is
// left in place and the rest of the tick still runs; the first such error
// is returned.
func (g *Game) Tick(delta time.Duration) error {
	if delta <= 0 {
		return fmt.Errorf("tick delta must be positive, got %v", delta)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	tick := g.tick.Add(1)
	now := g.clock()
	dt := delta.Seconds()
	ctx := context.Background()

	var firstErr error
	for _, p := range g.sessions.All() {
		if err := g.moveDog(ctx, tick, p, dt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	g.refillLoot(ctx, tick)
	g.sweepRetirements(ctx, tick, now)
	return firstErr
}

// moveDog advances one dog and applies the collisions along its path. A
// stationary dog still collides with whatever already overlaps it.
func (g *Game) moveDog(ctx context.Context, tick uint64, p *session.Player, dt float64) error {
	dog := p.Dog
	start := dog.Pos
	end, clipped, err := p.Map.Constrain(start, dog.Velocity, dt)
	if err != nil {
		simulation.TickFailed(ctx, g.pub, tick, string(p.Map.ID()), logging.DogRef(uint64(dog.ID)), simulation.TickFailedPayload{Reason: err.Error()})
		return err
	}
	dog.Pos = end
	if clipped {
		dog.Velocity = geom.Velocity{}
	}
	for _, evt := range collision.Resolve(start, end, p.Map) {
		switch evt.Kind {
		case collision.ItemPickup:
			g.pickUp(ctx, tick, p, evt.Item)
		case collision.OfficeReturn:
			g.deposit(ctx, tick, p, evt.Office)
		}
	}
	return nil
}

// pickUp moves a loot item into the dog's bag. A full bag leaves the item on
// the map; an item another dog already grabbed this tick is ignored.
func (g *Game) pickUp(ctx context.Context, tick uint64, p *session.Player, id world.ItemID) {
	dog := p.Dog
	if dog.BagFull() {
		economy.LootPickupSkipped(ctx, g.pub, tick, string(p.Map.ID()), logging.DogRef(uint64(dog.ID)), economy.LootPickupSkippedPayload{
			ItemID: uint64(id),
			Reason: "bag full",
		})
		return
	}
	item, ok := p.Map.TakeLoot(id)
	if !ok {
		return
	}
	dog.Bag = append(dog.Bag, session.BagItem{ID: item.ID, Type: item.Type, Value: item.Value})
	economy.LootPickedUp(ctx, g.pub, tick, string(p.Map.ID()), logging.DogRef(uint64(dog.ID)), economy.LootPickedUpPayload{
		ItemID:   uint64(item.ID),
		ItemType: item.Type,
		Value:    item.Value,
		BagSize:  len(dog.Bag),
	})
}

// deposit empties the dog's bag at an office and credits the value of every
// carried item to the player's score.
func (g *Game) deposit(ctx context.Context, tick uint64, p *session.Player, officeID world.OfficeID) {
	dog := p.Dog
	if len(dog.Bag) == 0 {
		return
	}
	gained := 0
	for _, item := range dog.Bag {
		gained += int(math.Round(item.Value))
	}
	dog.Score += gained
	items := len(dog.Bag)
	dog.Bag = dog.Bag[:0]
	economy.LootDeposited(ctx, g.pub, tick, string(p.Map.ID()), logging.DogRef(uint64(dog.ID)), economy.LootDepositedPayload{
		OfficeID: string(officeID),
		Items:    items,
		Gained:   gained,
		Score:    dog.Score,
	})
}

func (g *Game) refillLoot(ctx context.Context, tick uint64) {
	if g.loot == nil {
		return
	}
	for _, m := range g.world.Maps() {
		spawned := g.loot.Refill(m)
		if len(spawned) == 0 {
			continue
		}
		ids := make([]uint64, 0, len(spawned))
		for _, item := range spawned {
			ids = append(ids, uint64(item.ID))
		}
		economy.LootSpawned(ctx, g.pub, tick, string(m.ID()), economy.LootSpawnedPayload{
			Count:   len(spawned),
			ItemIDs: ids,
		})
	}
}

// sweepRetirements starts the idle clock for dogs that stopped this tick and
// retires players whose dogs have been idle for the configured time.
func (g *Game) sweepRetirements(ctx context.Context, tick uint64, now time.Time) {
	retireAfter := g.world.RetireAfter()
	for _, p := range g.sessions.All() {
		if !p.Dog.Velocity.IsZero() {
			p.IdleSince = time.Time{}
			continue
		}
		if p.IdleSince.IsZero() {
			p.IdleSince = now
			continue
		}
		if now.Sub(p.IdleSince) >= retireAfter {
			g.retireLocked(ctx, tick, p, now)
		}
	}
}

// retireLocked emits the player's final record and removes them from every
// index. The token stops working immediately.
func (g *Game) retireLocked(ctx context.Context, tick uint64, p *session.Player, now time.Time) {
	if p.Retired {
		return
	}
	p.Retired = true
	playTime := now.Sub(p.Joined).Seconds()
	idle := now.Sub(p.IdleSince).Seconds()
	if g.retire != nil {
		g.retire(p.Dog.Name, p.Dog.Score, playTime)
	}
	lifecycle.PlayerRetired(ctx, g.pub, tick, string(p.Map.ID()), logging.PlayerRef(uint64(p.ID)), lifecycle.PlayerRetiredPayload{
		Name:            p.Dog.Name,
		Score:           p.Dog.Score,
		PlayTimeSeconds: playTime,
		IdleSeconds:     idle,
	})
	g.sessions.Remove(p.ID)
}
