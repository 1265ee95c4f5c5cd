package economy

import (
	"context"

	"lost-and-found/server/logging"
)

const (
	// EventLootSpawned is emitted when the generator refills a map.
	EventLootSpawned logging.EventType = "economy.loot_spawned"
	// EventLootPickedUp is emitted whenever a dog bags a loot item.
	EventLootPickedUp logging.EventType = "economy.loot_picked_up"
	// EventLootPickupSkipped is emitted when a full bag forces a pickup to be skipped.
	EventLootPickupSkipped logging.EventType = "economy.loot_pickup_skipped"
	// EventLootDeposited is emitted when a dog turns its bag in at an office.
	EventLootDeposited logging.EventType = "economy.loot_deposited"
)

// LootSpawnedPayload describes one refill batch.
type LootSpawnedPayload struct {
	Count   int      `json:"count"`
	ItemIDs []uint64 `json:"itemIds,omitempty"`
}

// LootPickedUpPayload describes a successful pickup.
type LootPickedUpPayload struct {
	ItemID   uint64  `json:"itemId"`
	ItemType int     `json:"itemType"`
	Value    float64 `json:"value"`
	BagSize  int     `json:"bagSize"`
}

// LootPickupSkippedPayload describes why an item stayed on the ground.
type LootPickupSkippedPayload struct {
	ItemID uint64 `json:"itemId"`
	Reason string `json:"reason"`
}

// LootDepositedPayload describes a bag turned in at an office.
type LootDepositedPayload struct {
	OfficeID string `json:"officeId"`
	Items    int    `json:"items"`
	Gained   int    `json:"gained"`
	Score    int    `json:"score"`
}

// LootSpawned publishes a refill event for a map.
func LootSpawned(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, payload LootSpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLootSpawned,
		Tick:     tick,
		Map:      mapID,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityInfo,
		Category: "economy",
		Payload:  payload,
	})
}

// LootPickedUp publishes a pickup event.
func LootPickedUp(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload LootPickedUpPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLootPickedUp,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: "economy",
		Payload:  payload,
	})
}

// LootPickupSkipped publishes an event for a pickup blocked by a full bag.
func LootPickupSkipped(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload LootPickupSkippedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLootPickupSkipped,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: "economy",
		Payload:  payload,
	})
}

// LootDeposited publishes an office deposit event.
func LootDeposited(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload LootDepositedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLootDeposited,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Targets:  []logging.EntityRef{logging.OfficeRef(payload.OfficeID)},
		Severity: logging.SeverityInfo,
		Category: "economy",
		Payload:  payload,
	})
}
