package lifecycle

import (
	"context"

	"lost-and-found/server/logging"
)

const (
	// EventPlayerJoined is emitted when a player joins a map.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerRetired is emitted when an idle player is retired from the game.
	EventPlayerRetired logging.EventType = "lifecycle.player_retired"
	// EventActionRejected is emitted when a movement command cannot be applied.
	EventActionRejected logging.EventType = "lifecycle.action_rejected"
)

// PlayerJoinedPayload captures spawn metadata for a new player.
type PlayerJoinedPayload struct {
	Name   string  `json:"name"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// PlayerRetiredPayload captures the final record of a retired player.
type PlayerRetiredPayload struct {
	Name            string  `json:"name"`
	Score           int     `json:"score"`
	PlayTimeSeconds float64 `json:"playTimeSeconds"`
	IdleSeconds     float64 `json:"idleSeconds"`
}

// ActionRejectedPayload captures the offending movement command.
type ActionRejectedPayload struct {
	Move string `json:"move"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload PlayerJoinedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
	})
}

// PlayerRetired publishes a retirement event.
func PlayerRetired(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload PlayerRetiredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerRetired,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
	})
}

// ActionRejected publishes a warning for an unrecognised movement command.
func ActionRejected(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload ActionRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActionRejected,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: "lifecycle",
		Payload:  payload,
	})
}
