package simulation

import (
	"context"

	"lost-and-found/server/logging"
)

const (
	// EventTickFailed is emitted when advancing the world returns an error.
	EventTickFailed logging.EventType = "simulation.tick_failed"
	// EventTickBudgetOverrun is emitted when a tick takes longer than the configured period.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
)

// TickFailedPayload captures the error raised during a tick.
type TickFailedPayload struct {
	Reason string `json:"reason"`
}

// TickBudgetOverrunPayload captures timing details for a slow tick.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
}

// TickFailed publishes an error event for a failed tick.
func TickFailed(ctx context.Context, pub logging.Publisher, tick uint64, mapID string, actor logging.EntityRef, payload TickFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickFailed,
		Tick:     tick,
		Map:      mapID,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: "simulation",
		Payload:  payload,
	})
}

// TickBudgetOverrun publishes a warning when the loop exceeds its period.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "simulation",
		Payload:  payload,
	})
}
