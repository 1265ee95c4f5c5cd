package records

import (
	"context"

	"lost-and-found/server/logging"
)

const (
	// EventAppendFailed is emitted when a retired-player record cannot be written.
	EventAppendFailed logging.EventType = "records.append_failed"
	// EventRetryFlushed is emitted when queued records finally reach the store.
	EventRetryFlushed logging.EventType = "records.retry_flushed"
)

// AppendFailedPayload names the record that could not be stored.
type AppendFailedPayload struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Pending int    `json:"pending"`
	Reason  string `json:"reason"`
}

// RetryFlushedPayload reports how many queued records were recovered.
type RetryFlushedPayload struct {
	Flushed int `json:"flushed"`
}

// AppendFailed publishes a warning for a failed record write.
func AppendFailed(ctx context.Context, pub logging.Publisher, payload AppendFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAppendFailed,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityWarn,
		Category: logging.CategoryRecords,
		Payload:  payload,
	})
}

// RetryFlushed publishes an info event once the retry queue drains.
func RetryFlushed(ctx context.Context, pub logging.Publisher, payload RetryFlushedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRetryFlushed,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRecords,
		Payload:  payload,
	})
}
