// Package records persists the final score of every retired player and
// serves the leaderboard queries built on top of those rows.
package records

import (
	"context"
	"math"
)

// RetiredPlayer is one leaderboard entry. PlayTime is the session length in
// seconds; stores keep it as whole milliseconds.
type RetiredPlayer struct {
	Name     string
	Score    int
	PlayTime float64
}

// Store is the durable sink for retirement records. Append must be safe to
// call concurrently with List.
type Store interface {
	Append(ctx context.Context, rec RetiredPlayer) error
	List(ctx context.Context, start, limit int) ([]RetiredPlayer, error)
}

func playTimeMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}
