package records

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps retirement records in process memory. It backs tests and
// servers that run without a database DSN.
type MemoryStore struct {
	mu   sync.Mutex
	rows []memoryRow
}

type memoryRow struct {
	name  string
	score int
	ms    int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores one retirement record.
func (s *MemoryStore) Append(_ context.Context, rec RetiredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, memoryRow{name: rec.Name, score: rec.Score, ms: playTimeMillis(rec.PlayTime)})
	return nil
}

// List returns the leaderboard page [start, start+limit) ordered by score
// descending, then play time, then name.
func (s *MemoryStore) List(_ context.Context, start, limit int) ([]RetiredPlayer, error) {
	s.mu.Lock()
	rows := make([]memoryRow, len(s.rows))
	copy(rows, s.rows)
	s.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		if rows[i].ms != rows[j].ms {
			return rows[i].ms < rows[j].ms
		}
		return rows[i].name < rows[j].name
	})

	if start < 0 {
		start = 0
	}
	if start >= len(rows) || limit <= 0 {
		return []RetiredPlayer{}, nil
	}
	end := min(start+limit, len(rows))
	out := make([]RetiredPlayer, 0, end-start)
	for _, row := range rows[start:end] {
		out = append(out, RetiredPlayer{Name: row.name, Score: row.score, PlayTime: float64(row.ms) / 1000.0})
	}
	return out, nil
}

// Len reports how many records the store holds.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
