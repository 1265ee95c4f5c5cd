package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// DefaultPoolSize bounds the MySQL connection pool when the caller does not
// pick a size.
const DefaultPoolSize = 4

const createRetiredPlayers = `CREATE TABLE IF NOT EXISTS retired_players (
	id CHAR(36) NOT NULL,
	name VARCHAR(255) NOT NULL,
	score INT NOT NULL,
	play_time_ms BIGINT NOT NULL,
	PRIMARY KEY (id),
	KEY idx_retired_players_score_time_name (score DESC, play_time_ms, name)
)`

// SQLStore keeps retirement records in MySQL.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL connects to MySQL at dsn, bounds the connection pool to poolSize
// and creates the retired_players table when it is missing.
func OpenSQL(ctx context.Context, dsn string, poolSize int) (*SQLStore, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open records database: %w", err)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping records database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRetiredPlayers); err != nil {
		db.Close()
		return nil, fmt.Errorf("create retired_players table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Append stores one retirement record under a fresh row id.
func (s *SQLStore) Append(ctx context.Context, rec RetiredPlayer) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO retired_players (id, name, score, play_time_ms) VALUES (?, ?, ?, ?)",
		uuid.NewString(), rec.Name, rec.Score, playTimeMillis(rec.PlayTime),
	)
	if err != nil {
		return fmt.Errorf("append retirement record: %w", err)
	}
	return nil
}

// List returns the leaderboard page [start, start+limit) ordered by score
// descending, then play time, then name.
func (s *SQLStore) List(ctx context.Context, start, limit int) ([]RetiredPlayer, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, score, play_time_ms FROM retired_players ORDER BY score DESC, play_time_ms ASC, name ASC LIMIT ? OFFSET ?",
		limit, start,
	)
	if err != nil {
		return nil, fmt.Errorf("query retirement records: %w", err)
	}
	defer rows.Close()

	out := make([]RetiredPlayer, 0, limit)
	for rows.Next() {
		var (
			rec RetiredPlayer
			ms  int64
		)
		if err := rows.Scan(&rec.Name, &rec.Score, &ms); err != nil {
			return nil, fmt.Errorf("scan retirement record: %w", err)
		}
		rec.PlayTime = float64(ms) / 1000.0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retirement records: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
