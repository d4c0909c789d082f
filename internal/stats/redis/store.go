package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/codebreak-go/internal/stats"
)

// leaderboardKey is the sorted set holding name -> wins
const leaderboardKey = "codebreak:leaderboard"

// Config holds Redis connection settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// Store is a Redis-backed implementation of the stats interface,
// keeping the leaderboard in a single sorted set
type Store struct {
	client *redis.Client
}

// New creates a new Redis stats store and verifies the connection
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Redis stats store with an existing client (for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ stats.Store = (*Store)(nil)

func (s *Store) RecordWin(ctx context.Context, name string) error {
	return s.client.ZIncrBy(ctx, leaderboardKey, 1, name).Err()
}

func (s *Store) Wins(ctx context.Context, name string) (int, error) {
	score, err := s.client.ZScore(ctx, leaderboardKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return int(score), nil
}

func (s *Store) Leaders(ctx context.Context, limit int) ([]stats.Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]stats.Entry, 0, len(members))
	for _, m := range members {
		name, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, stats.Entry{Name: name, Wins: int(m.Score)})
	}
	return entries, nil
}
