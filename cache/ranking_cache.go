package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripbites/tournament-ranking/models"
)

// RankingCache keeps the latest ranking snapshot of each trip.
type RankingCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, tripID string) (*models.RankingSnapshot, error)
	Set(ctx context.Context, s *models.RankingSnapshot) error
	Invalidate(ctx context.Context, tripID string) error
}

type rankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRankingCache(client *redis.Client, ttl time.Duration) RankingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &rankingCache{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func key(tripID string) string {
	return fmt.Sprintf("ranking:%s", tripID)
}

func (c *rankingCache) Get(ctx context.Context, tripID string) (*models.RankingSnapshot, error) {
	data, err := c.client.Get(ctx, key(tripID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s models.RankingSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt cached ranking for trip %s: %w", tripID, err)
	}
	return &s, nil
}

func (c *rankingCache) Set(ctx context.Context, s *models.RankingSnapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(s.TripID), data, c.ttl).Err()
}

func (c *rankingCache) Invalidate(ctx context.Context, tripID string) error {
	return c.client.Del(ctx, key(tripID)).Err()
}
