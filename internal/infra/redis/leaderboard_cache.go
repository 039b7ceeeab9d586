package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const leaderboardKeyPrefix = "leaderboard:"

// LeaderboardLoader fetches aggregates from a backing store (e.g., Postgres).
type LeaderboardLoader interface {
	Top(ctx context.Context, limit int) ([]domain.PlayerStats, error)
	Player(ctx context.Context, userID int64) (domain.PlayerStats, error)
}

// LeaderboardCache caches leaderboard reads in Redis and falls back to a loader on cache miss.
// Top lists are stored as:    SET leaderboard:top:{limit}    <json>
// Player stats are stored as: SET leaderboard:player:{userID} <json>
type LeaderboardCache struct {
	client *redis.Client
	loader LeaderboardLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, loader LeaderboardLoader, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	key := c.topKey(limit)
	var entries []domain.PlayerStats
	if c.get(ctx, key, &entries) {
		return entries, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var entries []domain.PlayerStats
		if c.get(ctx, key, &entries) {
			return entries, nil
		}
		entries, err := c.loader.Top(ctx, limit)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.PlayerStats), nil
}

func (c *LeaderboardCache) Player(ctx context.Context, userID int64) (domain.PlayerStats, error) {
	key := c.playerKey(userID)
	var stats domain.PlayerStats
	if c.get(ctx, key, &stats) {
		return stats, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		var stats domain.PlayerStats
		if c.get(ctx, key, &stats) {
			return stats, nil
		}
		stats, err := c.loader.Player(ctx, userID)
		if err != nil {
			return domain.PlayerStats{}, err
		}
		c.set(ctx, key, stats)
		return stats, nil
	})
	if err != nil {
		return domain.PlayerStats{}, err
	}
	return result.(domain.PlayerStats), nil
}

// Invalidate deletes every cached leaderboard key.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, leaderboardKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan leaderboard keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete leaderboard keys: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// set is best-effort; a failed write only costs a future cache miss.
func (c *LeaderboardCache) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *LeaderboardCache) topKey(limit int) string {
	return leaderboardKeyPrefix + "top:" + strconv.Itoa(limit)
}

func (c *LeaderboardCache) playerKey(userID int64) string {
	return leaderboardKeyPrefix + "player:" + strconv.FormatInt(userID, 10)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
