package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LeaderboardLoader fetches aggregates from a backing store (e.g., Postgres).
type LeaderboardLoader interface {
	Top(ctx context.Context, limit int) ([]domain.PlayerStats, error)
	Player(ctx context.Context, userID int64) (domain.PlayerStats, error)
}

// LeaderboardCache caches leaderboard reads with TTL to avoid repeated aggregate queries.
type LeaderboardCache struct {
	loader LeaderboardLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.Mutex
	rnd   *rand.Rand
	top   map[int]cachedTop
	stats map[int64]cachedStats
}

type cachedTop struct {
	entries   []domain.PlayerStats
	expiresAt time.Time
}

type cachedStats struct {
	stats     domain.PlayerStats
	expiresAt time.Time
}

func NewLeaderboardCache(loader LeaderboardLoader, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		top:    make(map[int]cachedTop),
		stats:  make(map[int64]cachedStats),
	}
}

func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	if entries, ok := c.cachedTop(limit); ok {
		return entries, nil
	}

	result, err, _ := c.sf.Do("top:"+strconv.Itoa(limit), func() (interface{}, error) {
		if entries, ok := c.cachedTop(limit); ok {
			return entries, nil
		}
		entries, err := c.loader.Top(ctx, limit)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.top[limit] = cachedTop{entries: entries, expiresAt: c.clock().Add(c.ttlWithJitterLocked())}
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.PlayerStats), nil
}

func (c *LeaderboardCache) Player(ctx context.Context, userID int64) (domain.PlayerStats, error) {
	if st, ok := c.cachedPlayer(userID); ok {
		return st, nil
	}

	result, err, _ := c.sf.Do("player:"+strconv.FormatInt(userID, 10), func() (interface{}, error) {
		if st, ok := c.cachedPlayer(userID); ok {
			return st, nil
		}
		st, err := c.loader.Player(ctx, userID)
		if err != nil {
			return domain.PlayerStats{}, err
		}
		c.mu.Lock()
		c.stats[userID] = cachedStats{stats: st, expiresAt: c.clock().Add(c.ttlWithJitterLocked())}
		c.mu.Unlock()
		return st, nil
	})
	if err != nil {
		return domain.PlayerStats{}, err
	}
	return result.(domain.PlayerStats), nil
}

// Invalidate drops every cached entry; called after a score is recorded.
func (c *LeaderboardCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.top = make(map[int]cachedTop)
	c.stats = make(map[int64]cachedStats)
	return nil
}

func (c *LeaderboardCache) cachedTop(limit int) ([]domain.PlayerStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.top[limit]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.entries, true
}

func (c *LeaderboardCache) cachedPlayer(userID int64) (domain.PlayerStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.stats[userID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.PlayerStats{}, false
	}
	return entry.stats, true
}

func (c *LeaderboardCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
