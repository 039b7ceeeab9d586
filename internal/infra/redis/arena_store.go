package redis

import (
	"context"
	"sync"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"github.com/redis/go-redis/v9"
)

const arenaLiveSet = "arena:live"

// ArenaStore is a Redis-aware implementation of app.ArenaRegistry.
// Notes:
//   - Loops stay in a local map; they own timers and cannot be serialized.
//   - Redis holds a liveness key per arena plus a set of live ids, so the
//     number of games in progress can be read across instances.
type ArenaStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	arenas map[string]*arena.Loop
}

func NewArenaStore(client *redis.Client, ttl time.Duration) *ArenaStore {
	return &ArenaStore{
		client: client,
		ttl:    ttl,
		arenas: make(map[string]*arena.Loop),
	}
}

func (s *ArenaStore) Add(id string, loop *arena.Loop) {
	s.mu.Lock()
	s.arenas[id] = loop
	s.mu.Unlock()

	// best-effort liveness marker
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), "1", s.ttl)
	pipe.SAdd(ctx, arenaLiveSet, id)
	_, _ = pipe.Exec(ctx)
}

func (s *ArenaStore) Get(id string) (*arena.Loop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loop, ok := s.arenas[id]
	return loop, ok
}

func (s *ArenaStore) Remove(id string) {
	s.mu.Lock()
	delete(s.arenas, id)
	s.mu.Unlock()

	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, arenaLiveSet, id)
	_, _ = pipe.Exec(ctx)
}

// Count returns the number of live arenas across instances, pruning ids whose
// liveness key expired. It falls back to the local count when Redis is unreachable.
func (s *ArenaStore) Count() int {
	ctx := context.Background()
	ids, err := s.client.SMembers(ctx, arenaLiveSet).Result()
	if err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.arenas)
	}
	live := 0
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			continue
		}
		if n == 0 {
			_ = s.client.SRem(ctx, arenaLiveSet, id).Err()
			continue
		}
		live++
	}
	return live
}

func (s *ArenaStore) key(id string) string {
	return "arena:live:" + id
}
