package memory

import (
	"sync"

	"github.com/mayssameid/Clash-of-Digits/internal/arena"
)

// ArenaStore is an in-memory implementation of app.ArenaRegistry.
type ArenaStore struct {
	mu     sync.RWMutex
	arenas map[string]*arena.Loop
}

func NewArenaStore() *ArenaStore {
	return &ArenaStore{
		arenas: make(map[string]*arena.Loop),
	}
}

func (s *ArenaStore) Add(id string, loop *arena.Loop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arenas[id] = loop
}

func (s *ArenaStore) Get(id string) (*arena.Loop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loop, ok := s.arenas[id]
	return loop, ok
}

func (s *ArenaStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.arenas, id)
}

func (s *ArenaStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.arenas)
}
