package app

import (
	"sync"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// Feed fans leaderboard snapshots out to subscribers.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan []domain.PlayerStats]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan []domain.PlayerStats]struct{})}
}

// Subscribe registers a channel primed with initial.
func (f *Feed) Subscribe(initial []domain.PlayerStats) (<-chan []domain.PlayerStats, func()) {
	ch := make(chan []domain.PlayerStats, 8)
	ch <- initial

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) > 0
}

// Publish never blocks: a full subscriber loses its oldest snapshot.
func (f *Feed) Publish(top []domain.PlayerStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- top:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- top
		}
	}
}
