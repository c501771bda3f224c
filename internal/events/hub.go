package events

import (
	"context"
	"sync"
)

// Hub is an in-process Bus. Slow subscribers lose changes rather than block
// publishers; a lost change is harmless because every change triggers a full
// reload.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Change]struct{}
	buffer int
}

var _ Bus = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Change]struct{}), buffer: 16}
}

func (h *Hub) Publish(_ context.Context, c Change) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[c.Owner] {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, owner string) (<-chan Change, func(), error) {
	ch := make(chan Change, h.buffer)
	h.mu.Lock()
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[chan Change]struct{})
	}
	h.subs[owner][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[owner], ch)
			if len(h.subs[owner]) == 0 {
				delete(h.subs, owner)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// Subscribers returns how many subscriptions are open for owner
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}
