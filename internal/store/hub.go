// Package store holds the in-process edge of the persistence gateway:
// a snapshot hub that pushes full-collection change notifications and a
// mirror that keeps the last pushed snapshot per owner namespace.
package store

import "sync"

// Hub fans out full-replacement collection snapshots to subscribers,
// one stream per owner namespace. Every accepted write publishes the
// complete record set again; subscribers never receive diffs.
//
// Delivery is coalescing: a subscriber that has not drained its channel
// loses the pending snapshot in favor of the newest one. Publishers
// never block on slow consumers.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan []T
	nextID int
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[string]map[int]chan []T)}
}

// Subscribe registers a listener for the owner's collection. The
// returned cancel func releases the subscription and closes the
// channel; it is safe to call more than once.
func (h *Hub[T]) Subscribe(owner string) (<-chan []T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[owner] == nil {
		h.subs[owner] = make(map[int]chan []T)
	}
	id := h.nextID
	h.nextID++

	ch := make(chan []T, 1)
	h.subs[owner][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[owner][id]; ok {
				delete(h.subs[owner], id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers snapshot to every subscriber of the owner's
// collection, replacing any snapshot a subscriber has not consumed yet.
func (h *Hub[T]) Publish(owner string, snapshot []T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[owner] {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale pending snapshot, then push the new one.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// SubscriberCount reports how many listeners the owner currently has.
func (h *Hub[T]) SubscriberCount(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}
