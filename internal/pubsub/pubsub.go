// Package pubsub provides the listener registry shared by every component
// that emits notifications (ticks, fog reveals, entity changes, wave events).
package pubsub

import "sync"

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Hub fans a published value out to its subscribers in subscription order.
// The zero value is ready to use.
type Hub[T any] struct {
	mu   sync.Mutex
	next uint64
	subs []subscriber[T]
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function is idempotent.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	h.next++
	id := h.next
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every current subscriber. Subscribers run outside
// the hub lock so they may subscribe or unsubscribe while handling v.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	if len(h.subs) == 0 {
		h.mu.Unlock()
		return
	}
	subs := make([]subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of registered subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Clear drops every subscriber.
func (h *Hub[T]) Clear() {
	h.mu.Lock()
	h.subs = nil
	h.mu.Unlock()
}
