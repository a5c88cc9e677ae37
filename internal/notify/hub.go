package notify

import (
	"context"
	"sync"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

const subscriberBuffer = 8

type subscriber struct {
	identity domain.Identity
	ch       chan domain.Notification
}

// Hub fans notifications out to the live subscribers of this process.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Subscribe registers a listener for notifications addressed to id.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(id domain.Identity) (<-chan domain.Notification, func()) {
	sub := &subscriber{identity: id, ch: make(chan domain.Notification, subscriberBuffer)}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[sub]; ok {
			delete(h.subscribers, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers n locally. It lets the hub act as the broker of a single instance.
func (h *Hub) Publish(_ context.Context, n domain.Notification) error {
	h.Deliver(n)
	return nil
}

// Deliver sends n to every matching subscriber without blocking. A full buffer
// loses its oldest entry so slow clients never stall the sender.
func (h *Hub) Deliver(n domain.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		if !n.Audience.Matches(sub.identity) {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- n
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
