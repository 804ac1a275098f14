// Package realtime fans persisted messages out to live websocket
// subscribers, keyed by thread id.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const sendBuffer = 64

// Envelope is the wire frame pushed to subscribers.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Subscription is one live listener on a thread. Frames arrive on C; the
// channel closes when the subscription is removed from the hub.
type Subscription struct {
	threadID string
	send     chan []byte
	once     sync.Once
}

// ThreadID returns the thread this subscription listens on.
func (s *Subscription) ThreadID() string { return s.threadID }

// C returns the frame channel.
func (s *Subscription) C() <-chan []byte { return s.send }

// Hub routes published messages to thread subscribers. Safe for
// concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		logger: log.With(slog.String("service", "realtime")),
	}
}

// Subscribe registers a new listener on the thread.
func (h *Hub) Subscribe(threadID string) *Subscription {
	sub := &Subscription{
		threadID: threadID,
		send:     make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	set, ok := h.subs[threadID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[threadID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("subscribed", slog.String("thread_id", threadID))
	return sub
}

// Unsubscribe removes the listener and closes its channel. Calling it
// again, or with a subscription the hub never held, is a no-op. Empty
// per-thread sets are dropped so idle threads cost nothing.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if set, ok := h.subs[sub.threadID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.threadID)
		}
	}
	// Close under the write lock: Publish sends under the read lock, so a
	// send can never interleave with this close.
	sub.once.Do(func() { close(sub.send) })
	h.mu.Unlock()
}

// Publish pushes data to every subscriber of the thread wrapped in a
// new_message envelope and reports how many received it. A subscriber
// whose buffer is full is dropped rather than allowed to stall the rest.
func (h *Hub) Publish(threadID string, data any) int {
	frame, err := json.Marshal(Envelope{Type: "new_message", Data: data})
	if err != nil {
		h.logger.Error("marshal realtime frame", slog.String("error", err.Error()))
		return 0
	}

	var delivered int
	var dead []*Subscription
	h.mu.RLock()
	for sub := range h.subs[threadID] {
		select {
		case sub.send <- frame:
			delivered++
		default:
			dead = append(dead, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range dead {
		h.Unsubscribe(sub)
		h.logger.Warn("dropped slow subscriber", slog.String("thread_id", threadID))
	}
	return delivered
}

// Count returns the number of live subscribers on the thread.
func (h *Hub) Count(threadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[threadID])
}
