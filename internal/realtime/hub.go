// Package realtime delivers record change events to in-process subscribers
package realtime

import (
	"sync"
)

// Topics published by the investment service and the webhook ingress
const (
	TopicInvestments = "investments"
	TopicPayments    = "payments"
)

// Event types, matching the database webhook payload
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event is a change notification for a single record
type Event struct {
	EventType string         `json:"eventType"`
	Table     string         `json:"table"`
	New       map[string]any `json:"new,omitempty"`
	Old       map[string]any `json:"old,omitempty"`
}

// Hub fans events out to topic subscribers
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Event)
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(Event))}
}

// Subscription is returned by Subscribe and cancels delivery when unsubscribed
type Subscription struct {
	hub   *Hub
	topic string
	id    int
	once  sync.Once
}

// Subscribe registers fn for events on topic
func (h *Hub) Subscribe(topic string, fn func(Event)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]func(Event))
	}
	h.subs[topic][h.nextID] = fn

	return &Subscription{hub: h, topic: topic, id: h.nextID}
}

// Unsubscribe stops delivery; calling it more than once is harmless
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs[s.topic], s.id)
	})
}

// Publish delivers ev to every subscriber of topic on the caller's goroutine
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	handlers := make([]func(Event), 0, len(h.subs[topic]))
	for _, fn := range h.subs[topic] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Subscribers returns the number of live subscriptions on topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
