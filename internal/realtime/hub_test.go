package realtime

import (
	"testing"
)

func TestHub_PublishDeliversToTopicSubscribers(t *testing.T) {
	hub := NewHub()

	var investments, payments int
	hub.Subscribe(TopicInvestments, func(ev Event) { investments++ })
	hub.Subscribe(TopicPayments, func(ev Event) { payments++ })

	hub.Publish(TopicInvestments, Event{EventType: EventInsert})

	if investments != 1 {
		t.Errorf("Expected 1 investment event, got %d", investments)
	}
	if payments != 0 {
		t.Errorf("Expected no payment events, got %d", payments)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	calls := 0
	sub := hub.Subscribe(TopicPayments, func(ev Event) { calls++ })
	if hub.Subscribers(TopicPayments) != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", hub.Subscribers(TopicPayments))
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	hub.Publish(TopicPayments, Event{EventType: EventUpdate})

	if calls != 0 {
		t.Errorf("Expected no deliveries after unsubscribe, got %d", calls)
	}
	if hub.Subscribers(TopicPayments) != 0 {
		t.Errorf("Expected 0 subscribers, got %d", hub.Subscribers(TopicPayments))
	}
}

func TestHub_PublishCarriesRecord(t *testing.T) {
	hub := NewHub()

	var got Event
	hub.Subscribe(TopicPayments, func(ev Event) { got = ev })
	hub.Publish(TopicPayments, Event{
		EventType: EventUpdate,
		New:       map[string]any{"status": "succeeded"},
	})

	if got.EventType != EventUpdate {
		t.Errorf("Expected event type UPDATE, got %s", got.EventType)
	}
	if got.New["status"] != "succeeded" {
		t.Errorf("Expected new status succeeded, got %v", got.New["status"])
	}
}
