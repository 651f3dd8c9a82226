package hub

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub()
	c := NewConn(nil, 0)

	h.Register(c)
	if h.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", h.ConnectionCount())
	}

	h.Unregister(c)
	if h.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", h.ConnectionCount())
	}
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	h := NewHub()
	c := NewConn(nil, 0)
	h.Register(c)
	defer h.Unregister(c)

	h.Subscribe(c, "match-1")
	if h.MatchSubscriberCount("match-1") != 1 {
		t.Errorf("expected 1 subscriber, got %d", h.MatchSubscriberCount("match-1"))
	}

	h.Unsubscribe(c, "match-1")
	if h.MatchSubscriberCount("match-1") != 0 {
		t.Errorf("expected 0 subscribers, got %d", h.MatchSubscriberCount("match-1"))
	}
}

func TestHubBroadcastToMatch(t *testing.T) {
	h := NewHub()
	c1 := NewConn(nil, 0)
	c2 := NewConn(nil, 0)
	c3 := NewConn(nil, 0) // not subscribed

	h.Register(c1)
	h.Register(c2)
	h.Register(c3)
	defer h.Unregister(c1)
	defer h.Unregister(c2)
	defer h.Unregister(c3)

	h.Subscribe(c1, "match-1")
	h.Subscribe(c2, "match-1")

	h.BroadcastToMatch("match-1", WSEvent{
		Type:    EventMatchEvent,
		MatchID: "match-1",
		Data:    map[string]string{"phase": "ElectionNomination"},
	})

	select {
	case msg := <-c1.send:
		var event WSEvent
		json.Unmarshal(msg, &event)
		if event.Type != EventMatchEvent {
			t.Errorf("expected match_event, got %s", event.Type)
		}
	case <-time.After(time.Second):
		t.Error("c1 did not receive broadcast")
	}

	select {
	case <-c2.send:
	case <-time.After(time.Second):
		t.Error("c2 did not receive broadcast")
	}

	select {
	case <-c3.send:
		t.Error("c3 should not have received broadcast")
	default:
	}
}

func TestHubBroadcastTournament(t *testing.T) {
	h := NewHub()
	c1 := NewConn(nil, 0)
	c2 := NewConn(nil, 0)

	h.Register(c1)
	h.Register(c2)
	defer h.Unregister(c1)
	defer h.Unregister(c2)

	// c2 only subscribes to a match; tournament broadcasts ignore subscriptions.
	h.Subscribe(c2, "match-1")

	h.BroadcastTournament(WSEvent{Type: EventTournamentLog, Data: "started match-2"})

	for _, c := range []*Conn{c1, c2} {
		select {
		case <-c.send:
		case <-time.After(time.Second):
			t.Error("connection did not receive tournament broadcast")
		}
	}
}

func TestHubUnregisterCleansUpSubscriptions(t *testing.T) {
	h := NewHub()
	c := NewConn(nil, 0)
	h.Register(c)
	h.Subscribe(c, "match-1")
	h.Subscribe(c, "match-2")

	h.Unregister(c)

	if h.MatchSubscriberCount("match-1") != 0 {
		t.Errorf("expected 0 subscribers for match-1 after unregister")
	}
	if h.MatchSubscriberCount("match-2") != 0 {
		t.Errorf("expected 0 subscribers for match-2 after unregister")
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewConn(nil, 0)
			h.Register(c)
			h.Subscribe(c, "match-1")
			h.BroadcastToMatch("match-1", WSEvent{Type: "test", MatchID: "match-1"})
			h.Unsubscribe(c, "match-1")
			h.Unregister(c)
		}()
	}

	wg.Wait()
	if h.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after concurrent test, got %d", h.ConnectionCount())
	}
}

func TestWSEventSerialization(t *testing.T) {
	event := WSEvent{
		Type:    EventMatchEnded,
		MatchID: "match-42",
		Data:    map[string]any{"winner": "liberals"},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed WSEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Type != EventMatchEnded {
		t.Errorf("expected match_ended, got %s", parsed.Type)
	}
	if parsed.MatchID != "match-42" {
		t.Errorf("expected match-42, got %s", parsed.MatchID)
	}
}

func TestClientMessageSerialization(t *testing.T) {
	msg := ClientMessage{Action: "subscribe", MatchID: "match-1"}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed ClientMessage
	json.Unmarshal(data, &parsed)
	if parsed.Action != "subscribe" {
		t.Errorf("expected subscribe, got %s", parsed.Action)
	}
	if parsed.MatchID != "match-1" {
		t.Errorf("expected match-1, got %s", parsed.MatchID)
	}
}
