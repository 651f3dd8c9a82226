// Package hub broadcasts match events and tournament progress to connected
// spectators over WebSocket: per-match event channels plus one tournament-wide
// progress channel, layered over the same connection/subscription bookkeeping
// as a per-game broadcast hub.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event types sent over WebSocket to spectators.
const (
	EventMatchEvent    = "match_event"    // a per-match status update (the scheduler sends "started")
	EventMatchEnded    = "match_ended"    // a sdb.GameResult
	EventTournamentLog = "tournament_log" // a progress-log line
)

// WSEvent is the envelope for all spectator WebSocket messages.
type WSEvent struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id,omitempty"`
	Data    any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from a spectator.
type ClientMessage struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	MatchID string `json:"match_id"`
}

// Conn wraps a WebSocket connection with its subscriptions.
type Conn struct {
	conn Socket
	send chan []byte
}

// Socket is the subset of *websocket.Conn the hub depends on, so tests can
// exercise the broadcast/subscription logic without a real connection.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub manages spectator connections and per-match subscriptions. Per-match
// events go to the connections subscribed in "matches"; tournament-wide
// events go to every registered connection regardless of subscription.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Conn]bool
	matches     map[string]map[*Conn]bool // matchID -> subscribed connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Conn]bool),
		matches:     make(map[string]map[*Conn]bool),
	}
}

// NewConn wraps a socket as a hub connection with a buffered send channel.
func NewConn(s Socket, bufSize int) *Conn {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Conn{conn: s, send: make(chan []byte, bufSize)}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	for matchID, conns := range h.matches {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.matches, matchID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a match's event channel.
func (h *Hub) Subscribe(c *Conn, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.matches[matchID] == nil {
		h.matches[matchID] = make(map[*Conn]bool)
	}
	h.matches[matchID][c] = true
}

// Unsubscribe removes a connection from a match's event channel.
func (h *Hub) Unsubscribe(c *Conn, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.matches[matchID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.matches, matchID)
		}
	}
}

// BroadcastToMatch sends an event to every connection subscribed to matchID.
func (h *Hub) BroadcastToMatch(matchID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("failed to marshal spectator event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.matches[matchID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("matchId", matchID).Msg("dropping spectator message, buffer full")
		}
	}
}

// BroadcastTournament sends a tournament-progress event to every connected
// spectator, regardless of per-match subscription.
func (h *Hub) BroadcastTournament(event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal tournament event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.connections {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// MatchSubscriberCount returns the number of connections subscribed to a match.
func (h *Hub) MatchSubscriberCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches[matchID])
}
