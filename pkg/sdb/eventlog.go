package sdb

import (
	"sync"
	"time"
)

// EventKind is the closed set of event kinds from spec.md §6.3.
type EventKind string

const (
	EventGameStart          EventKind = "GameStart"
	EventGameEnd            EventKind = "GameEnd"
	EventPhaseChange        EventKind = "PhaseChange"
	EventRoundStart         EventKind = "RoundStart"
	EventRoundEnd           EventKind = "RoundEnd"
	EventPlayerAction       EventKind = "PlayerAction"
	EventPlayerVote         EventKind = "PlayerVote"
	EventPlayerNominate     EventKind = "PlayerNominate"
	EventVoteCast           EventKind = "VoteCast"
	EventElectionResult     EventKind = "ElectionResult"
	EventQuestResult        EventKind = "QuestResult"
	EventPolicyEnacted      EventKind = "PolicyEnacted"
	EventPresidentialPower  EventKind = "PresidentialPower"
	EventInvestigationResult EventKind = "InvestigationResult"
	EventPlayerEliminated   EventKind = "PlayerEliminated"
	EventDiscussion         EventKind = "Discussion"
	EventVetoProposed       EventKind = "VetoProposed"
	EventVetoResponse       EventKind = "VetoResponse"
	EventAgentReasoning     EventKind = "AgentReasoning"
	EventError              EventKind = "Error"
	EventInfo                EventKind = "Info"
	EventLLMCall             EventKind = "LLMCall"
)

// Event is one entry of a match's append-only log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      EventKind      `json:"kind"`
	MatchID   string         `json:"match_id"`
	Round     int            `json:"round"`
	Data      map[string]any `json:"data,omitempty"`
	Player    *PlayerID      `json:"player,omitempty"`
	Private   bool           `json:"private"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Log is a per-match, append-only, concurrency-safe event log. Engines embed
// one and never rewrite or delete entries.
type Log struct {
	matchID string
	mu      sync.Mutex
	events  []Event
	now     func() time.Time

	throttle map[throttleKey]*throttleState
}

type throttleKey struct {
	Player PlayerID
	Code   string
	Detail string
}

// throttleState tracks the last time a (player, code, detail) key fired and
// how many subsequent firings have been suppressed since.
type throttleState struct {
	lastFired  time.Time
	suppressed int
}

// NewLog creates an empty log for the given match. now defaults to time.Now
// and is overridable only for deterministic tests.
func NewLog(matchID string) *Log {
	return &Log{matchID: matchID, now: time.Now, throttle: make(map[throttleKey]*throttleState)}
}

// Append records an event, stamping timestamp/match ID if unset.
func (l *Log) Append(round int, kind EventKind, data map[string]any, player *PlayerID, private bool) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := Event{
		Timestamp: l.now(),
		Kind:      kind,
		MatchID:   l.matchID,
		Round:     round,
		Data:      data,
		Player:    player,
		Private:   private,
	}
	l.events = append(l.events, ev)
	return ev
}

// AppendThrottled records an Error/Info event unless an identical
// (player, code, detail) key fired within cooldown; in that case it bumps a
// suppressed counter instead of appending. Once the cooldown has elapsed,
// the next emission of that key carries the suppressed count so far in its
// metadata (spec.md §9's "keep the suppressed count in the next emitted
// event's metadata"), and the counter resets.
func (l *Log) AppendThrottled(round int, kind EventKind, code, detail string, player PlayerID, cooldown time.Duration) {
	key := throttleKey{Player: player, Code: code, Detail: detail}

	l.mu.Lock()
	st := l.throttle[key]
	now := l.now()
	if st != nil && now.Sub(st.lastFired) < cooldown {
		st.suppressed++
		l.mu.Unlock()
		return
	}

	suppressed := 0
	if st == nil {
		st = &throttleState{}
		l.throttle[key] = st
	} else {
		suppressed = st.suppressed
	}
	st.lastFired = now
	st.suppressed = 0

	p := player
	ev := Event{
		Timestamp: now,
		Kind:      kind,
		MatchID:   l.matchID,
		Round:     round,
		Data:      map[string]any{"code": code, "detail": detail},
		Player:    &p,
	}
	if suppressed > 0 {
		ev.Metadata = map[string]any{"suppressed": suppressed}
	}
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

// All returns every event recorded so far (a defensive copy of the slice
// header; Event values are immutable once appended).
func (l *Log) All() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ForPlayer filters the log to events visible to p: public events plus any
// private event scoped to exactly p.
func (l *Log) ForPlayer(p PlayerID) []Event {
	all := l.All()
	out := make([]Event, 0, len(all))
	for _, ev := range all {
		if ev.Private && (ev.Player == nil || *ev.Player != p) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
