package werewolf

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Engine is the Werewolf game state machine. It implements sdb.Engine.
type Engine struct {
	matchID        string
	rng            *sdb.Rng
	log            *sdb.Log
	numPlayers     int
	maxDebateTurns int

	players []player
	phase   Phase
	round   int // night/day cycle counter, doubles as the event log's round field

	werewolfTarget sdb.PlayerID
	hasWolfTarget  bool
	doctorTarget   sdb.PlayerID
	hasDoctor      bool
	seerTarget     sdb.PlayerID
	hasSeer        bool
	lastEliminated sdb.PlayerID
	hasElimination bool

	lastSpeaker    sdb.PlayerID
	hasLastSpeaker bool
	debateTurns    int
	bids           map[sdb.PlayerID]int
	speaker        sdb.PlayerID // winner of the latest bidding round
	votes          map[sdb.PlayerID]sdb.PlayerID

	done      bool
	winner    string
	winReason string
	startedAt time.Time
	endedAt   time.Time

	stats map[sdb.PlayerID]*sdb.PlayerStats
}

// New constructs a Werewolf engine for a 3+ player match. maxDebateTurns
// bounds how many public statements are recorded before a day moves to
// voting; a non-positive value defaults to 3.
func New(matchID string, seed int64, numPlayers, maxDebateTurns int) (*Engine, error) {
	if numPlayers < 3 {
		return nil, sdb.NewValidationError(-1, "bad_player_count", "werewolf requires at least 3 players")
	}
	if maxDebateTurns <= 0 {
		maxDebateTurns = 3
	}
	return &Engine{matchID: matchID, rng: sdb.NewRng(seed), numPlayers: numPlayers, maxDebateTurns: maxDebateTurns}, nil
}

func (e *Engine) assignRoles() {
	roles := roleSet(e.numPlayers)
	sdb.ShuffleInts(e.rng, roles)

	e.players = make([]player, e.numPlayers)
	for i, r := range roles {
		e.players[i] = player{ID: sdb.PlayerID(i), Role: r, Alive: true}
	}
}

func (e *Engine) alivePlayers() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.Alive {
			out = append(out, p.ID)
		}
	}
	return out
}

func (e *Engine) isAlive(p sdb.PlayerID) bool {
	if p < 0 || int(p) >= len(e.players) {
		return false
	}
	return e.players[p].Alive
}

func (e *Engine) aliveWerewolves() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.Alive && p.Role == RoleWerewolf {
			out = append(out, p.ID)
		}
	}
	return out
}

func (e *Engine) aliveVillagers() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.Alive && p.Role != RoleWerewolf {
			out = append(out, p.ID)
		}
	}
	return out
}

func (e *Engine) seerID() sdb.PlayerID {
	for _, p := range e.players {
		if p.Role == RoleSeer && p.Alive {
			return p.ID
		}
	}
	return -1
}

func (e *Engine) doctorID() sdb.PlayerID {
	for _, p := range e.players {
		if p.Role == RoleDoctor && p.Alive {
			return p.ID
		}
	}
	return -1
}

func (e *Engine) enterNight() {
	e.round++
	e.werewolfTarget, e.hasWolfTarget = -1, false
	e.doctorTarget, e.hasDoctor = -1, false
	e.seerTarget, e.hasSeer = -1, false
	e.lastEliminated, e.hasElimination = -1, false
	e.phase = PhaseNightWerewolf
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseNightWerewolf)}, nil, false)
}
