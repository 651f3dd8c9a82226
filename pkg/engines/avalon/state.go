package avalon

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Engine is the Avalon game state machine. It implements sdb.Engine.
type Engine struct {
	matchID    string
	rng        *sdb.Rng
	log        *sdb.Log
	numPlayers int
	players    []player

	phase Phase
	round int // advanced after each team vote and each quest vote, used as the event log's round field

	questIndex      int
	leaderIdx       int
	proposalIdx     int // global proposal counter
	rejectionStreak int
	currentTeam     []sdb.PlayerID

	discussionOrder []sdb.PlayerID
	discussionIdx   int
	seenStatements  map[sdb.PlayerID]map[string]bool // per-speaker normalized statements already made this discussion

	votes        map[sdb.PlayerID]bool
	questBallots map[sdb.PlayerID]bool

	questResults   []questResult
	questsSucceeded int
	questsFailed    int

	done      bool
	winner    string
	winReason string
	startedAt time.Time
	endedAt   time.Time

	stats map[sdb.PlayerID]*sdb.PlayerStats
}

// New constructs an Avalon engine for a 5-10 player match.
func New(matchID string, seed int64, numPlayers int) (*Engine, error) {
	if numPlayers < 5 || numPlayers > 10 {
		return nil, sdb.NewValidationError(-1, "bad_player_count", "avalon requires 5-10 players")
	}
	return &Engine{matchID: matchID, rng: sdb.NewRng(seed), numPlayers: numPlayers}, nil
}

func (e *Engine) assignRoles() {
	roles := roleSet(e.numPlayers)
	sdb.ShuffleInts(e.rng, roles)

	e.players = make([]player, e.numPlayers)
	for i, r := range roles {
		e.players[i] = player{ID: sdb.PlayerID(i), Role: r, Alignment: alignmentOf(r)}
	}
}

func (e *Engine) alivePlayers() []sdb.PlayerID {
	out := make([]sdb.PlayerID, e.numPlayers)
	for i := range e.players {
		out[i] = sdb.PlayerID(i)
	}
	return out // no player ever leaves the game in Avalon
}

func (e *Engine) leader() sdb.PlayerID { return sdb.PlayerID(e.leaderIdx % e.numPlayers) }

func (e *Engine) merlinID() sdb.PlayerID {
	for _, p := range e.players {
		if p.Role == RoleMerlin {
			return p.ID
		}
	}
	return -1
}

func (e *Engine) assassinID() sdb.PlayerID {
	for _, p := range e.players {
		if p.Role == RoleAssassin {
			return p.ID
		}
	}
	return -1
}

func (e *Engine) evilIDs() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.Alignment == Evil {
			out = append(out, p.ID)
		}
	}
	return out
}

func (e *Engine) enterTeamSelection() {
	e.phase = PhaseTeamSelection
	e.currentTeam = nil
	e.log.Append(e.round, sdb.EventPhaseChange,
		map[string]any{"phase": string(PhaseTeamSelection), "quest": e.questIndex, "leader": int(e.leader())}, nil, false)
}
