package secrethitler

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Engine is the Secret Hitler game state machine. It implements sdb.Engine.
type Engine struct {
	matchID    string
	rng        *sdb.Rng
	log        *sdb.Log
	numPlayers int
	players    []player

	phase Phase
	round int // election round counter

	deck    []Policy
	discard []Policy

	liberalEnacted int
	fascistEnacted int

	electionTracker int
	termLimitWaived bool
	vetoUnlocked    bool

	presidentIdx      int
	chancellorNominee sdb.PlayerID
	hasNominee        bool
	lastPresident     *sdb.PlayerID
	lastChancellor    *sdb.PlayerID

	investigated map[sdb.PlayerID]bool

	votes map[sdb.PlayerID]bool

	drawnPolicies []Policy
	toChancellor  []Policy
	vetoProposed  bool

	pendingPower     Power
	powerResolved    bool
	specialElectionReturnTo int
	usingSpecialElectionReturn bool

	done      bool
	winner    string
	winReason string
	startedAt time.Time
	endedAt   time.Time

	stats map[sdb.PlayerID]*sdb.PlayerStats
}

// New constructs a Secret Hitler engine for a 5-10 player match.
func New(matchID string, seed int64, numPlayers int) (*Engine, error) {
	if numPlayers < 5 || numPlayers > 10 {
		return nil, sdb.NewValidationError(-1, "bad_player_count", "secret hitler requires 5-10 players")
	}
	return &Engine{
		matchID:    matchID,
		rng:        sdb.NewRng(seed),
		numPlayers: numPlayers,
	}, nil
}

func (e *Engine) alivePlayers() []sdb.PlayerID {
	out := make([]sdb.PlayerID, 0, e.numPlayers)
	for _, p := range e.players {
		if p.Alive {
			out = append(out, p.ID)
		}
	}
	return out
}

func (e *Engine) aliveCount() int { return len(e.alivePlayers()) }

func (e *Engine) isAlive(p sdb.PlayerID) bool {
	return p >= 0 && int(p) < len(e.players) && e.players[p].Alive
}

func (e *Engine) hitlerID() sdb.PlayerID {
	for _, p := range e.players {
		if p.Role == RoleHitler {
			return p.ID
		}
	}
	return -1
}

func (e *Engine) president() sdb.PlayerID {
	alive := e.alivePlayers()
	if len(alive) == 0 {
		return -1
	}
	return alive[e.presidentIdx%len(alive)]
}

func (e *Engine) assignRoles() {
	e.players = make([]player, e.numPlayers)
	liberals, fascists := roleDistribution(e.numPlayers)

	roles := make([]Role, 0, e.numPlayers)
	for i := 0; i < liberals; i++ {
		roles = append(roles, RoleLiberal)
	}
	for i := 0; i < fascists; i++ {
		roles = append(roles, RoleFascist)
	}
	roles = append(roles, RoleHitler)

	sdb.ShuffleInts(e.rng, roles)

	for i := 0; i < e.numPlayers; i++ {
		role := roles[i]
		party := Liberal
		if role != RoleLiberal {
			party = Fascist
		}
		e.players[i] = player{ID: sdb.PlayerID(i), Role: role, Party: party, Alive: true}
	}
}

func (e *Engine) newDeck() {
	e.deck = nil
	for i := 0; i < 6; i++ {
		e.deck = append(e.deck, PolicyLiberal)
	}
	for i := 0; i < 11; i++ {
		e.deck = append(e.deck, PolicyFascist)
	}
	sdb.ShuffleInts(e.rng, e.deck)
	e.discard = nil
}

// draw draws n policies, reshuffling deck+discard first if insufficient.
func (e *Engine) draw(n int) []Policy {
	if len(e.deck) < n {
		e.deck = append(e.deck, e.discard...)
		e.discard = nil
		sdb.ShuffleInts(e.rng, e.deck)
	}
	drawn := e.deck[:n]
	e.deck = e.deck[n:]
	out := make([]Policy, n)
	copy(out, drawn)
	return out
}
