package spyfall

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Engine is the Spyfall game state machine. It implements sdb.Engine.
type Engine struct {
	matchID    string
	rng        *sdb.Rng
	log        *sdb.Log
	numPlayers int
	maxTurns   int

	location string
	players  []player

	phase     Phase
	round     int // turn counter, doubles as the event log's round field
	turnsUsed int

	asker        sdb.PlayerID
	answerer     sdb.PlayerID
	cannotAskBack sdb.PlayerID
	hasCannotAsk  bool

	accusedBy           sdb.PlayerID
	suspect             sdb.PlayerID
	accusationInitiated bool
	votes               map[sdb.PlayerID]bool

	finalNominationIdx int
	finalOrder         []sdb.PlayerID

	identifiedBy        sdb.PlayerID
	spyGuessedCorrectly bool

	done      bool
	winner    string
	winReason string
	startedAt time.Time
	endedAt   time.Time

	stats map[sdb.PlayerID]*sdb.PlayerStats
}

// New constructs a Spyfall engine for a 3-12 player match. maxTurns bounds
// the Q&A turn budget before the engine moves to a final vote; a
// non-positive value defaults to 2*numPlayers.
func New(matchID string, seed int64, numPlayers, maxTurns int) (*Engine, error) {
	if numPlayers < 3 || numPlayers > 12 {
		return nil, sdb.NewValidationError(-1, "bad_player_count", "spyfall requires 3-12 players")
	}
	if maxTurns <= 0 {
		maxTurns = 2 * numPlayers
	}
	return &Engine{matchID: matchID, rng: sdb.NewRng(seed), numPlayers: numPlayers, maxTurns: maxTurns}, nil
}

func (e *Engine) deal() {
	loc := locations[e.rng.Intn(len(locations))]
	e.location = loc.Name

	spy := sdb.PlayerID(e.rng.Intn(e.numPlayers))
	rolePool := make([]string, len(loc.Roles))
	copy(rolePool, loc.Roles)
	sdb.ShuffleInts(e.rng, rolePool)

	e.players = make([]player, e.numPlayers)
	roleIdx := 0
	for i := 0; i < e.numPlayers; i++ {
		id := sdb.PlayerID(i)
		if id == spy {
			e.players[i] = player{ID: id, IsSpy: true}
			continue
		}
		role := rolePool[roleIdx%len(rolePool)]
		roleIdx++
		e.players[i] = player{ID: id, Role: role}
	}
}

func (e *Engine) spyID() sdb.PlayerID {
	for _, p := range e.players {
		if p.IsSpy {
			return p.ID
		}
	}
	return -1
}

func (e *Engine) nonSpies() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if !p.IsSpy {
			out = append(out, p.ID)
		}
	}
	return out
}
