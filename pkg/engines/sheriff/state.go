package sheriff

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Engine is the Sheriff of Nottingham game state machine. It implements
// sdb.Engine.
type Engine struct {
	matchID string
	rng     *sdb.Rng
	log     *sdb.Log

	numPlayers           int
	handSize             int
	bagLimit             int
	maxNegotiationRounds int
	requiredSheriffTurns int

	deck     []Card
	discardA []Card
	discardB []Card

	players    []player
	sheriffIdx int

	round int
	phase Phase

	// per-round transient state
	queue    []sdb.PlayerID // merchants in queue order (ascending ID, excl. sheriff)
	marketAt int

	declared map[sdb.PlayerID]declaration

	negotiateRound int
	negotiateSub   negotiateSub
	offers         map[sdb.PlayerID]offer
	bribeAccepted  map[sdb.PlayerID]bool
	bribeGold      map[sdb.PlayerID]int // gold accepted from each merchant's bribes this round, for the inspect-time refund
	redirect       map[sdb.PlayerID]map[GoodType]int
	refunded       map[[2]sdb.PlayerID]bool
	negotiateEnded bool

	inspectAt int

	done      bool
	winner    string
	winReason string
	startedAt time.Time
	endedAt   time.Time

	stats map[sdb.PlayerID]*sdb.PlayerStats
}

// Config bundles the tunables spec.md §4.6 leaves to match setup.
type Config struct {
	HandSize             int
	BagLimit             int
	MaxNegotiationRounds int
}

// New constructs a Sheriff engine for a 3-5 player match.
func New(matchID string, seed int64, numPlayers int, cfg Config) (*Engine, error) {
	if numPlayers < 3 || numPlayers > 5 {
		return nil, sdb.NewValidationError(-1, "bad_player_count", "sheriff requires 3-5 players")
	}
	if cfg.HandSize <= 0 {
		cfg.HandSize = 6
	}
	if cfg.BagLimit <= 0 {
		cfg.BagLimit = 5
	}
	if cfg.MaxNegotiationRounds <= 0 {
		cfg.MaxNegotiationRounds = 3
	}
	required := 2
	if numPlayers == 3 {
		required = 3
	}
	return &Engine{
		matchID:              matchID,
		rng:                  sdb.NewRng(seed),
		numPlayers:           numPlayers,
		handSize:             cfg.HandSize,
		bagLimit:             cfg.BagLimit,
		maxNegotiationRounds: cfg.MaxNegotiationRounds,
		requiredSheriffTurns: required,
	}, nil
}

func (e *Engine) buildDeck() {
	e.deck = e.deck[:0]
	for t, info := range goodTable {
		for i := 0; i < info.DeckCount; i++ {
			e.deck = append(e.deck, Card{Type: t})
		}
	}
	sdb.ShuffleInts(e.rng, e.deck)
}

func (e *Engine) draw(n int) []Card {
	e.ensureDeck(n)
	if n > len(e.deck) {
		n = len(e.deck)
	}
	out := make([]Card, n)
	copy(out, e.deck[:n])
	e.deck = e.deck[n:]
	return out
}

// ensureDeck reshuffles the combined lower layers of both discard piles
// into the deck when it's about to run short, preserving the top five of
// each pile face-up.
func (e *Engine) ensureDeck(need int) {
	if len(e.deck) >= need {
		return
	}
	var reclaimed []Card
	if len(e.discardA) > 5 {
		reclaimed = append(reclaimed, e.discardA[:len(e.discardA)-5]...)
		e.discardA = e.discardA[len(e.discardA)-5:]
	}
	if len(e.discardB) > 5 {
		reclaimed = append(reclaimed, e.discardB[:len(e.discardB)-5]...)
		e.discardB = e.discardB[len(e.discardB)-5:]
	}
	if len(reclaimed) == 0 {
		return
	}
	sdb.ShuffleInts(e.rng, reclaimed)
	e.deck = append(e.deck, reclaimed...)
}

func (e *Engine) merchants() []sdb.PlayerID {
	var out []sdb.PlayerID
	for i := 0; i < e.numPlayers; i++ {
		if sdb.PlayerID(i) != e.sheriffID() {
			out = append(out, sdb.PlayerID(i))
		}
	}
	return out
}

func (e *Engine) sheriffID() sdb.PlayerID { return sdb.PlayerID(e.sheriffIdx) }

// topUpHands redraws every player's hand back to handSize at the start of a
// round.
func (e *Engine) topUpHands() {
	for i := range e.players {
		if need := e.handSize - len(e.players[i].Hand); need > 0 {
			e.players[i].Hand = append(e.players[i].Hand, e.draw(need)...)
		}
	}
}

func (e *Engine) startRound() {
	e.topUpHands()
	e.queue = e.merchants()
	e.marketAt = 0
	e.declared = make(map[sdb.PlayerID]declaration)
	e.negotiateRound = 0
	e.negotiateSub = subOffer
	e.offers = make(map[sdb.PlayerID]offer)
	e.bribeAccepted = make(map[sdb.PlayerID]bool)
	e.bribeGold = make(map[sdb.PlayerID]int)
	e.redirect = make(map[sdb.PlayerID]map[GoodType]int)
	e.refunded = make(map[[2]sdb.PlayerID]bool)
	e.negotiateEnded = false
	e.inspectAt = 0

	e.phase = PhaseMarket
	e.log.Append(e.round, sdb.EventRoundStart, map[string]any{"sheriff": int(e.sheriffID())}, nil, false)
}
