// Package sheriff implements the Sheriff of Nottingham engine of spec.md
// §4.6: a rotating-sheriff smuggling game of declare/negotiate/inspect, with
// a bribe-then-refund negotiation mechanic and King/Queen stand-good
// scoring bonuses.
package sheriff

import "github.com/sdbench/sdb/pkg/sdb"

// GoodType is a card's good category.
type GoodType string

const (
	Apple   GoodType = "apple"
	Cheese  GoodType = "cheese"
	Bread   GoodType = "bread"
	Chicken GoodType = "chicken"

	Mead     GoodType = "mead"
	Silk     GoodType = "silk"
	Pepper   GoodType = "pepper"
	Crossbow GoodType = "crossbow"

	RoyalChicken GoodType = "royal_chicken"
	RoyalCheese  GoodType = "royal_cheese"
)

// goodInfo is the fixed rulebook entry for one good type.
type goodInfo struct {
	Legal      bool
	Value      int
	Penalty    int
	CountsAs   GoodType // for Royal goods: the legal type they count as for King/Queen
	Multiplier int      // counting weight toward King/Queen (1 for ordinary goods)
	DeckCount  int
}

var goodTable = map[GoodType]goodInfo{
	Apple:   {Legal: true, Value: 2, Penalty: 2, CountsAs: Apple, Multiplier: 1, DeckCount: 20},
	Cheese:  {Legal: true, Value: 3, Penalty: 3, CountsAs: Cheese, Multiplier: 1, DeckCount: 12},
	Bread:   {Legal: true, Value: 3, Penalty: 3, CountsAs: Bread, Multiplier: 1, DeckCount: 12},
	Chicken: {Legal: true, Value: 4, Penalty: 4, CountsAs: Chicken, Multiplier: 1, DeckCount: 12},

	Mead:     {Legal: false, Value: 4, Penalty: 4, DeckCount: 8},
	Silk:     {Legal: false, Value: 5, Penalty: 5, DeckCount: 8},
	Pepper:   {Legal: false, Value: 5, Penalty: 5, DeckCount: 8},
	Crossbow: {Legal: false, Value: 6, Penalty: 6, DeckCount: 6},

	RoyalChicken: {Legal: true, Value: 7, Penalty: 7, CountsAs: Chicken, Multiplier: 2, DeckCount: 2},
	RoyalCheese:  {Legal: true, Value: 8, Penalty: 8, CountsAs: Cheese, Multiplier: 3, DeckCount: 2},
}

// legalTypes is the fixed set a Declare action may legally name. Royal goods can only arrive smuggled under one of these.
var legalTypes = []GoodType{Apple, Cheese, Bread, Chicken}

// kingBonus/queenBonus are the fixed scoring bonuses of spec.md §4.6
// "Scoring" for the strictly-largest and strictly-second-largest stand
// count of each legal good type.
const (
	kingBonus  = 10
	queenBonus = 5
)

// Phase is the engine-local per-round phase enumeration.
type Phase string

const (
	PhaseMarket     Phase = "Market"
	PhaseLoadBag    Phase = "LoadBag"
	PhaseDeclare    Phase = "Declare"
	PhaseNegotiate  Phase = "Negotiate"
	PhaseInspect    Phase = "Inspect"
	PhaseResolve    Phase = "Resolve"
	PhaseGameOver   Phase = "GameOver"
)

// negotiateSub distinguishes the two sub-steps of one Negotiate round.
type negotiateSub int

const (
	subOffer negotiateSub = iota
	subResponse
)

// Card is a single good card.
type Card struct {
	Type GoodType
}

// declaration is one merchant's Declare-phase statement.
type declaration struct {
	Type  GoodType
	Count int
}

// offer is one merchant's Negotiate-round bribe proposal.
type offer struct {
	Gold       int
	StandGoods map[GoodType]int // hand cards gifted to the sheriff's stand now
	BagGoods   map[GoodType]int // bag cards pre-agreed to redirect to the sheriff on Pass
	Promises   string
}

// player holds one player's hand/bag/stand/gold and sheriff-rotation count.
type player struct {
	ID           sdb.PlayerID
	Hand         []Card
	Bag          []Card
	Stand        []Card
	Gold         int
	SheriffTurns int
}

func countByType(cards []Card) map[GoodType]int {
	m := make(map[GoodType]int)
	for _, c := range cards {
		m[c.Type]++
	}
	return m
}

func removeByType(cards []Card, t GoodType, n int) ([]Card, int) {
	out := make([]Card, 0, len(cards))
	removed := 0
	for _, c := range cards {
		if c.Type == t && removed < n {
			removed++
			continue
		}
		out = append(out, c)
	}
	return out, removed
}
