package sheriff

import (
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

func act(kind string, data map[string]any) sdb.Action {
	return sdb.Action{Kind: kind, Data: data}
}

func newSheriffEngine(t *testing.T, numPlayers int) *Engine {
	t.Helper()
	eng, err := New("m1", 1, numPlayers, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()
	return eng
}

func noop(eng *Engine) {
	eng.Step(map[sdb.PlayerID]sdb.Action{})
}

// TestBribeAcceptedThenInspectRefundsGold reproduces spec.md §8.3's bribe
// scenario: the sheriff accepts a merchant's gold to wave a bag through,
// then inspects anyway. The bribe must be refunded before the contraband
// penalty is assessed, and total gold across all players is conserved.
func TestBribeAcceptedThenInspectRefundsGold(t *testing.T) {
	eng := newSheriffEngine(t, 3)
	sheriff := sdb.PlayerID(0)
	m1 := sdb.PlayerID(1)
	m2 := sdb.PlayerID(2)

	eng.players[1].Hand = []Card{{Type: Mead}, {Type: Apple}, {Type: Apple}}
	eng.players[2].Hand = []Card{{Type: Apple}, {Type: Apple}}

	totalGold := func() int {
		total := 0
		for _, p := range eng.players {
			total += p.Gold
		}
		return total
	}
	startingTotal := totalGold()

	// Market: two merchants, each gets one Step to pass through untouched,
	// then a third transitions the phase to LoadBag.
	noop(eng)
	noop(eng)
	noop(eng)
	if eng.phase != PhaseLoadBag {
		t.Fatalf("expected LoadBag after market queue drains, got %s", eng.phase)
	}

	eng.Step(map[sdb.PlayerID]sdb.Action{
		m1: act("load_bag", map[string]any{"cards": map[string]any{"mead": 1, "apple": 1}}),
		m2: act("load_bag", map[string]any{"cards": map[string]any{"apple": 2}}),
	})
	if eng.phase != PhaseDeclare {
		t.Fatalf("expected Declare after LoadBag, got %s", eng.phase)
	}
	if len(eng.players[1].Bag) != 2 || len(eng.players[2].Bag) != 2 {
		t.Fatalf("unexpected bag sizes: m1=%d m2=%d", len(eng.players[1].Bag), len(eng.players[2].Bag))
	}

	eng.Step(map[sdb.PlayerID]sdb.Action{
		m1: act("declare", map[string]any{"type": "apple", "count": 2}),
		m2: act("declare", map[string]any{"type": "apple", "count": 2}),
	})
	if eng.phase != PhaseNegotiate || eng.negotiateSub != subOffer {
		t.Fatalf("expected Negotiate/subOffer, got %s/%d", eng.phase, eng.negotiateSub)
	}

	eng.Step(map[sdb.PlayerID]sdb.Action{
		m1: act("offer", map[string]any{"gold": 10}),
	})
	if eng.negotiateSub != subResponse {
		t.Fatalf("expected negotiation to move to subResponse")
	}

	eng.Step(map[sdb.PlayerID]sdb.Action{
		sheriff: act("respond", map[string]any{
			"decisions":       map[string]any{"1": "accept"},
			"end_negotiation": true,
		}),
	})
	if eng.phase != PhaseInspect {
		t.Fatalf("expected Inspect after accepting bribe with end_negotiation, got %s", eng.phase)
	}
	if !eng.bribeAccepted[m1] {
		t.Fatalf("expected merchant 1's bribe to be recorded as accepted")
	}
	if eng.players[1].Gold != 40 || eng.players[0].Gold != 60 {
		t.Fatalf("bribe transfer wrong: m1=%d sheriff=%d", eng.players[1].Gold, eng.players[0].Gold)
	}

	// Inspect merchant 1 despite the accepted bribe: the bag is contraband
	// (mead declared as apple), so the bribe is refunded and the mead is
	// confiscated while the matching apple still counts for the merchant.
	eng.Step(map[sdb.PlayerID]sdb.Action{
		sheriff: act("inspect_decision", map[string]any{"decision": "inspect"}),
	})
	if eng.players[1].Gold != 46 {
		t.Fatalf("expected merchant 1 gold 46 after refund+penalty, got %d", eng.players[1].Gold)
	}
	if eng.players[0].Gold != 54 {
		t.Fatalf("expected sheriff gold 54 after refund+penalty, got %d", eng.players[0].Gold)
	}
	if len(eng.players[1].Stand) != 1 || eng.players[1].Stand[0].Type != Apple {
		t.Fatalf("expected merchant 1 to keep the matching apple on their stand, got %+v", eng.players[1].Stand)
	}
	if len(eng.players[1].Bag) != 0 {
		t.Fatalf("bag should be emptied after inspection")
	}

	// Pass merchant 2: truthful, no bribe, goes straight to their own stand.
	eng.Step(map[sdb.PlayerID]sdb.Action{
		sheriff: act("inspect_decision", map[string]any{"decision": "pass"}),
	})
	if len(eng.players[2].Stand) != 2 {
		t.Fatalf("expected merchant 2's two apples on their own stand, got %d", len(eng.players[2].Stand))
	}

	if totalGold() != startingTotal {
		t.Fatalf("total gold not conserved: started %d, now %d", startingTotal, totalGold())
	}
}

// TestInvalidDeclarationDefaultsToApples verifies a malformed or absent
// declaration falls back to "all apples" at the bag's true size rather than
// blocking the round.
func TestInvalidDeclarationDefaultsToApples(t *testing.T) {
	eng := newSheriffEngine(t, 3)
	m1 := sdb.PlayerID(1)
	m2 := sdb.PlayerID(2)
	eng.players[1].Hand = []Card{{Type: Silk}, {Type: Apple}}
	eng.players[2].Hand = []Card{{Type: Bread}}

	noop(eng)
	noop(eng)
	noop(eng)

	eng.Step(map[sdb.PlayerID]sdb.Action{
		m1: act("load_bag", map[string]any{"cards": map[string]any{"silk": 1}}),
		m2: act("load_bag", map[string]any{"cards": map[string]any{"bread": 1}}),
	})

	eng.Step(map[sdb.PlayerID]sdb.Action{
		m1: act("declare", map[string]any{"type": "silk", "count": 1}), // illegal type
		// m2 submits nothing at all
	})

	if got := eng.declared[m1]; got.Type != Apple || got.Count != 1 {
		t.Fatalf("expected m1's illegal declaration to default to apple/1, got %+v", got)
	}
	if got := eng.declared[m2]; got.Type != Apple || got.Count != 1 {
		t.Fatalf("expected m2's missing declaration to default to apple/1, got %+v", got)
	}
}

// TestKingQueenScoringBonuses verifies the strictly-largest and
// strictly-second-largest stand counts of a legal good type earn the
// King/Queen bonuses, and that ties award neither.
func TestKingQueenScoringBonuses(t *testing.T) {
	eng, err := New("m1", 1, 3, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.players = []player{
		{ID: 0, Gold: 0, Stand: []Card{{Type: Apple}, {Type: Apple}, {Type: Apple}}},
		{ID: 1, Gold: 0, Stand: []Card{{Type: Apple}, {Type: Apple}}},
		{ID: 2, Gold: 0, Stand: []Card{{Type: RoyalCheese}}}, // unique in cheese, no contest
	}

	scores := eng.computeScores()
	// player 0: 3 apples * value2 = 6, +kingBonus(10) for most apples = 16
	if scores[0] != 3*goodTable[Apple].Value+kingBonus {
		t.Fatalf("expected player 0 king bonus on apples, got %d", scores[0])
	}
	// player 1: 2 apples * 2 = 4, +queenBonus(5) = 9
	if scores[1] != 2*goodTable[Apple].Value+queenBonus {
		t.Fatalf("expected player 1 queen bonus on apples, got %d", scores[1])
	}
	// player 2: sole cheese-counting holder -> king bonus, no contest for queen
	if scores[2] != goodTable[RoyalCheese].Value+kingBonus {
		t.Fatalf("expected player 2 king bonus on cheese (royal cheese), got %d", scores[2])
	}
}

// TestLoadBagForceFallsBackOnEmptySubmission verifies a merchant who submits
// no bag (or an invalid one) still gets exactly one card sealed so the round
// can proceed.
func TestLoadBagForceFallsBackOnEmptySubmission(t *testing.T) {
	eng := newSheriffEngine(t, 3)
	m1 := sdb.PlayerID(1)
	m2 := sdb.PlayerID(2)
	eng.players[1].Hand = []Card{{Type: Bread}, {Type: Apple}}
	eng.players[2].Hand = []Card{{Type: Cheese}}

	noop(eng)
	noop(eng)
	noop(eng)

	eng.Step(map[sdb.PlayerID]sdb.Action{
		m2: act("load_bag", map[string]any{"cards": map[string]any{"cheese": 1}}),
	})

	if len(eng.players[m1].Bag) != 1 {
		t.Fatalf("expected a forced single-card bag for m1, got %d cards", len(eng.players[m1].Bag))
	}
	if len(eng.players[m1].Hand) != 1 {
		t.Fatalf("expected m1's hand to shrink by exactly one card")
	}
}
