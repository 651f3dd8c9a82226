package spyfall

import (
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

func act(kind string, data map[string]any) sdb.Action {
	return sdb.Action{Kind: kind, Data: data}
}

// TestSpyCorrectGuessScenario reproduces spec.md §8.3's concrete Spyfall
// scenario: the spy uses its one-shot guess with the correct location
// before any accusation, winning immediately with a score of 2.
func TestSpyCorrectGuessScenario(t *testing.T) {
	eng, err := New("m1", 1, 4, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()

	spy := eng.spyID()
	eng.location = "Casino"

	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		spy: act("guess_location", map[string]any{"location": "Casino"}),
	})
	if !done {
		t.Fatalf("expected game to end on correct spy guess")
	}
	if eng.winner != "spy" {
		t.Fatalf("expected spy to win, got %q", eng.winner)
	}
	if eng.winReason != "spy voluntarily guessed the location correctly before any accusation" {
		t.Fatalf("unexpected win reason: %q", eng.winReason)
	}

	scores := eng.finalScores()
	if scores[spy] != 2 {
		t.Fatalf("expected spy score 2, got %v", scores[spy])
	}
	for _, p := range eng.nonSpies() {
		if scores[p] != 0 {
			t.Fatalf("expected non-spy %d score 0, got %v", p, scores[p])
		}
	}
}

// TestSpyIncorrectGuessLosesOneShot verifies a wrong spy guess burns the
// one-shot ability and hands the win to the non-spies.
func TestSpyIncorrectGuessLosesOneShot(t *testing.T) {
	eng, err := New("m2", 2, 4, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()
	spy := eng.spyID()
	eng.location = "Hospital"

	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		spy: act("guess_location", map[string]any{"location": "Casino"}),
	})
	if !done {
		t.Fatalf("expected game to end on incorrect spy guess")
	}
	if eng.winner != "non-spies" {
		t.Fatalf("expected non-spies to win, got %q", eng.winner)
	}
}

// TestAccusationIdentifiesSpy verifies a unanimous accusation against the
// spy ends the game in the non-spies' favor.
func TestAccusationIdentifiesSpy(t *testing.T) {
	eng, err := New("m3", 3, 4, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()
	spy := eng.spyID()

	var accuser sdb.PlayerID = -1
	for _, p := range eng.nonSpies() {
		accuser = p
		break
	}
	if accuser == -1 {
		t.Fatalf("no non-spy found")
	}

	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		accuser: act("accuse", map[string]any{"target": int(spy)}),
	})
	if done {
		t.Fatalf("accusation should open a vote, not end the game directly")
	}
	if eng.phase != PhaseAccusationVote {
		t.Fatalf("expected AccusationVote, got %s", eng.phase)
	}

	votes := map[sdb.PlayerID]sdb.Action{}
	for _, v := range eng.voters(eng.suspect) {
		votes[v] = act("vote", map[string]any{"guilty": true})
	}
	_, _, done, _ = eng.Step(votes)
	if !done {
		t.Fatalf("expected unanimous accusation to end the game")
	}
	if eng.winner != "non-spies" {
		t.Fatalf("expected non-spies to win, got %q", eng.winner)
	}
}

// TestAccusationOneShot checks the one-shot accusation ability
// cannot be reused once spent.
func TestAccusationOneShot(t *testing.T) {
	eng, err := New("m4", 4, 5, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()
	var accuser, victim sdb.PlayerID = -1, -1
	for _, p := range eng.nonSpies() {
		if accuser == -1 {
			accuser = p
		} else if victim == -1 && p != eng.spyID() {
			victim = p
			break
		}
	}

	// First accusation opens a vote against a non-spy; it fails (not
	// unanimous), returning to Q&A with the accusation ability spent.
	votersDeny := func() map[sdb.PlayerID]sdb.Action {
		m := map[sdb.PlayerID]sdb.Action{}
		for _, v := range eng.voters(eng.suspect) {
			m[v] = act("vote", map[string]any{"guilty": false})
		}
		return m
	}

	eng.Step(map[sdb.PlayerID]sdb.Action{
		accuser: act("accuse", map[string]any{"target": int(victim)}),
	})
	if eng.phase != PhaseAccusationVote {
		t.Fatalf("expected AccusationVote, got %s", eng.phase)
	}
	eng.Step(votersDeny())
	if eng.phase != PhaseQandA {
		t.Fatalf("expected return to QandA after failed accusation, got %s", eng.phase)
	}
	if !eng.players[accuser].Accused {
		t.Fatalf("accuser's one-shot ability should be marked spent")
	}
}
