package avalon

import (
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

// autoAct produces a minimally valid action for any phase's actor
// observation. rejectTeam forces every team vote to reject, for exercising
// the five-rejection evil-win rule.
func autoAct(obs sdb.Observation, rejectTeam bool) sdb.Action {
	switch Phase(obs.Phase) {
	case PhaseTeamSelection:
		size, _ := obs.Data["team_size"].(int)
		team := make([]any, size)
		for i := 0; i < size; i++ {
			team[i] = i
		}
		return sdb.Action{Kind: "propose_team", Data: map[string]any{"team": team}}
	case PhaseTeamDiscussion:
		return sdb.Action{Kind: "pass"}
	case PhaseTeamVoting:
		return sdb.Action{Kind: "vote", Data: map[string]any{"approve": !rejectTeam}}
	case PhaseQuestVoting:
		return sdb.Action{Kind: "quest_vote", Data: map[string]any{"success": true}}
	case PhaseAssassination:
		targets, _ := obs.Data["good_targets"].([]int)
		t := 0
		if len(targets) > 0 {
			t = targets[0]
		}
		return sdb.Action{Kind: "assassinate", Data: map[string]any{"target": t}}
	default:
		return sdb.Action{Kind: "noop"}
	}
}

func runStep(e *Engine, obs map[sdb.PlayerID]sdb.Observation, rejectTeam bool) map[sdb.PlayerID]sdb.Observation {
	actions := make(map[sdb.PlayerID]sdb.Action)
	for p, o := range obs {
		if !o.MustAct() {
			continue
		}
		a := autoAct(o, rejectTeam)
		a.Player = p
		actions[p] = a
	}
	newObs, _, _, _ := e.Step(actions)
	return newObs
}

func TestEngineRunsToCompletionWithApprovedTeamsAndSuccessfulQuests(t *testing.T) {
	eng, err := New("m1", 1, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	obs := eng.Reset()

	for i := 0; i < 300 && !eng.Terminal(); i++ {
		obs = runStep(eng, obs, false)
	}

	if !eng.Terminal() {
		t.Fatalf("engine did not terminate within 300 steps")
	}
	if eng.Winner() != "good" && eng.Winner() != "evil" {
		t.Fatalf("unexpected winner %q", eng.Winner())
	}
	res := eng.Result()
	if len(res.PerPlayerStats) != 5 {
		t.Fatalf("expected 5 player stats entries, got %d", len(res.PerPlayerStats))
	}
	if res.WinReason == "" {
		t.Fatalf("expected a non-empty win reason")
	}
}

// TestFiveConsecutiveRejectionsEndsGameForEvil exercises spec.md §8.3's
// concrete Avalon scenario: five straight rejected team proposals hand evil
// the win without a single quest being attempted.
func TestFiveConsecutiveRejectionsEndsGameForEvil(t *testing.T) {
	eng, err := New("m2", 2, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	obs := eng.Reset()

	for i := 0; i < 100 && !eng.Terminal(); i++ {
		obs = runStep(eng, obs, true)
	}

	if !eng.Terminal() {
		t.Fatalf("expected game to end after 5 consecutive rejections")
	}
	if eng.Winner() != "evil" {
		t.Fatalf("expected evil to win on 5 rejections, got %q", eng.Winner())
	}
	if eng.WinReason() != "5 consecutive team rejections" {
		t.Fatalf("unexpected win reason %q", eng.WinReason())
	}
	if len(eng.questResults) != 0 {
		t.Fatalf("expected no quests to have been attempted, got %d", len(eng.questResults))
	}
}

// TestQuestResultsSumMatchesSuccessAndFailCounts exercises the round-trip
// invariant: quests_succeeded + quests_failed always equals the number of
// recorded quest results.
func TestQuestResultsSumMatchesSuccessAndFailCounts(t *testing.T) {
	eng, err := New("m3", 3, 7)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	obs := eng.Reset()

	for i := 0; i < 300 && !eng.Terminal(); i++ {
		obs = runStep(eng, obs, false)
	}
	if !eng.Terminal() {
		t.Fatalf("engine did not terminate within 300 steps")
	}
	if eng.questsSucceeded+eng.questsFailed != len(eng.questResults) {
		t.Fatalf("invariant violated: %d + %d != %d", eng.questsSucceeded, eng.questsFailed, len(eng.questResults))
	}
}

func TestFailsNeededTableMatchesSpec(t *testing.T) {
	cases := []struct {
		numPlayers, questIndex, want int
	}{
		{5, 3, 1},
		{6, 3, 1},
		{7, 3, 2},
		{10, 3, 2},
		{7, 0, 1},
		{7, 4, 1},
	}
	for _, c := range cases {
		got := failsNeeded(c.numPlayers, c.questIndex)
		if got != c.want {
			t.Errorf("failsNeeded(%d, %d) = %d, want %d", c.numPlayers, c.questIndex, got, c.want)
		}
	}
}

func TestRoleSetCountsMatchPlayerCount(t *testing.T) {
	wantEvil := map[int]int{5: 2, 6: 2, 7: 3, 8: 3, 9: 3, 10: 4}
	for n := 5; n <= 10; n++ {
		roles := roleSet(n)
		if len(roles) != n {
			t.Fatalf("roleSet(%d) has %d roles, want %d", n, len(roles), n)
		}
		evil := 0
		for _, r := range roles {
			if alignmentOf(r) == Evil {
				evil++
			}
		}
		if evil != wantEvil[n] {
			t.Fatalf("roleSet(%d) has %d evil roles, want %d", n, evil, wantEvil[n])
		}
	}
}

func TestMerlinNeverSeesMordred(t *testing.T) {
	eng, err := New("m4", 4, 7)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()

	var merlin sdb.PlayerID = -1
	var mordred sdb.PlayerID = -1
	for _, p := range eng.players {
		if p.Role == RoleMerlin {
			merlin = p.ID
		}
		if p.Role == RoleMordred {
			mordred = p.ID
		}
	}
	if merlin == -1 || mordred == -1 {
		t.Fatalf("expected both Merlin and Mordred in a 7-player game")
	}
	for _, id := range eng.merlinView() {
		if id == mordred {
			t.Fatalf("Merlin's view leaked Mordred's identity")
		}
	}
}
