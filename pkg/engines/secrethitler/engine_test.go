package secrethitler

import (
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

// autoAct produces a minimally valid action for any phase's actor
// observation, always picking the first legal/eligible option except for
// voting, which is parameterized so tests can force pass/fail sequences.
func autoAct(obs sdb.Observation, voteJa bool) sdb.Action {
	switch Phase(obs.Phase) {
	case PhaseNomination:
		legal, _ := obs.Data["legal_nominees"].([]int)
		t := 0
		if len(legal) > 0 {
			t = legal[0]
		}
		return sdb.Action{Kind: "nominate", Data: map[string]any{"target": t}}
	case PhaseDiscussion:
		return sdb.Action{Kind: "pass"}
	case PhaseVoting:
		return sdb.Action{Kind: "vote", Data: map[string]any{"ja": voteJa}}
	case PhaseLegislativePresident:
		return sdb.Action{Kind: "discard", Data: map[string]any{"discard_index": 0}}
	case PhaseLegislativeChancellor:
		return sdb.Action{Kind: "enact", Data: map[string]any{"enact_index": 0}}
	case PhaseVetoResponse:
		return sdb.Action{Kind: "veto_response", Data: map[string]any{"accept": false}}
	case PhasePower:
		eligible, _ := obs.Data["eligible_targets"].([]int)
		t := 0
		if len(eligible) > 0 {
			t = eligible[0]
		}
		return sdb.Action{Kind: "power_target", Data: map[string]any{"target": t}}
	default:
		return sdb.Action{Kind: "noop"}
	}
}

func runStep(e *Engine, obs map[sdb.PlayerID]sdb.Observation, voteJa bool) map[sdb.PlayerID]sdb.Observation {
	actions := make(map[sdb.PlayerID]sdb.Action)
	for p, o := range obs {
		if !o.MustAct() {
			continue
		}
		a := autoAct(o, voteJa)
		a.Player = p
		actions[p] = a
	}
	newObs, _, _, _ := e.Step(actions)
	return newObs
}

func TestEngineRunsToCompletionWithUnanimousJa(t *testing.T) {
	eng, err := New("m1", 7, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	obs := eng.Reset()

	for i := 0; i < 300 && !eng.Terminal(); i++ {
		obs = runStep(eng, obs, true)
	}

	if !eng.Terminal() {
		t.Fatalf("engine did not terminate within 300 steps")
	}
	if eng.Winner() != "liberal" && eng.Winner() != "fascist" {
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

// TestElectionTrackerNeverStuckAtThree exercises spec.md's election-tracker
// reset invariant: a chaos enactment (or any passed election) always resets
// the tracker before the step returns, so it is never observed at 3.
func TestElectionTrackerNeverStuckAtThree(t *testing.T) {
	eng, err := New("m2", 11, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	obs := eng.Reset()

	for i := 0; i < 20 && !eng.Terminal(); i++ {
		obs = runStep(eng, obs, false)
		if eng.electionTracker >= 3 {
			t.Fatalf("election tracker left at %d after step %d", eng.electionTracker, i)
		}
	}
}

func TestLegalNomineesExcludeOutgoingPresidentAndChancellorAboveFive(t *testing.T) {
	eng, err := New("m3", 3, 7)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()

	pres := sdb.PlayerID(0)
	chan_ := sdb.PlayerID(1)
	eng.lastPresident = &pres
	eng.lastChancellor = &chan_
	eng.presidentIdx = 2 // president() picks alivePlayers()[2], distinct from pres/chan_

	legal := eng.legalNominees()
	for _, id := range legal {
		if id == pres {
			t.Fatalf("outgoing president %d must not be a legal nominee above 5 alive players", pres)
		}
		if id == chan_ {
			t.Fatalf("outgoing chancellor %d must never be a legal nominee", chan_)
		}
	}
}

func TestPresidentialPowerTableMatchesPlayerCountBands(t *testing.T) {
	cases := []struct {
		numPlayers, fascistCount int
		want                     Power
	}{
		{5, 3, PowerPolicyPeek},
		{6, 2, PowerNone},
		{7, 2, PowerInvestigate},
		{8, 3, PowerSpecialElection},
		{9, 1, PowerInvestigate},
		{10, 1, PowerInvestigate},
	}
	for _, c := range cases {
		got := presidentialPowerTable(c.numPlayers, c.fascistCount)
		if got != c.want {
			t.Errorf("presidentialPowerTable(%d, %d) = %q, want %q", c.numPlayers, c.fascistCount, got, c.want)
		}
	}
}

func TestRoleDistributionCounts(t *testing.T) {
	for n := 5; n <= 10; n++ {
		libs, fascists := roleDistribution(n)
		if libs+fascists+1 != n {
			t.Errorf("roleDistribution(%d) = (%d,%d), total %d != %d", n, libs, fascists, libs+fascists+1, n)
		}
	}
}

func TestHitlerExecutionEndsGameImmediately(t *testing.T) {
	eng, err := New("m4", 5, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()

	hitler := eng.hitlerID()
	for i, id := range eng.alivePlayers() {
		if id != hitler {
			eng.presidentIdx = i
			break
		}
	}
	eng.pendingPower = PowerExecution
	eng.phase = PhasePower

	pres := eng.president()
	actions := map[sdb.PlayerID]sdb.Action{
		pres: {Kind: "power_target", Data: map[string]any{"target": int(hitler)}},
	}
	eng.Step(actions)

	if !eng.Terminal() {
		t.Fatalf("expected game to end immediately on Hitler's execution")
	}
	if eng.Winner() != "liberal" {
		t.Fatalf("expected liberal win, got %q", eng.Winner())
	}
}
