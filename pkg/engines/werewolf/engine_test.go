package werewolf

import (
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

func act(kind string, data map[string]any) sdb.Action {
	return sdb.Action{Kind: kind, Data: data}
}

// TestOneWerewolfTwoVillagersScenario reproduces spec.md §8.3's concrete
// Werewolf scenario: a night kill, a tied day vote with no elimination, a
// second night kill, and a werewolves-win ending.
func TestOneWerewolfTwoVillagersScenario(t *testing.T) {
	eng, err := New("m1", 1, 3, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()

	// Force the no-seer/no-doctor 1-wolf/2-villager composition the
	// scenario describes.
	eng.players = []player{
		{ID: 0, Role: RoleWerewolf, Alive: true},
		{ID: 1, Role: RoleVillager, Alive: true},
		{ID: 2, Role: RoleVillager, Alive: true},
	}
	for _, p := range eng.players {
		eng.stats[p.ID] = &sdb.PlayerStats{Role: string(p.Role), Alive: true}
	}

	// Night 1: werewolf targets villager 1.
	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		0: act("kill_target", map[string]any{"target": 1}),
	})
	if done {
		t.Fatalf("game ended prematurely after first night kill")
	}
	if eng.isAlive(1) {
		t.Fatalf("villager 1 should have died")
	}
	if eng.phase != PhaseDayBidding {
		t.Fatalf("expected DayBidding, got %s", eng.phase)
	}

	// Day bidding: wolf (0) and villager 2 both bid.
	_, _, done, _ = eng.Step(map[sdb.PlayerID]sdb.Action{
		0: act("bid", map[string]any{"value": 4}),
		2: act("bid", map[string]any{"value": 0}),
	})
	if done || eng.phase != PhaseDayDebate {
		t.Fatalf("expected DayDebate, got phase=%s done=%v", eng.phase, done)
	}
	speaker := eng.currentSpeaker()

	// Debate: the speaker's one statement closes debate (maxDebateTurns=1).
	_, _, done, _ = eng.Step(map[sdb.PlayerID]sdb.Action{
		speaker: act("statement", map[string]any{"text": "it wasn't me"}),
	})
	if done || eng.phase != PhaseDayVoting {
		t.Fatalf("expected DayVoting, got phase=%s done=%v", eng.phase, done)
	}

	// Day voting: wolf and villager 2 vote for each other -> tie -> no elimination.
	_, _, done, _ = eng.Step(map[sdb.PlayerID]sdb.Action{
		0: act("vote", map[string]any{"target": 2}),
		2: act("vote", map[string]any{"target": 0}),
	})
	if done {
		t.Fatalf("game ended after a tied vote, expected no elimination")
	}
	if !eng.isAlive(0) || !eng.isAlive(2) {
		t.Fatalf("a tied vote must not eliminate anyone")
	}
	if eng.phase != PhaseNightWerewolf {
		t.Fatalf("expected a second NightWerewolf phase, got %s", eng.phase)
	}

	// Night 2: werewolf targets villager 2, the last non-wolf standing.
	_, _, done, _ = eng.Step(map[sdb.PlayerID]sdb.Action{
		0: act("kill_target", map[string]any{"target": 2}),
	})
	if !done {
		t.Fatalf("expected game to end once villagers reach 0")
	}
	if eng.Winner() != "werewolves" {
		t.Fatalf("expected werewolves to win, got %q", eng.Winner())
	}
}

func TestPickSpeakerExcludesLastSpeakerFromBidding(t *testing.T) {
	eng, err := New("m2", 2, 5, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()
	eng.lastSpeaker, eng.hasLastSpeaker = 1, true
	eng.phase = PhaseDayBidding

	obs := eng.Observations()
	for id, o := range obs {
		if id == 1 && o.MustAct() {
			t.Fatalf("last speaker should not be asked to bid this round")
		}
	}
}

func TestEliminationCountInvariant(t *testing.T) {
	eng, err := New("m3", 3, 6, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	obs := eng.Reset()

	for i := 0; i < 500 && !eng.Terminal(); i++ {
		actions := make(map[sdb.PlayerID]sdb.Action)
		for p, o := range obs {
			if !o.MustAct() {
				continue
			}
			actions[p] = autoAct(eng, p, o)
		}
		obs, _, _, _ = eng.Step(actions)
	}
	if !eng.Terminal() {
		t.Fatalf("engine did not terminate within 500 steps")
	}

	eliminated := 0
	for _, ev := range eng.Events() {
		if ev.Kind == sdb.EventPlayerEliminated {
			eliminated++
		}
	}
	alive := len(eng.alivePlayers())
	if eliminated != eng.numPlayers-alive {
		t.Fatalf("elimination count invariant violated: %d eliminations, %d-%d alive", eliminated, eng.numPlayers, alive)
	}
}

func autoAct(eng *Engine, p sdb.PlayerID, obs sdb.Observation) sdb.Action {
	switch Phase(obs.Phase) {
	case PhaseNightWerewolf:
		targets, _ := obs.Data["eligible_targets"].([]int)
		t := 0
		if len(targets) > 0 {
			t = targets[0]
		}
		return sdb.Action{Kind: "kill_target", Data: map[string]any{"target": t}}
	case PhaseNightDoctor:
		return sdb.Action{Kind: "protect", Data: map[string]any{"target": int(p)}}
	case PhaseNightSeer:
		targets, _ := obs.Data["eligible_targets"].([]int)
		t := 0
		if len(targets) > 0 {
			t = targets[0]
		}
		return sdb.Action{Kind: "investigate", Data: map[string]any{"target": t}}
	case PhaseDayBidding:
		return sdb.Action{Kind: "bid", Data: map[string]any{"value": 1}}
	case PhaseDayDebate:
		return sdb.Action{Kind: "statement", Data: map[string]any{"text": "I'm not sure yet"}}
	case PhaseDayVoting:
		targets, _ := obs.Data["eligible_targets"].([]int)
		t := 0
		if len(targets) > 0 {
			t = targets[0]
		}
		return sdb.Action{Kind: "vote", Data: map[string]any{"target": t}}
	default:
		return sdb.Action{Kind: "noop"}
	}
}
