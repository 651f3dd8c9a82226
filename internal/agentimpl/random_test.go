package agentimpl

import (
	"context"
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

func TestRandomAgentPassivePhaseReturnsEmptyAction(t *testing.T) {
	a := NewRandomAgent(6, 1)
	action, err := a.Act(context.Background(), sdb.Observation{
		Player: 3, Phase: "GameOver", Data: map[string]any{"type": "observe"},
	})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if action.Kind != "" {
		t.Fatalf("expected no-op action on an observe step, got %+v", action)
	}
}

func TestRandomAgentUsesHintedTargets(t *testing.T) {
	a := NewRandomAgent(6, 42)
	obs := sdb.Observation{
		Player: 0, Phase: "ElectionNomination",
		Data: map[string]any{"type": "act", "legal_nominees": []int{2, 4}},
	}
	for i := 0; i < 20; i++ {
		action, err := a.Act(context.Background(), obs)
		if err != nil {
			t.Fatalf("Act: %v", err)
		}
		target := action.Data["target"].(int)
		if target != 2 && target != 4 {
			t.Fatalf("target %d outside hinted set {2,4}", target)
		}
	}
}

func TestRandomAgentTeamProposalHasRequestedSize(t *testing.T) {
	a := NewRandomAgent(7, 7)
	action, err := a.Act(context.Background(), sdb.Observation{
		Player: 1, Phase: "TeamSelection",
		Data: map[string]any{"type": "act", "team_size": 3},
	})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	team := action.Data["team"].([]int)
	if len(team) != 3 {
		t.Fatalf("expected team of size 3, got %v", team)
	}
	seen := map[int]bool{}
	for _, id := range team {
		if id < 0 || id >= 7 {
			t.Fatalf("team member %d out of range", id)
		}
		if seen[id] {
			t.Fatalf("duplicate team member %d", id)
		}
		seen[id] = true
	}
}
