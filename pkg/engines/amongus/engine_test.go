package amongus

import (
	"testing"

	"github.com/sdbench/sdb/pkg/sdb"
)

func act(kind string, data map[string]any) sdb.Action {
	return sdb.Action{Kind: kind, Data: data}
}

func newFixedEngine(t *testing.T, numPlayers, numImpostors int, fixed map[sdb.PlayerID]Role) *Engine {
	t.Helper()
	eng, err := New("m1", 1, Config{NumPlayers: numPlayers, NumImpostors: numImpostors, TasksPerPlayer: 3, FixedRoles: fixed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Reset()
	return eng
}

// TestKillEscapeViaMove reproduces spec.md §8.3's concrete Among Us
// scenario: the victim moves away in the same step the impostor attempts
// the kill. Moves resolve first, so the kill fails with
// TARGET_DIFFERENT_ROOM, no meeting triggers, and the impostor's cooldown
// is unaffected.
func TestKillEscapeViaMove(t *testing.T) {
	eng := newFixedEngine(t, 5, 1, map[sdb.PlayerID]Role{0: RoleImpostor})
	impostor := sdb.PlayerID(0)
	victim := sdb.PlayerID(1)

	eng.players[impostor].Location = Cafeteria
	eng.players[victim].Location = Cafeteria

	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		impostor: act("kill", map[string]any{"target": int(victim)}),
		victim:   act("move", map[string]any{"room": string(Weapons)}),
	})

	if done {
		t.Fatalf("game should not end from a failed kill")
	}
	if !eng.alive(victim) {
		t.Fatalf("victim should have escaped the kill")
	}
	if eng.players[impostor].Cooldown != 0 {
		t.Fatalf("cooldown should be unaffected by a failed kill, got %d", eng.players[impostor].Cooldown)
	}
	if eng.phase != PhaseTask {
		t.Fatalf("no meeting should trigger from a failed kill, got phase %s", eng.phase)
	}

	errFound := false
	for _, ev := range eng.Events() {
		if ev.Kind == sdb.EventError {
			if code, _ := ev.Data["code"].(string); code == codeTargetDifferentRoom {
				errFound = true
			}
		}
	}
	if !errFound {
		t.Fatalf("expected a TARGET_DIFFERENT_ROOM error event")
	}
}

// TestSuccessfulKillAndReportTriggersMeeting verifies a same-room kill
// succeeds, and that a later body report by another player opens a meeting.
func TestSuccessfulKillAndReportTriggersMeeting(t *testing.T) {
	eng := newFixedEngine(t, 5, 1, map[sdb.PlayerID]Role{0: RoleImpostor})
	impostor := sdb.PlayerID(0)
	victim := sdb.PlayerID(1)
	witness := sdb.PlayerID(2)

	eng.players[impostor].Location = Cafeteria
	eng.players[victim].Location = Cafeteria
	eng.players[witness].Location = Weapons

	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		impostor: act("kill", map[string]any{"target": int(victim)}),
	})
	if done {
		t.Fatalf("single kill should not end the game with 3 living crewmates")
	}
	if eng.alive(victim) {
		t.Fatalf("victim should be dead")
	}
	if eng.players[victim].Location != Cafeteria {
		t.Fatalf("corpse should remain at the death room, got %s", eng.players[victim].Location)
	}

	// witness moves to the corpse's room, then reports next step.
	eng.Step(map[sdb.PlayerID]sdb.Action{
		witness: act("move", map[string]any{"room": string(Cafeteria)}),
	})
	_, _, _, _ = eng.Step(map[sdb.PlayerID]sdb.Action{
		witness: act("report_body", nil),
	})
	if eng.phase != PhaseDiscussion {
		t.Fatalf("expected Discussion after valid report, got %s", eng.phase)
	}
}

// TestEmergencyRejectedWhenReportSubmitted verifies report-over-emergency
// precedence within the same step.
func TestEmergencyRejectedWhenReportSubmitted(t *testing.T) {
	eng := newFixedEngine(t, 6, 1, map[sdb.PlayerID]Role{0: RoleImpostor})
	impostor := sdb.PlayerID(0)
	victim := sdb.PlayerID(1)
	reporter := sdb.PlayerID(2)
	caller := sdb.PlayerID(3)

	eng.players[impostor].Location = Security
	eng.players[victim].Location = Security
	eng.players[reporter].Location = Security
	eng.players[caller].Location = Cafeteria

	eng.Step(map[sdb.PlayerID]sdb.Action{
		impostor: act("kill", map[string]any{"target": int(victim)}),
	})

	_, _, _, _ = eng.Step(map[sdb.PlayerID]sdb.Action{
		reporter: act("report_body", nil),
		caller:   act("call_meeting", nil),
	})
	if eng.phase != PhaseDiscussion {
		t.Fatalf("expected report to win precedence and open Discussion, got %s", eng.phase)
	}
	if eng.players[caller].EmergencyUsed {
		t.Fatalf("rejected emergency call should not consume the one-shot ability")
	}

	found := false
	for _, ev := range eng.Events() {
		if ev.Kind == sdb.EventError {
			if code, _ := ev.Data["code"].(string); code == codeReportPrecedence {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected a REPORT_TAKES_PRECEDENCE error event")
	}
}

// TestImpostorsWinOnParity verifies the living-impostors >= living-crewmates
// win condition fires immediately after a kill.
func TestImpostorsWinOnParity(t *testing.T) {
	eng := newFixedEngine(t, 4, 1, map[sdb.PlayerID]Role{0: RoleImpostor})
	impostor := sdb.PlayerID(0)
	v1 := sdb.PlayerID(1)
	v2 := sdb.PlayerID(2)
	v3 := sdb.PlayerID(3)
	eng.players[impostor].Location = Cafeteria
	eng.players[v1].Location = Cafeteria
	eng.players[v2].Location = Weapons
	eng.players[v3].Alive = false

	_, _, done, _ := eng.Step(map[sdb.PlayerID]sdb.Action{
		impostor: act("kill", map[string]any{"target": int(v1)}),
	})
	// After the kill: 1 impostor alive, 1 crewmate alive (v2; v3 was already dead) -> parity.
	if !done {
		t.Fatalf("1 impostor vs 1 remaining crewmate should end the game on parity")
	}
	if eng.winner != "impostors" {
		t.Fatalf("expected impostors to win, got %q", eng.winner)
	}
}
