package tournament

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempSchedule(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	return path
}

func TestLoadScheduleParsesMatches(t *testing.T) {
	path := writeTempSchedule(t, `
tournament_id: demo
max_concurrent_games: 2
matches:
  - game: secrethitler
    players:
      - type: random
      - type: random
      - type: random
      - type: random
      - type: random
    seed: 42
  - match_id: custom-id
    game: avalon
    players:
      - type: random
      - type: random
      - type: random
      - type: random
      - type: random
`)

	sched, err := LoadSchedule(path)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if sched.TournamentID != "demo" {
		t.Fatalf("expected tournament_id demo, got %q", sched.TournamentID)
	}
	if len(sched.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(sched.Matches))
	}
	if sched.Matches[0].MatchID != "demo-0" {
		t.Fatalf("expected auto-generated match_id demo-0, got %q", sched.Matches[0].MatchID)
	}
	if sched.Matches[1].MatchID != "custom-id" {
		t.Fatalf("expected explicit match_id to survive, got %q", sched.Matches[1].MatchID)
	}
	if len(sched.Matches[0].Players) != 5 {
		t.Fatalf("expected 5 players, got %d", len(sched.Matches[0].Players))
	}
}

func TestLoadScheduleExpandsRoundRobin(t *testing.T) {
	path := writeTempSchedule(t, `
tournament_id: rr-demo
round_robin:
  - game: werewolf
    games_per_pairing: 3
    players:
      - type: random
      - type: random
      - type: random
      - type: random
      - type: random
`)

	sched, err := LoadSchedule(path)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if len(sched.Matches) != 3 {
		t.Fatalf("expected 3 generated matches, got %d", len(sched.Matches))
	}
	seen := map[string]bool{}
	for _, m := range sched.Matches {
		if m.Game != "werewolf" {
			t.Fatalf("expected game werewolf, got %q", m.Game)
		}
		if len(m.Players) != 5 {
			t.Fatalf("expected 5 players, got %d", len(m.Players))
		}
		if seen[m.MatchID] {
			t.Fatalf("duplicate match id %q", m.MatchID)
		}
		seen[m.MatchID] = true
	}
}

func TestLoadScheduleRejectsEmptySchedule(t *testing.T) {
	path := writeTempSchedule(t, "tournament_id: empty\nmatches: []\n")
	if _, err := LoadSchedule(path); err == nil {
		t.Fatal("expected an error for a schedule with no matches")
	}
}

func TestLoadScheduleRejectsMissingGame(t *testing.T) {
	path := writeTempSchedule(t, `
tournament_id: bad
matches:
  - players:
      - type: random
`)
	if _, err := LoadSchedule(path); err == nil {
		t.Fatal("expected an error for a match missing its game field")
	}
}

func TestLoadScheduleMissingFile(t *testing.T) {
	if _, err := LoadSchedule(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a nonexistent schedule file")
	}
}
