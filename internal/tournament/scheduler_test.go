package tournament

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fivePlayerSpec(matchID, game string, seed int64) MatchSpec {
	players := make([]PlayerRef, 5)
	for i := range players {
		players[i] = PlayerRef{Type: "random"}
	}
	return MatchSpec{MatchID: matchID, Game: game, Players: players, Seed: seed}
}

func TestSchedulerRunsMatchesToCompletion(t *testing.T) {
	sched := &Schedule{
		TournamentID:       "t1",
		MaxConcurrentGames: 2,
		Matches: []MatchSpec{
			fivePlayerSpec("t1-0", "secrethitler", 1),
			fivePlayerSpec("t1-1", "avalon", 2),
		},
	}

	sch := &Scheduler{
		MaxConcurrentGames: 2,
		MaxSteps:           2000,
		AgentTimeout:       time.Second,
		OutputDir:          t.TempDir(),
		Log:                zerolog.Nop(),
	}

	report, err := sch.Run(context.Background(), sched, "config-snapshot")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TotalMatches != 2 {
		t.Fatalf("expected 2 total matches, got %d", report.TotalMatches)
	}
	if len(report.Matches) != 2 {
		t.Fatalf("expected 2 result entries, got %d", len(report.Matches))
	}
	for _, res := range report.Matches {
		if res.Winner == "" {
			t.Errorf("match %s finished with no winner recorded", res.MatchID)
		}
	}
	for _, game := range []string{"secrethitler", "avalon"} {
		if len(report.WinRateByGame[game]) == 0 {
			t.Errorf("expected a win-rate breakdown entry for %s, got %+v", game, report.WinRateByGame)
		}
	}

	entries, err := os.ReadDir(sch.OutputDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected per-match event logs and a progress log to be written")
	}
}

func TestSchedulerIsolatesUnknownGame(t *testing.T) {
	sched := &Schedule{
		TournamentID: "t2",
		Matches: []MatchSpec{
			{MatchID: "bad-0", Game: "not-a-real-game", Players: []PlayerRef{{Type: "random"}, {Type: "random"}}},
		},
	}
	sch := &Scheduler{MaxConcurrentGames: 1, MaxSteps: 100, Log: zerolog.Nop()}

	report, err := sch.Run(context.Background(), sched, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.FailedMatches != 1 {
		t.Fatalf("expected 1 failed match, got %d", report.FailedMatches)
	}
	if report.Matches[0].Outcome != "failed" {
		t.Fatalf("expected outcome 'failed', got %q", report.Matches[0].Outcome)
	}
}

func TestSchedulerRejectsEmptySchedule(t *testing.T) {
	sch := &Scheduler{MaxConcurrentGames: 1, Log: zerolog.Nop()}
	if _, err := sch.Run(context.Background(), &Schedule{}, ""); err == nil {
		t.Fatal("expected an error for an empty schedule")
	}
}
