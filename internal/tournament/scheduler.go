package tournament

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/sdbench/sdb/internal/agentimpl"
	"github.com/sdbench/sdb/internal/authz"
	"github.com/sdbench/sdb/internal/hub"
	"github.com/sdbench/sdb/internal/match"
	"github.com/sdbench/sdb/internal/registry"
	"github.com/sdbench/sdb/internal/repository"
	"github.com/sdbench/sdb/internal/repository/rediscache"
	"github.com/sdbench/sdb/pkg/sdb"
)

// Scheduler runs a Schedule's matches, at most MaxConcurrentGames at a time,
// and aggregates their results.
//
// A fixed-size semaphore bounds in-flight games, a wait group tracks
// completion, and a mutex guards the shared results slice. The semaphore is
// golang.org/x/sync/semaphore.Weighted so the cap composes with ctx
// cancellation the same way internal/match's errgroup does.
type Scheduler struct {
	MaxConcurrentGames int
	MaxSteps           int
	AgentTimeout       time.Duration
	OutputDir          string
	Results            repository.ResultsRepository // optional; nil skips persistence
	Cache              *rediscache.Client            // optional; nil skips live-state caching and operator cancellation
	JWTMgr             *authz.JWTManager              // optional; nil leaves HTTPAgent calls unauthenticated
	OAuth              *authz.ProviderTokenSource      // optional; takes precedence over JWTMgr when set
	Hub                *hub.Hub                        // optional; nil skips spectator broadcast
	Log                zerolog.Logger

	progressMu sync.Mutex
	progress   *os.File
}

// Report is the per-tournament aggregate of spec.md §6.5.
type Report struct {
	ConfigSnapshot    string           `json:"config_snapshot"`
	StartTime         time.Time        `json:"start_time"`
	EndTime           time.Time        `json:"end_time"`
	TotalMatches      int              `json:"total_matches"`
	SuccessfulMatches int              `json:"successful_matches"`
	FailedMatches     int              `json:"failed_matches"`
	Matches           []sdb.GameResult `json:"matches"`

	// WinRateByGame breaks wins down per game family and winning
	// team/role (e.g. "avalon": {"good": 3, "evil": 2}), recovered from
	// the Python original's per-game-family metrics rather than the flat
	// success ratio above.
	WinRateByGame map[string]map[string]int `json:"win_rate_by_game"`
}

// computeWinRateByGame tallies each completed match's winner, grouped by
// game family, over every result that reached a decisive outcome.
func computeWinRateByGame(results []sdb.GameResult) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, r := range results {
		if r.Outcome != string(match.OutcomeWin) && r.Outcome != string(match.OutcomeDraw) {
			continue
		}
		if out[r.Game] == nil {
			out[r.Game] = make(map[string]int)
		}
		out[r.Game][r.Winner]++
	}
	return out
}

// Run executes every match in sched under the configured concurrency cap and
// returns the aggregate Report. A per-match failure (panic recovered, engine
// construction error) is isolated into that match's result and never aborts
// the tournament.
func (s *Scheduler) Run(ctx context.Context, sched *Schedule, configSnapshot string) (*Report, error) {
	if sched == nil || len(sched.Matches) == 0 {
		return nil, fmt.Errorf("tournament: empty schedule")
	}
	concurrency := s.MaxConcurrentGames
	if concurrency <= 0 {
		concurrency = 1
	}
	if s.OutputDir != "" {
		if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("tournament: create output dir: %w", err)
		}
		f, err := os.Create(filepath.Join(s.OutputDir, sched.TournamentID+".progress.log"))
		if err != nil {
			return nil, fmt.Errorf("tournament: create progress log: %w", err)
		}
		s.progress = f
		defer f.Close()
	}

	report := &Report{
		ConfigSnapshot: configSnapshot,
		StartTime:      time.Now(),
		TotalMatches:   len(sched.Matches),
		Matches:        make([]sdb.GameResult, len(sched.Matches)),
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex
	running := make(map[string]bool)

	for i, m := range sched.Matches {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled while waiting for a slot: every match still
			// queued is recorded as cancelled rather than simply dropped.
			mu.Lock()
			report.Matches[i] = sdb.GameResult{MatchID: m.MatchID, Game: m.Game, Outcome: string(match.OutcomeCancelled)}
			report.FailedMatches++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(idx int, spec MatchSpec) {
			defer wg.Done()
			defer sem.Release(1)

			mu.Lock()
			running[spec.MatchID] = true
			snapshot := runningNames(running)
			mu.Unlock()
			s.logProgress("started match=%s game=%s", spec.MatchID, spec.Game)
			s.snapshotProgress(snapshot)

			result := s.runOne(ctx, spec)

			mu.Lock()
			delete(running, spec.MatchID)
			snapshot = runningNames(running)
			report.Matches[idx] = result
			if result.Outcome == string(match.OutcomeWin) || result.Outcome == string(match.OutcomeDraw) {
				report.SuccessfulMatches++
			} else {
				report.FailedMatches++
			}
			mu.Unlock()

			s.logProgress("completed match=%s outcome=%s winner=%s", spec.MatchID, result.Outcome, result.Winner)
			s.snapshotProgress(snapshot)

			if s.Results != nil {
				if err := s.Results.SaveMatchResult(ctx, sched.TournamentID, result); err != nil {
					s.Log.Warn().Err(err).Str("matchId", spec.MatchID).Msg("failed to persist match result")
				}
			}
			if s.Hub != nil {
				s.Hub.BroadcastTournament(hub.WSEvent{Type: hub.EventMatchEnded, MatchID: spec.MatchID, Data: result})
			}
		}(i, m)
	}

	wg.Wait()
	report.EndTime = time.Now()
	report.WinRateByGame = computeWinRateByGame(report.Matches)

	if s.Results != nil {
		if err := s.Results.SaveTournamentReport(ctx, repository.TournamentReport{
			TournamentID:      sched.TournamentID,
			ConfigSnapshot:    configSnapshot,
			StartTime:         report.StartTime.Format(time.RFC3339),
			EndTime:           report.EndTime.Format(time.RFC3339),
			TotalMatches:      report.TotalMatches,
			SuccessfulMatches: report.SuccessfulMatches,
			FailedMatches:     report.FailedMatches,
		}); err != nil {
			s.Log.Warn().Err(err).Str("tournamentId", sched.TournamentID).Msg("failed to persist tournament report")
		}
	}

	if s.OutputDir != "" {
		if err := s.writeReport(sched.TournamentID, report); err != nil {
			s.Log.Warn().Err(err).Str("tournamentId", sched.TournamentID).Msg("failed to write aggregate report")
		}
	}

	return report, nil
}

// writeReport persists the per-tournament aggregate of spec.md §6.5 as a
// single JSON file alongside the per-match event logs and progress log.
func (s *Scheduler) writeReport(tournamentID string, report *Report) error {
	f, err := os.Create(filepath.Join(s.OutputDir, tournamentID+".report.json"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// runOne builds the engine and agent set for one scheduled match and drives
// it to completion, writing its event log to OutputDir if set.
func (s *Scheduler) runOne(ctx context.Context, spec MatchSpec) (result sdb.GameResult) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error().Interface("panic", r).Str("matchId", spec.MatchID).Msg("match goroutine panicked")
			result = sdb.GameResult{MatchID: spec.MatchID, Game: spec.Game, Outcome: "failed", WinReason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	gameSpec, err := registry.Get(spec.Game)
	if err != nil {
		return sdb.GameResult{MatchID: spec.MatchID, Game: spec.Game, Outcome: "failed", WinReason: err.Error()}
	}

	seed := spec.Seed
	if seed == 0 {
		id := uuid.New()
		seed = int64(binary.BigEndian.Uint64(id[:8]))
	}

	engine, err := gameSpec.New(spec.MatchID, seed, len(spec.Players), spec.Options)
	if err != nil {
		return sdb.GameResult{MatchID: spec.MatchID, Game: spec.Game, Outcome: "failed", WinReason: err.Error()}
	}

	agents := make(map[sdb.PlayerID]sdb.Agent, len(spec.Players))
	for i, ref := range spec.Players {
		agents[sdb.PlayerID(i)] = s.buildAgent(spec, i, ref)
	}

	driver := match.NewDriver(s.maxSteps(), s.AgentTimeout, s.Log)

	if s.Hub != nil {
		s.Hub.BroadcastTournament(hub.WSEvent{Type: hub.EventMatchEvent, MatchID: spec.MatchID, Data: map[string]any{"status": "started", "game": spec.Game}})
	}

	matchCtx := ctx
	if s.Cache != nil {
		var cancelMatch context.CancelFunc
		matchCtx, cancelMatch = context.WithCancel(ctx)
		defer cancelMatch()

		snapshot, _ := json.Marshal(map[string]any{
			"status": "running", "game": spec.Game, "players": len(spec.Players), "started_at": time.Now().UTC(),
		})
		if err := s.Cache.SetMatchState(ctx, spec.MatchID, snapshot); err != nil {
			s.Log.Warn().Err(err).Str("matchId", spec.MatchID).Msg("failed to cache match state")
		}
		defer func() {
			if err := s.Cache.DeleteMatchState(context.Background(), spec.MatchID); err != nil {
				s.Log.Warn().Err(err).Str("matchId", spec.MatchID).Msg("failed to clear cached match state")
			}
		}()

		sub := s.Cache.SubscribeCancellation(ctx, spec.MatchID)
		defer sub.Close()
		go func() {
			select {
			case _, ok := <-sub.Channel():
				if ok {
					s.Log.Info().Str("matchId", spec.MatchID).Msg("received operator cancellation")
					cancelMatch()
				}
			case <-matchCtx.Done():
			}
		}()
	}

	result = driver.Run(matchCtx, spec.MatchID, engine, agents)

	if s.OutputDir != "" {
		if err := s.writeEventLog(spec.MatchID, engine.Events()); err != nil {
			s.Log.Warn().Err(err).Str("matchId", spec.MatchID).Msg("failed to write event log")
		}
	}
	return result
}

func (s *Scheduler) buildAgent(spec MatchSpec, playerIdx int, ref PlayerRef) sdb.Agent {
	switch ref.Type {
	case "http":
		var opts []agentimpl.HTTPAgentOption
		opts = append(opts, agentimpl.WithModelParams(ref.Model, 0))
		opts = append(opts, agentimpl.WithFallback(agentimpl.NewRandomAgent(len(spec.Players), spec.Seed+int64(playerIdx))))
		switch {
		case s.OAuth != nil:
			opts = append(opts, agentimpl.WithOAuthProvider(s.OAuth))
		case s.JWTMgr != nil:
			opts = append(opts, agentimpl.WithAuth(s.JWTMgr))
		}
		return agentimpl.NewHTTPAgent(ref.URL, spec.MatchID, playerIdx, spec.Game, opts...)
	default:
		return agentimpl.NewRandomAgent(len(spec.Players), spec.Seed+int64(playerIdx)+1)
	}
}

func (s *Scheduler) maxSteps() int {
	if s.MaxSteps > 0 {
		return s.MaxSteps
	}
	return 5000
}

// writeEventLog persists one match's event log as newline-delimited JSON,
// one event per line.
func (s *Scheduler) writeEventLog(matchID string, events []sdb.Event) error {
	f, err := os.Create(filepath.Join(s.OutputDir, matchID+".jsonl"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

// logProgress appends a human-readable started/completed line to the
// tournament's progress log.
func (s *Scheduler) logProgress(format string, args ...any) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), msg)
	if s.progress != nil {
		_, _ = s.progress.WriteString(line)
	}
	s.Log.Info().Msg(msg)
}

// snapshotProgress writes a periodic status line listing currently running
// matches.
func (s *Scheduler) snapshotProgress(names []string) {
	s.logProgress("status: %d running %v", len(names), names)
}

func runningNames(running map[string]bool) []string {
	names := make([]string, 0, len(running))
	for id := range running {
		names = append(names, id)
	}
	return names
}
