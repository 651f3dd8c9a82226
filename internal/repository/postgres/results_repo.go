package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sdbench/sdb/internal/repository"
	"github.com/sdbench/sdb/pkg/sdb"
)

// ResultsRepo persists match results and tournament aggregate reports: one
// struct wrapping *sql.DB, one method per operation, errors wrapped with a
// short operation prefix.
type ResultsRepo struct {
	db *sql.DB
}

// NewResultsRepo creates a ResultsRepo.
func NewResultsRepo(db *sql.DB) *ResultsRepo {
	return &ResultsRepo{db: db}
}

var _ repository.ResultsRepository = (*ResultsRepo)(nil)

// SaveMatchResult inserts one completed match's result, scoped to the
// tournament run that produced it ("" for a standalone single-match run).
func (r *ResultsRepo) SaveMatchResult(ctx context.Context, tournamentID string, result sdb.GameResult) error {
	stats, err := json.Marshal(result.PerPlayerStats)
	if err != nil {
		return fmt.Errorf("marshal per-player stats: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO match_results
		   (tournament_id, match_id, game, winner, win_reason, outcome, rounds,
		    duration_seconds, per_player_stats, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (match_id) DO UPDATE SET
		   winner = EXCLUDED.winner, win_reason = EXCLUDED.win_reason,
		   outcome = EXCLUDED.outcome, rounds = EXCLUDED.rounds,
		   duration_seconds = EXCLUDED.duration_seconds,
		   per_player_stats = EXCLUDED.per_player_stats, ended_at = EXCLUDED.ended_at`,
		tournamentID, result.MatchID, result.Game, result.Winner, result.WinReason,
		result.Outcome, result.Rounds, result.DurationSeconds, stats,
		result.StartedAt, result.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("save match result: %w", err)
	}
	return nil
}

// MatchResults returns every match result recorded for a tournament run,
// ordered by match start time.
func (r *ResultsRepo) MatchResults(ctx context.Context, tournamentID string) ([]sdb.GameResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, game, winner, win_reason, outcome, rounds, duration_seconds,
		        per_player_stats, started_at, ended_at
		 FROM match_results WHERE tournament_id = $1 ORDER BY started_at`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list match results: %w", err)
	}
	defer rows.Close()

	var out []sdb.GameResult
	for rows.Next() {
		var res sdb.GameResult
		var statsJSON []byte
		if err := rows.Scan(&res.MatchID, &res.Game, &res.Winner, &res.WinReason, &res.Outcome,
			&res.Rounds, &res.DurationSeconds, &statsJSON, &res.StartedAt, &res.EndedAt); err != nil {
			return nil, fmt.Errorf("scan match result: %w", err)
		}
		if len(statsJSON) > 0 {
			if err := json.Unmarshal(statsJSON, &res.PerPlayerStats); err != nil {
				return nil, fmt.Errorf("unmarshal per-player stats: %w", err)
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// SaveTournamentReport upserts a tournament run's aggregate summary.
func (r *ResultsRepo) SaveTournamentReport(ctx context.Context, report repository.TournamentReport) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tournament_reports
		   (tournament_id, config_snapshot, start_time, end_time, total_matches,
		    successful_matches, failed_matches)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (tournament_id) DO UPDATE SET
		   end_time = EXCLUDED.end_time, total_matches = EXCLUDED.total_matches,
		   successful_matches = EXCLUDED.successful_matches,
		   failed_matches = EXCLUDED.failed_matches`,
		report.TournamentID, report.ConfigSnapshot, report.StartTime, report.EndTime,
		report.TotalMatches, report.SuccessfulMatches, report.FailedMatches,
	)
	if err != nil {
		return fmt.Errorf("save tournament report: %w", err)
	}
	return nil
}
