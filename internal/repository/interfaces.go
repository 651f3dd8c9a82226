// Package repository defines the persistence contracts the tournament
// scheduler depends on, independent of the concrete
// Postgres/Redis implementations under postgres/ and rediscache/.
package repository

import (
	"context"

	"github.com/sdbench/sdb/pkg/sdb"
)

// ResultsRepository persists per-match results and per-tournament aggregate
// reports.
type ResultsRepository interface {
	SaveMatchResult(ctx context.Context, tournamentID string, result sdb.GameResult) error
	MatchResults(ctx context.Context, tournamentID string) ([]sdb.GameResult, error)
	SaveTournamentReport(ctx context.Context, report TournamentReport) error
}

// TournamentReport is the persisted shape of a completed tournament run.
type TournamentReport struct {
	TournamentID      string
	ConfigSnapshot    string // the schedule file contents, for reproducibility
	StartTime         string
	EndTime           string
	TotalMatches      int
	SuccessfulMatches int
	FailedMatches     int
}
