// Package tournament composes many matches, built from an external schedule
// file, under a concurrency cap.
package tournament

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sdbench/sdb/internal/registry"
)

// PlayerRef names the agent seated at one player slot of a scheduled match
//.
type PlayerRef struct {
	Type  string `yaml:"type"`            // "random", "http", ...
	URL   string `yaml:"url,omitempty"`   // for type "http"
	Model string `yaml:"model,omitempty"`
}

// MatchSpec is one scheduled match.
type MatchSpec struct {
	MatchID        string           `yaml:"match_id"`
	Game           string           `yaml:"game"`
	Players        []PlayerRef      `yaml:"players"`
	RoleAssignment map[string][]int `yaml:"role_assignment,omitempty"`
	Seed           int64            `yaml:"seed,omitempty"`
	Options        registry.Options `yaml:"options,omitempty"`
}

// RoundRobinSpec generates GamesPerPairing concrete matches of the same
// fixed agent roster, sparing the operator from hand-writing every repeat
// run needed for a statistically stable win rate (recovered from the
// Python original's round_robin schedule generator).
type RoundRobinSpec struct {
	Game            string           `yaml:"game"`
	Players         []PlayerRef      `yaml:"players"`
	GamesPerPairing int              `yaml:"games_per_pairing"`
	Seed            int64            `yaml:"seed,omitempty"`
	Options         registry.Options `yaml:"options,omitempty"`
}

// Schedule is the parsed shape of a tournament config file.
type Schedule struct {
	TournamentID       string           `yaml:"tournament_id"`
	MaxConcurrentGames int              `yaml:"max_concurrent_games,omitempty"`
	MaxSteps           int              `yaml:"max_steps,omitempty"`
	Matches            []MatchSpec      `yaml:"matches,omitempty"`
	RoundRobin         []RoundRobinSpec `yaml:"round_robin,omitempty"`
}

// LoadSchedule reads and parses a tournament schedule file. A SchedulerError
// per spec.md §7 is fatal to the whole tournament, never to an individual
// match, since no match has started yet when this fails.
func LoadSchedule(path string) (*Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tournament: read schedule %q: %w", path, err)
	}
	var sched Schedule
	if err := yaml.Unmarshal(raw, &sched); err != nil {
		return nil, fmt.Errorf("tournament: parse schedule %q: %w", path, err)
	}

	for i, rr := range sched.RoundRobin {
		if rr.Game == "" {
			return nil, fmt.Errorf("tournament: round_robin entry %d missing game", i)
		}
		n := rr.GamesPerPairing
		if n <= 0 {
			n = 1
		}
		for j := 0; j < n; j++ {
			sched.Matches = append(sched.Matches, MatchSpec{
				MatchID: fmt.Sprintf("%s-rr%d-%s-%d", sched.TournamentID, i, rr.Game, j),
				Game:    rr.Game,
				Players: rr.Players,
				Seed:    rr.Seed + int64(j),
				Options: rr.Options,
			})
		}
	}

	if len(sched.Matches) == 0 {
		return nil, fmt.Errorf("tournament: schedule %q declares no matches", path)
	}
	for i, m := range sched.Matches {
		if m.Game == "" {
			return nil, fmt.Errorf("tournament: match %d missing game", i)
		}
		if m.MatchID == "" {
			sched.Matches[i].MatchID = fmt.Sprintf("%s-%d", sched.TournamentID, i)
		}
	}
	return &sched, nil
}
