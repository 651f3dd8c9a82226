// Package registry maps a game name to its engine constructor and per-game
// player-count bounds, so the tournament scheduler and CLI never switch on
// game name themselves.
package registry

import (
	"fmt"

	"github.com/sdbench/sdb/pkg/engines/amongus"
	"github.com/sdbench/sdb/pkg/engines/avalon"
	"github.com/sdbench/sdb/pkg/engines/secrethitler"
	"github.com/sdbench/sdb/pkg/engines/sheriff"
	"github.com/sdbench/sdb/pkg/engines/spyfall"
	"github.com/sdbench/sdb/pkg/engines/werewolf"
	"github.com/sdbench/sdb/pkg/sdb"
)

// Options carries the engine-specific tunables a tournament schedule record
// may set, beyond the common matchID/seed/numPlayers every engine takes.
// Every field is optional; a zero value means "let the engine apply its own
// default."
type Options struct {
	// Among Us
	NumImpostors   int   `yaml:"num_impostors,omitempty"`
	TasksPerPlayer int   `yaml:"tasks_per_player,omitempty"`
	FixedImpostors []int `yaml:"fixed_impostors,omitempty"` // player indices forced to RoleImpostor

	// Werewolf / Spyfall
	MaxTurns int `yaml:"max_turns,omitempty"`

	// Sheriff of Nottingham
	HandSize             int `yaml:"hand_size,omitempty"`
	BagLimit             int `yaml:"bag_limit,omitempty"`
	MaxNegotiationRounds int `yaml:"max_negotiation_rounds,omitempty"`
}

// GameSpec describes one registered game: its player-count bounds and its
// constructor.
type GameSpec struct {
	Name           string
	MinPlayers     int
	MaxPlayers     int
	RecommendedMin int
	RecommendedMax int
	New            func(matchID string, seed int64, numPlayers int, opts Options) (sdb.Engine, error)
}

var specs = map[string]GameSpec{
	"secrethitler": {
		Name: "secrethitler", MinPlayers: 5, MaxPlayers: 10, RecommendedMin: 5, RecommendedMax: 10,
		New: func(matchID string, seed int64, numPlayers int, _ Options) (sdb.Engine, error) {
			return secrethitler.New(matchID, seed, numPlayers)
		},
	},
	"avalon": {
		Name: "avalon", MinPlayers: 5, MaxPlayers: 10, RecommendedMin: 5, RecommendedMax: 10,
		New: func(matchID string, seed int64, numPlayers int, _ Options) (sdb.Engine, error) {
			return avalon.New(matchID, seed, numPlayers)
		},
	},
	"werewolf": {
		Name: "werewolf", MinPlayers: 3, MaxPlayers: 15, RecommendedMin: 6, RecommendedMax: 12,
		New: func(matchID string, seed int64, numPlayers int, opts Options) (sdb.Engine, error) {
			return werewolf.New(matchID, seed, numPlayers, opts.MaxTurns)
		},
	},
	"spyfall": {
		Name: "spyfall", MinPlayers: 3, MaxPlayers: 12, RecommendedMin: 4, RecommendedMax: 8,
		New: func(matchID string, seed int64, numPlayers int, opts Options) (sdb.Engine, error) {
			return spyfall.New(matchID, seed, numPlayers, opts.MaxTurns)
		},
	},
	"amongus": {
		Name: "amongus", MinPlayers: 4, MaxPlayers: 15, RecommendedMin: 5, RecommendedMax: 10,
		New: func(matchID string, seed int64, numPlayers int, opts Options) (sdb.Engine, error) {
			cfg := amongus.Config{
				NumPlayers:     numPlayers,
				NumImpostors:   opts.NumImpostors,
				TasksPerPlayer: opts.TasksPerPlayer,
			}
			if len(opts.FixedImpostors) > 0 {
				cfg.FixedRoles = make(map[sdb.PlayerID]amongus.Role, len(opts.FixedImpostors))
				for _, p := range opts.FixedImpostors {
					cfg.FixedRoles[sdb.PlayerID(p)] = amongus.RoleImpostor
				}
			}
			if cfg.NumImpostors <= 0 {
				cfg.NumImpostors = 1
				if numPlayers >= 7 {
					cfg.NumImpostors = 2
				}
			}
			return amongus.New(matchID, seed, cfg)
		},
	},
	"sheriff": {
		Name: "sheriff", MinPlayers: 3, MaxPlayers: 5, RecommendedMin: 4, RecommendedMax: 5,
		New: func(matchID string, seed int64, numPlayers int, opts Options) (sdb.Engine, error) {
			return sheriff.New(matchID, seed, numPlayers, sheriff.Config{
				HandSize:             opts.HandSize,
				BagLimit:             opts.BagLimit,
				MaxNegotiationRounds: opts.MaxNegotiationRounds,
			})
		},
	},
}

// Get returns the GameSpec for a registered game name.
func Get(game string) (GameSpec, error) {
	spec, ok := specs[game]
	if !ok {
		return GameSpec{}, fmt.Errorf("unknown game %q", game)
	}
	return spec, nil
}

// Names returns every registered game name.
func Names() []string {
	out := make([]string, 0, len(specs))
	for name := range specs {
		out = append(out, name)
	}
	return out
}

// ValidatePlayerCount reports whether numPlayers is within [Min,Max], and
// whether it falls outside the recommended range.
func (g GameSpec) ValidatePlayerCount(numPlayers int) (ok bool, warning string) {
	if numPlayers < g.MinPlayers || numPlayers > g.MaxPlayers {
		return false, fmt.Sprintf("%s requires between %d and %d players, got %d", g.Name, g.MinPlayers, g.MaxPlayers, numPlayers)
	}
	if numPlayers < g.RecommendedMin || numPlayers > g.RecommendedMax {
		return true, fmt.Sprintf("%s plays best with %d-%d players; %d is supported but sub-optimal", g.Name, g.RecommendedMin, g.RecommendedMax, numPlayers)
	}
	return true, ""
}
