package amongus

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Engine is the Among Us game state machine. It implements sdb.Engine.
type Engine struct {
	matchID string
	rng     *sdb.Rng
	log     *sdb.Log
	world   *worldMap

	numPlayers     int
	numImpostors   int
	tasksPerPlayer int
	killCooldown   int
	discussRounds  int
	votingTimeout  int // outer steps of no statements before discussion force-ends
	roundCap       int
	fixedRoles     map[sdb.PlayerID]Role

	players []player

	phase Phase
	round int

	totalTasks     int
	completedTasks int

	// meeting state, valid only during Discussion/Voting
	discussRound     int
	noStatementSteps int
	votes            map[sdb.PlayerID]*sdb.PlayerID // nil value => skip

	done      bool
	winner    string
	winReason string
	startedAt time.Time
	endedAt   time.Time

	stats map[sdb.PlayerID]*sdb.PlayerStats
}

// Config bundles the tunables spec.md §4.7 leaves to match setup.
type Config struct {
	NumPlayers     int
	NumImpostors   int
	TasksPerPlayer int
	KillCooldown   int
	DiscussRounds  int
	VotingTimeout  int
	RoundCap       int
	// FixedRoles optionally pins specific players to specific roles
	//; players absent from the map are
	// assigned randomly from the remaining pool.
	FixedRoles map[sdb.PlayerID]Role
}

// New constructs an Among Us engine for a 4-15 player match.
func New(matchID string, seed int64, cfg Config) (*Engine, error) {
	if cfg.NumPlayers < 4 || cfg.NumPlayers > 15 {
		return nil, sdb.NewValidationError(-1, "bad_player_count", "among us requires 4-15 players")
	}
	if cfg.NumImpostors < 1 || cfg.NumImpostors >= cfg.NumPlayers {
		return nil, sdb.NewValidationError(-1, "bad_impostor_count", "impostor count must be in [1, numPlayers)")
	}
	if cfg.TasksPerPlayer <= 0 {
		cfg.TasksPerPlayer = 5
	}
	if cfg.KillCooldown <= 0 {
		cfg.KillCooldown = 3
	}
	if cfg.DiscussRounds <= 0 {
		cfg.DiscussRounds = 3
	}
	if cfg.VotingTimeout <= 0 {
		cfg.VotingTimeout = 3
	}
	if cfg.RoundCap <= 0 {
		cfg.RoundCap = 200
	}
	return &Engine{
		matchID:        matchID,
		rng:            sdb.NewRng(seed),
		world:          newWorldMap(),
		numPlayers:     cfg.NumPlayers,
		numImpostors:   cfg.NumImpostors,
		tasksPerPlayer: cfg.TasksPerPlayer,
		killCooldown:   cfg.KillCooldown,
		discussRounds:  cfg.DiscussRounds,
		votingTimeout:  cfg.VotingTimeout,
		roundCap:       cfg.RoundCap,
		fixedRoles:     cfg.FixedRoles,
	}, nil
}

func (e *Engine) assignRoles() {
	impostors := make(map[sdb.PlayerID]bool, e.numImpostors)
	for pid, role := range e.fixedRoles {
		if role == RoleImpostor {
			impostors[pid] = true
		}
	}
	if len(impostors) < e.numImpostors {
		remaining := make([]sdb.PlayerID, 0, e.numPlayers)
		for i := 0; i < e.numPlayers; i++ {
			pid := sdb.PlayerID(i)
			if _, fixed := e.fixedRoles[pid]; fixed {
				continue
			}
			if impostors[pid] {
				continue
			}
			remaining = append(remaining, pid)
		}
		sdb.ShuffleInts(e.rng, remaining)
		for _, pid := range remaining {
			if len(impostors) >= e.numImpostors {
				break
			}
			impostors[pid] = true
		}
	}

	e.players = make([]player, e.numPlayers)
	crewRooms := e.world.rooms
	for i := 0; i < e.numPlayers; i++ {
		pid := sdb.PlayerID(i)
		role := RoleCrewmate
		if impostors[pid] {
			role = RoleImpostor
		}
		p := player{ID: pid, Role: role, Alive: true, Location: Cafeteria}
		if role == RoleCrewmate {
			p.Tasks = e.world.tasksFor(crewRooms, e.tasksPerPlayer, e.rng)
		}
		e.players[i] = p
	}

	e.totalTasks = 0
	for _, p := range e.players {
		e.totalTasks += p.totalTasks()
	}
}

func (e *Engine) alive(p sdb.PlayerID) bool {
	return p >= 0 && int(p) < len(e.players) && e.players[p].Alive
}

func (e *Engine) livingPlayers() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.Alive {
			out = append(out, p.ID)
		}
	}
	return out
}

func (e *Engine) livingImpostors() int {
	n := 0
	for _, p := range e.players {
		if p.Alive && p.isImpostor() {
			n++
		}
	}
	return n
}

func (e *Engine) livingCrewmates() int {
	n := 0
	for _, p := range e.players {
		if p.Alive && !p.isImpostor() {
			n++
		}
	}
	return n
}

func (e *Engine) taskRatio() float64 {
	if e.totalTasks == 0 {
		return 1
	}
	return float64(e.completedTasks) / float64(e.totalTasks)
}
