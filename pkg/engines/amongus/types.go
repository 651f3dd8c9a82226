// Package amongus implements the Among Us engine of spec.md §4.7: a spatial
// social-deduction game over a fixed room graph, with task-completion and
// impostor-elimination win conditions, corridor/vent movement, kill
// cooldowns, and a report-vs-emergency meeting trigger.
package amongus

import "github.com/sdbench/sdb/pkg/sdb"

// Role is a player's hidden alignment, fixed at reset.
type Role string

const (
	RoleCrewmate Role = "crewmate"
	RoleImpostor Role = "impostor"
)

// Phase is the engine-local phase enumeration.
type Phase string

const (
	PhaseTask       Phase = "Task"
	PhaseDiscussion Phase = "Discussion"
	PhaseVoting     Phase = "Voting"
	PhaseGameEnd    Phase = "GameEnd"
)

// RoomID names a room in the fixed map.
type RoomID string

// Ejected is the sentinel location of a player removed from play by a vote,
// distinguishing them from a murdered corpse (which still occupies a real
// room and can be reported). Never a valid room ID.
const Ejected RoomID = "EJECTED"

// task is one item of a player's assigned task list.
type task struct {
	Name string
	Room RoomID
	Done bool
}

// player holds per-player state: identity, role, liveness/location, task
// list, and the one-shot/cooldown trackers the rules reference.
type player struct {
	ID             sdb.PlayerID
	Role           Role
	Alive          bool
	Location       RoomID
	Tasks          []task
	Cooldown       int
	EmergencyUsed  bool
	LastStatement  int // round of last public statement, for discussion accounting
}

func (p *player) isImpostor() bool { return p.Role == RoleImpostor }

func (p *player) totalTasks() int {
	return len(p.Tasks)
}

func (p *player) doneTasks() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Done {
			n++
		}
	}
	return n
}
