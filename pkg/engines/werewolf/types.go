// Package werewolf implements the Werewolf engine of spec.md §4.4: a
// night/day cycle of werewolf-kill, doctor-protect, and seer-investigate
// actions followed by bid-for-the-floor debate and majority elimination
// voting.
package werewolf

import "github.com/sdbench/sdb/pkg/sdb"

// Role is a player's individual role.
type Role string

const (
	RoleWerewolf  Role = "werewolf"
	RoleDoctor    Role = "doctor"
	RoleSeer      Role = "seer"
	RoleVillager  Role = "villager"
)

// Phase is the engine-local phase enumeration.
type Phase string

const (
	PhaseNightWerewolf Phase = "NightWerewolf"
	PhaseNightDoctor    Phase = "NightDoctor"
	PhaseNightSeer      Phase = "NightSeer"
	PhaseDayBidding     Phase = "DayBidding"
	PhaseDayDebate      Phase = "DayDebate"
	PhaseDayVoting      Phase = "DayVoting"
	PhaseGameOver       Phase = "GameOver"
)

type player struct {
	ID    sdb.PlayerID
	Role  Role
	Alive bool
}

// roleSet returns the role list (not player-assigned) for numPlayers:
// one seer and one doctor once there are enough players to spare them, one
// werewolf per 4 players (minimum 1), the rest villagers.
func roleSet(numPlayers int) []Role {
	wolves := numPlayers / 4
	if wolves < 1 {
		wolves = 1
	}
	roles := make([]Role, 0, numPlayers)
	for i := 0; i < wolves; i++ {
		roles = append(roles, RoleWerewolf)
	}
	if numPlayers-wolves >= 1 {
		roles = append(roles, RoleSeer)
	}
	if numPlayers-len(roles) >= 1 && numPlayers >= 5 {
		roles = append(roles, RoleDoctor)
	}
	for len(roles) < numPlayers {
		roles = append(roles, RoleVillager)
	}
	return roles
}
