// Package avalon implements the Avalon engine of spec.md §4.3: team
// selection, sequential discussion, team/quest voting with the
// five-rejection evil-win rule, and the Merlin assassination endgame.
package avalon

import "github.com/sdbench/sdb/pkg/sdb"

// Alignment is a player's hidden team.
type Alignment string

const (
	Good Alignment = "good"
	Evil Alignment = "evil"
)

// Role is a player's individual role.
type Role string

const (
	RoleMerlin        Role = "merlin"
	RolePercival       Role = "percival"
	RoleLoyalServant  Role = "loyal_servant"
	RoleAssassin      Role = "assassin"
	RoleMorgana       Role = "morgana"
	RoleMordred       Role = "mordred"
	RoleOberon        Role = "oberon"
	RoleMinion        Role = "minion_of_mordred"
)

// Phase is the engine-local phase enumeration.
type Phase string

const (
	PhaseTeamSelection  Phase = "TeamSelection"
	PhaseTeamDiscussion Phase = "TeamDiscussion"
	PhaseTeamVoting     Phase = "TeamVoting"
	PhaseQuestVoting    Phase = "QuestVoting"
	PhaseAssassination  Phase = "Assassination"
	PhaseGameOver       Phase = "GameOver"
)

type player struct {
	ID        sdb.PlayerID
	Role      Role
	Alignment Alignment
}

// questResult is one quest's public outcome.
type questResult struct {
	QuestIndex int
	TeamSize   int
	Fails      int
	Succeeded  bool
}

// roleSet returns the specific role list (not player-assigned) for
// numPlayers, per the standard optional-role distribution.
func roleSet(numPlayers int) []Role {
	switch numPlayers {
	case 5:
		return []Role{RoleMerlin, RolePercival, RoleLoyalServant, RoleAssassin, RoleMorgana}
	case 6:
		return []Role{RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleAssassin, RoleMorgana}
	case 7:
		return []Role{RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleAssassin, RoleMorgana, RoleMordred}
	case 8:
		return []Role{RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleAssassin, RoleMorgana, RoleMordred}
	case 9:
		return []Role{RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleAssassin, RoleMorgana, RoleMordred}
	default: // 10
		return []Role{RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleAssassin, RoleMorgana, RoleMordred, RoleOberon}
	}
}

func alignmentOf(r Role) Alignment {
	switch r {
	case RoleAssassin, RoleMorgana, RoleMordred, RoleOberon, RoleMinion:
		return Evil
	default:
		return Good
	}
}

// questSizes is the fixed team-size-per-quest table.
func questSizes(numPlayers int) [5]int {
	switch numPlayers {
	case 5:
		return [5]int{2, 3, 2, 3, 3}
	case 6:
		return [5]int{2, 3, 4, 3, 4}
	case 7:
		return [5]int{2, 3, 3, 4, 4}
	default: // 8-10
		return [5]int{3, 4, 4, 5, 5}
	}
}

// failsNeeded returns how many fail ballots a quest needs to fail it: 2 for
// the 4th quest once 7 or more players are in the match, else 1.
func failsNeeded(numPlayers, questIndex int) int {
	if questIndex == 3 && numPlayers >= 7 {
		return 2
	}
	return 1
}
