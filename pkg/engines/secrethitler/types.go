// Package secrethitler implements the Secret Hitler engine of spec.md §4.2:
// nomination, election, legislative session, veto, and the presidential
// power table, role-asymmetric visibility, and both win conditions.
package secrethitler

import "github.com/sdbench/sdb/pkg/sdb"

// Party is a player's hidden team affiliation.
type Party string

const (
	Liberal Party = "liberal"
	Fascist Party = "fascist"
)

// Role is a player's individual role; Hitler is a Fascist who additionally
// wins by being elected chancellor late, or loses immediately if executed.
type Role string

const (
	RoleLiberal Role = "liberal"
	RoleFascist Role = "fascist"
	RoleHitler  Role = "hitler"
)

// Policy is a card in the policy deck.
type Policy string

const (
	PolicyLiberal Policy = "liberal"
	PolicyFascist Policy = "fascist"
)

// Power is a presidential power unlocked by fascist policy count.
type Power string

const (
	PowerNone             Power = "none"
	PowerPolicyPeek       Power = "policy_peek"
	PowerInvestigate      Power = "investigate_loyalty"
	PowerSpecialElection  Power = "special_election"
	PowerExecution        Power = "execution"
)

// Phase is the engine-local phase enumeration.
type Phase string

const (
	PhaseNomination          Phase = "ElectionNomination"
	PhaseDiscussion          Phase = "ElectionDiscussion"
	PhaseVoting              Phase = "ElectionVoting"
	PhaseLegislativePresident Phase = "LegislativeSession_President"
	PhaseLegislativeChancellor Phase = "LegislativeSession_Chancellor"
	PhaseVetoResponse        Phase = "VetoDiscussion"
	PhasePower               Phase = "PresidentialPower"
	PhaseGameOver            Phase = "GameOver"
)

// player holds per-player role state.
type player struct {
	ID    sdb.PlayerID
	Role  Role
	Party Party
	Alive bool
}

// presidentialPowerTable returns the power unlocked by fascistCount (1-indexed,
// i.e. the power that triggers on the fascistCount-th fascist policy) for the
// given player count, per spec.md §4.2's fixed table.
func presidentialPowerTable(numPlayers, fascistCount int) Power {
	if fascistCount < 1 || fascistCount > 6 {
		return PowerNone
	}
	var table []Power
	switch {
	case numPlayers <= 6:
		table = []Power{PowerNone, PowerNone, PowerPolicyPeek, PowerExecution, PowerExecution, PowerNone}
	case numPlayers <= 8:
		table = []Power{PowerNone, PowerInvestigate, PowerSpecialElection, PowerExecution, PowerExecution, PowerNone}
	default:
		table = []Power{PowerInvestigate, PowerInvestigate, PowerSpecialElection, PowerExecution, PowerExecution, PowerNone}
	}
	return table[fascistCount-1]
}

// roleDistribution returns (liberals, fascists-excluding-hitler) for numPlayers.
func roleDistribution(numPlayers int) (liberals, fascists int) {
	switch numPlayers {
	case 5:
		return 3, 1
	case 6:
		return 4, 1
	case 7:
		return 4, 2
	case 8:
		return 5, 2
	case 9:
		return 5, 3
	default:
		return 6, 3
	}
}
