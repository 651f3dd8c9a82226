// Package spyfall implements the Spyfall engine of spec.md §4.5: a single
// uninformed spy hidden among players who know a shared location, resolved
// by Q&A turn-passing, one-shot accusation/guess abilities, and majority
// voting.
package spyfall

import "github.com/sdbench/sdb/pkg/sdb"

// Phase is the engine-local phase enumeration.
type Phase string

const (
	PhaseQandA          Phase = "QandA"
	PhaseAccusationVote Phase = "AccusationVote"
	PhaseFinalVote      Phase = "FinalVote"
	PhaseSpyGuess       Phase = "SpyGuess"
	PhaseGameOver       Phase = "GameOver"
)

type player struct {
	ID       sdb.PlayerID
	IsSpy    bool
	Role     string // "" for the spy
	Accused  bool   // one-shot accusation ability spent
	SpyTried bool   // for the spy: one-shot guess ability spent
}

// location is one entry of the fixed location/role set.
type location struct {
	Name  string
	Roles []string
}

// locations is a trimmed, fixed location/role set grounded on the
// reference implementation's DEFAULT_LOCATIONS/DEFAULT_ROLES_BY_LOCATION
// table. Order is fixed (not map-derived) so that (seed, action batches)
// replay stays exact.
var locations = []location{
	{"Space Station", []string{"Captain", "Engineer", "Communications Officer", "Biologist", "Security Chief", "Diplomat"}},
	{"Pirate Ship", []string{"Captain", "First Mate", "Navigator", "Ship's Cook", "Gunner", "Prisoner"}},
	{"Hospital", []string{"Doctor", "Nurse", "Surgeon", "Patient", "Receptionist", "Administrator"}},
	{"Casino", []string{"Dealer", "Pit Boss", "Security Guard", "High Roller", "Cocktail Waitress", "Comp Host"}},
	{"Wizard Tower", []string{"Archmage", "Apprentice Wizard", "Familiar", "Tower Guardian", "Magic Student", "Enchanted Servant"}},
	{"Medieval Castle", []string{"King", "Knight", "Court Jester", "Cook", "Blacksmith", "Visiting Noble"}},
	{"Airport", []string{"Pilot", "Flight Attendant", "Air Traffic Controller", "Security Officer", "Baggage Handler", "Passenger"}},
	{"Art Gallery", []string{"Gallery Owner", "Curator", "Famous Artist", "Art Critic", "Security Guard", "Visitor"}},
}

func locationNames() []string {
	out := make([]string, len(locations))
	for i, l := range locations {
		out[i] = l.Name
	}
	return out
}
