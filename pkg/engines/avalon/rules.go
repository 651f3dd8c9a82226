package avalon

import (
	"strings"

	"github.com/sdbench/sdb/pkg/sdb"
)

// validTeam reports whether team has exactly size distinct, in-range IDs.
func (e *Engine) validTeam(team []sdb.PlayerID, size int) bool {
	if len(team) != size {
		return false
	}
	seen := make(map[sdb.PlayerID]bool, size)
	for _, id := range team {
		if id < 0 || int(id) >= e.numPlayers || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func (e *Engine) isTeamMember(p sdb.PlayerID) bool {
	for _, id := range e.currentTeam {
		if id == p {
			return true
		}
	}
	return false
}

func normalizeStatement(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func readTeam(act sdb.Action) ([]sdb.PlayerID, bool) {
	raw, ok := act.Data["team"].([]any)
	if !ok {
		return nil, false
	}
	team := make([]sdb.PlayerID, 0, len(raw))
	for _, v := range raw {
		n, ok := toInt(v)
		if !ok {
			return nil, false
		}
		team = append(team, sdb.PlayerID(n))
	}
	return team, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
