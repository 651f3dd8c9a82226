package spyfall

import "github.com/sdbench/sdb/pkg/sdb"

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

func idsToInts(ids []sdb.PlayerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// tallyUnanimous reports whether every voter (alive players except suspect)
// voted yes.
func tallyUnanimous(votes map[sdb.PlayerID]bool, voters []sdb.PlayerID) bool {
	if len(voters) == 0 {
		return false
	}
	for _, v := range voters {
		if !votes[v] {
			return false
		}
	}
	return true
}

// tallyMajority reports whether a strict majority of voters voted yes.
func tallyMajority(votes map[sdb.PlayerID]bool, voters []sdb.PlayerID) bool {
	if len(voters) == 0 {
		return false
	}
	yes := 0
	for _, v := range voters {
		if votes[v] {
			yes++
		}
	}
	return yes >= len(voters)/2+1
}
