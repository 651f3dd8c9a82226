package werewolf

import "github.com/sdbench/sdb/pkg/sdb"

// clampBid clamps a submitted bid into the legal [0,4] range.
func clampBid(n int) int {
	if n < 0 {
		return 0
	}
	if n > 4 {
		return 4
	}
	return n
}

// pickSpeaker returns the top bidder, breaking ties uniformly at random via
// the match RNG.
func (e *Engine) pickSpeaker(bids map[sdb.PlayerID]int) sdb.PlayerID {
	best := -1
	var top []sdb.PlayerID
	for _, id := range e.alivePlayers() {
		b, ok := bids[id]
		if !ok {
			b = 0
		}
		if b > best {
			best = b
			top = []sdb.PlayerID{id}
		} else if b == best {
			top = append(top, id)
		}
	}
	if len(top) == 1 {
		return top[0]
	}
	return sdb.Choice(e.rng, top)
}

// tallyVotes returns the player with strictly the most votes and whether a
// strict majority of the alive electorate was reached.
func tallyVotes(votes map[sdb.PlayerID]sdb.PlayerID, alive []sdb.PlayerID) (sdb.PlayerID, bool) {
	counts := make(map[sdb.PlayerID]int)
	for _, target := range votes {
		counts[target]++
	}
	var leader sdb.PlayerID = -1
	leaderCount := 0
	tied := false
	for _, id := range alive {
		c := counts[id]
		if c > leaderCount {
			leaderCount = c
			leader = id
			tied = false
		} else if c == leaderCount && c > 0 {
			tied = true
		}
	}
	if leader == -1 || tied {
		return -1, false
	}
	majority := len(alive)/2 + 1
	return leader, leaderCount >= majority
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

func idsToInts(ids []sdb.PlayerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
