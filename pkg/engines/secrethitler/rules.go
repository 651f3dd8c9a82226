package secrethitler

import "github.com/sdbench/sdb/pkg/sdb"

// legalNominees returns the alive players the president may nominate as
// chancellor: never the president themself, never the outgoing chancellor,
// and — only once more than five players are alive — never the outgoing
// president either.
func (e *Engine) legalNominees() []sdb.PlayerID {
	pres := e.president()
	var out []sdb.PlayerID
	for _, id := range e.alivePlayers() {
		if id == pres {
			continue
		}
		if e.lastChancellor != nil && id == *e.lastChancellor {
			continue
		}
		if !e.termLimitWaived && e.aliveCount() > 5 && e.lastPresident != nil && id == *e.lastPresident {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (e *Engine) isLegalNominee(id sdb.PlayerID) bool {
	for _, c := range e.legalNominees() {
		if c == id {
			return true
		}
	}
	return false
}

// tallyVotes resolves an election: a strict majority of ja among alive
// players passes it; a tie fails it.
func tallyVotes(votes map[sdb.PlayerID]bool, alive []sdb.PlayerID) (ja, nein int, passed bool) {
	for _, id := range alive {
		if votes[id] {
			ja++
		} else {
			nein++
		}
	}
	return ja, nein, ja > nein
}

// eligibleTargets returns alive players other than exclude, used for
// investigate/execute/special-election target validation.
func (e *Engine) eligibleTargets(exclude sdb.PlayerID, skip map[sdb.PlayerID]bool) []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, id := range e.alivePlayers() {
		if id == exclude {
			continue
		}
		if skip != nil && skip[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

func containsID(list []sdb.PlayerID, id sdb.PlayerID) bool {
	for _, c := range list {
		if c == id {
			return true
		}
	}
	return false
}
