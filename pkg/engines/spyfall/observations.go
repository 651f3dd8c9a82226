package spyfall

import "github.com/sdbench/sdb/pkg/sdb"

// Observations builds the current per-player view. Every living player
// besides the spy knows the location; the spy never does. Only the current
// phase's actor(s) get a StepAct observation.
func (e *Engine) Observations() map[sdb.PlayerID]sdb.Observation {
	obs := make(map[sdb.PlayerID]sdb.Observation, e.numPlayers)

	if e.done {
		for _, p := range e.players {
			obs[p.ID] = e.passiveObs(p.ID, "game over")
		}
		return obs
	}

	switch e.phase {
	case PhaseQandA:
		for _, p := range e.players {
			canAccuse := !p.IsSpy && !p.Accused
			canGuess := p.IsSpy && !e.accusationInitiated && !p.SpyTried
			switch {
			case !e.hasAnswerer() && p.ID == e.asker:
				obs[p.ID] = e.actObs(p.ID, "ask a living player a question", map[string]any{
					"eligible_targets": idsToInts(e.askTargets()), "can_accuse": canAccuse,
				})
			case e.hasAnswerer() && p.ID == e.answerer:
				obs[p.ID] = e.actObs(p.ID, "answer the asker's question", map[string]any{"can_accuse": canAccuse})
			case canAccuse:
				obs[p.ID] = e.actObs(p.ID, "pass, or spend your one-shot accusation", map[string]any{"can_accuse": true})
			case canGuess:
				obs[p.ID] = e.actObs(p.ID, "pass, or spend your one-shot location guess", map[string]any{
					"can_guess": true, "locations": locationNames(),
				})
			default:
				obs[p.ID] = e.passiveObs(p.ID, "waiting")
			}
		}

	case PhaseAccusationVote:
		for _, id := range e.voters(e.suspect) {
			obs[id] = e.actObs(id, "vote guilty or not on the accused player", map[string]any{"suspect": int(e.suspect)})
		}
		obs[e.suspect] = e.passiveObs(e.suspect, "you are being voted on")

	case PhaseFinalVote:
		suspect := e.finalOrder[e.finalNominationIdx]
		for _, id := range e.voters(suspect) {
			obs[id] = e.actObs(id, "vote guilty or not on the nominated player", map[string]any{"suspect": int(suspect)})
		}
		obs[suspect] = e.passiveObs(suspect, "you are being voted on")

	case PhaseSpyGuess:
		spy := e.spyID()
		for _, p := range e.players {
			if p.ID == spy {
				obs[p.ID] = e.actObs(p.ID, "name a location", map[string]any{"locations": locationNames()})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the spy is guessing the location")
			}
		}
	}

	return obs
}

func (e *Engine) askTargets() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.alivePlayers() {
		if p != e.asker && !(e.hasCannotAsk && p == e.cannotAskBack) {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) actObs(p sdb.PlayerID, instruction string, extra map[string]any) sdb.Observation {
	data := e.roleContext(p)
	data["type"] = string(sdb.StepAct)
	data["instruction"] = instruction
	for k, v := range extra {
		data[k] = v
	}
	return sdb.Observation{Player: p, ObsType: sdb.ObsRoleSpecific, Phase: string(e.phase), Data: data}
}

func (e *Engine) passiveObs(p sdb.PlayerID, instruction string) sdb.Observation {
	data := e.roleContext(p)
	data["type"] = string(sdb.StepObserve)
	data["instruction"] = instruction
	return sdb.Observation{Player: p, ObsType: sdb.ObsRoleSpecific, Phase: string(e.phase), Data: data}
}

func (e *Engine) roleContext(p sdb.PlayerID) map[string]any {
	self := e.players[p]
	if self.IsSpy {
		return map[string]any{"is_spy": true}
	}
	return map[string]any{"is_spy": false, "location": e.location, "role": self.Role}
}
