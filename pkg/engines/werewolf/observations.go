package werewolf

import "github.com/sdbench/sdb/pkg/sdb"

// Observations builds the current per-player view: actor observations for
// whoever must act this phase, passive observations for everyone else, plus
// each player's own role and (for werewolves) their teammates.
func (e *Engine) Observations() map[sdb.PlayerID]sdb.Observation {
	obs := make(map[sdb.PlayerID]sdb.Observation, e.numPlayers)

	if e.done {
		for _, p := range e.players {
			obs[p.ID] = e.passiveObs(p.ID, "game over")
		}
		return obs
	}

	switch e.phase {
	case PhaseNightWerewolf:
		wolves := e.aliveWerewolves()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
			} else if containsID(wolves, p.ID) {
				targets := make([]sdb.PlayerID, 0, e.numPlayers)
				for _, id := range e.alivePlayers() {
					if id != p.ID {
						targets = append(targets, id)
					}
				}
				obs[p.ID] = e.actObs(p.ID, "choose a target to eliminate", map[string]any{"eligible_targets": idsToInts(targets)})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "night falls")
			}
		}

	case PhaseNightDoctor:
		doctor := e.doctorID()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
			} else if p.ID == doctor {
				obs[p.ID] = e.actObs(p.ID, "choose a player to protect", map[string]any{"eligible_targets": idsToInts(e.alivePlayers())})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "night falls")
			}
		}

	case PhaseNightSeer:
		seer := e.seerID()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
			} else if p.ID == seer {
				targets := make([]sdb.PlayerID, 0, e.numPlayers)
				for _, id := range e.alivePlayers() {
					if id != seer {
						targets = append(targets, id)
					}
				}
				obs[p.ID] = e.actObs(p.ID, "choose a player to investigate", map[string]any{"eligible_targets": idsToInts(targets)})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "night falls")
			}
		}

	case PhaseDayBidding:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
			} else if e.hasLastSpeaker && p.ID == e.lastSpeaker {
				obs[p.ID] = e.passiveObs(p.ID, "you just spoke and may not bid this round")
			} else {
				obs[p.ID] = e.actObs(p.ID, "bid for the floor, an integer 0-4", nil)
			}
		}

	case PhaseDayDebate:
		speaker := e.currentSpeaker()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
			} else if p.ID == speaker {
				obs[p.ID] = e.actObs(p.ID, "make a public statement", nil)
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "another player has the floor")
			}
		}

	case PhaseDayVoting:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
			} else {
				targets := make([]sdb.PlayerID, 0, e.numPlayers)
				for _, id := range e.alivePlayers() {
					if id != p.ID {
						targets = append(targets, id)
					}
				}
				obs[p.ID] = e.actObs(p.ID, "vote to eliminate a player", map[string]any{"eligible_targets": idsToInts(targets)})
			}
		}
	}

	return obs
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
	data := map[string]any{"role": string(self.Role)}
	if self.Role == RoleWerewolf {
		data["werewolf_teammates"] = idsToInts(e.werewolfTeammates(p))
	}
	return data
}

func (e *Engine) werewolfTeammates(self sdb.PlayerID) []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.ID != self && p.Role == RoleWerewolf {
			out = append(out, p.ID)
		}
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
