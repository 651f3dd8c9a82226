package secrethitler

import "github.com/sdbench/sdb/pkg/sdb"

// Observations builds the current per-player view: one actor observation for
// whoever must act this phase, and a passive observation for everyone else
//.
func (e *Engine) Observations() map[sdb.PlayerID]sdb.Observation {
	obs := make(map[sdb.PlayerID]sdb.Observation, e.numPlayers)

	if e.done {
		for _, p := range e.players {
			obs[p.ID] = e.passiveObs(p.ID, "game over")
		}
		return obs
	}

	switch e.phase {
	case PhaseNomination:
		pres := e.president()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			if p.ID == pres {
				obs[p.ID] = e.actObs(p.ID, "choose a chancellor nominee",
					map[string]any{"legal_nominees": idsToInts(e.legalNominees())})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the president is nominating a chancellor")
			}
		}

	case PhaseDiscussion:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			obs[p.ID] = e.actObs(p.ID, "make a statement or pass",
				map[string]any{"president": int(e.president()), "nominee": int(e.chancellorNominee)})
		}

	case PhaseVoting:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			obs[p.ID] = e.actObs(p.ID, "vote ja or nein on the proposed government",
				map[string]any{"president": int(e.president()), "nominee": int(e.chancellorNominee)})
		}

	case PhaseLegislativePresident:
		pres := e.president()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			if p.ID == pres {
				obs[p.ID] = e.actObs(p.ID, "discard one of three policies",
					map[string]any{"policies": policiesToStrings(e.drawnPolicies)})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the president is reviewing policies")
			}
		}

	case PhaseLegislativeChancellor:
		ch := e.chancellorNominee
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			if p.ID == ch {
				obs[p.ID] = e.actObs(p.ID, "enact one of two policies",
					map[string]any{
						"policies":      policiesToStrings(e.toChancellor),
						"veto_available": e.vetoUnlocked && !e.vetoProposed,
					})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the chancellor is reviewing policies")
			}
		}

	case PhaseVetoResponse:
		pres := e.president()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			if p.ID == pres {
				obs[p.ID] = e.actObs(p.ID, "accept or reject the chancellor's veto", nil)
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the president is responding to a veto proposal")
			}
		}

	case PhasePower:
		pres := e.president()
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "eliminated")
				continue
			}
			if p.ID == pres {
				obs[p.ID] = e.actObs(p.ID, string(e.pendingPower), e.powerObsData(pres))
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the president is resolving a presidential power")
			}
		}
	}

	return obs
}

func (e *Engine) powerObsData(pres sdb.PlayerID) map[string]any {
	switch e.pendingPower {
	case PowerInvestigate:
		return map[string]any{"eligible_targets": idsToInts(e.eligibleTargets(pres, e.investigated))}
	case PowerSpecialElection, PowerExecution:
		return map[string]any{"eligible_targets": idsToInts(e.eligibleTargets(pres, nil))}
	default:
		return nil
	}
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

// roleContext returns the hidden-information fields visible to p: its own
// role/party always, plus teammate visibility per the classic asymmetry —
// regular fascists always know every fascist and Hitler; Hitler learns
// their teammates' identities only in 5-6 player games.
func (e *Engine) roleContext(p sdb.PlayerID) map[string]any {
	self := e.players[p]
	data := map[string]any{"role": string(self.Role), "party": string(self.Party)}

	switch self.Role {
	case RoleFascist:
		data["fascist_teammates"] = idsToInts(e.fascistTeammates(p, true))
	case RoleHitler:
		if e.numPlayers <= 6 {
			data["fascist_teammates"] = idsToInts(e.fascistTeammates(p, false))
		}
	}
	return data
}

// fascistTeammates returns the other fascist-party players, including Hitler
// when includeHitler is true.
func (e *Engine) fascistTeammates(self sdb.PlayerID, includeHitler bool) []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, pl := range e.players {
		if pl.ID == self || pl.Party != Fascist {
			continue
		}
		if pl.Role == RoleHitler && !includeHitler {
			continue
		}
		out = append(out, pl.ID)
	}
	return out
}

func idsToInts(ids []sdb.PlayerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
