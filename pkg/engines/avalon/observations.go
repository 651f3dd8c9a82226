package avalon

import "github.com/sdbench/sdb/pkg/sdb"

// Observations builds the current per-player view. Only the current phase's
// actor(s) get a StepAct observation; everyone else gets a passive one. The
// hidden-role context attached to every observation encodes Avalon's
// asymmetric visibility table.
func (e *Engine) Observations() map[sdb.PlayerID]sdb.Observation {
	obs := make(map[sdb.PlayerID]sdb.Observation, e.numPlayers)

	if e.done {
		for _, p := range e.players {
			obs[p.ID] = e.passiveObs(p.ID, "game over")
		}
		return obs
	}

	switch e.phase {
	case PhaseTeamSelection:
		leader := e.leader()
		sizes := questSizes(e.numPlayers)
		for _, p := range e.players {
			if p.ID == leader {
				obs[p.ID] = e.actObs(p.ID, "propose a team", map[string]any{"team_size": sizes[e.questIndex], "quest": e.questIndex})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the leader is proposing a team")
			}
		}

	case PhaseTeamDiscussion:
		if e.discussionIdx < len(e.discussionOrder) {
			speaker := e.discussionOrder[e.discussionIdx]
			for _, p := range e.players {
				if p.ID == speaker {
					obs[p.ID] = e.actObs(p.ID, "make a statement or pass", map[string]any{"team": idsToInts(e.currentTeam)})
				} else {
					obs[p.ID] = e.passiveObs(p.ID, "another player is discussing the proposed team")
				}
			}
		} else {
			for _, p := range e.players {
				obs[p.ID] = e.passiveObs(p.ID, "discussion closing")
			}
		}

	case PhaseTeamVoting:
		for _, p := range e.players {
			obs[p.ID] = e.actObs(p.ID, "approve or reject the proposed team", map[string]any{"team": idsToInts(e.currentTeam)})
		}

	case PhaseQuestVoting:
		for _, p := range e.players {
			if e.isTeamMember(p.ID) {
				obs[p.ID] = e.actObs(p.ID, "vote success or fail on the quest", nil)
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the quest team is voting")
			}
		}

	case PhaseAssassination:
		assassin := e.assassinID()
		for _, p := range e.players {
			if p.ID == assassin {
				obs[p.ID] = e.actObs(p.ID, "name a good player to assassinate", map[string]any{"good_targets": idsToInts(e.goodIDs())})
			} else {
				obs[p.ID] = e.passiveObs(p.ID, "the assassin is choosing a target")
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

// roleContext encodes the asymmetric visibility table: Merlin sees every
// evil player except Mordred; Percival sees Merlin and Morgana together,
// unable to tell which is which; every evil player except Oberon sees every
// other evil player except Oberon. Good non-Merlin/Percival roles and Oberon
// see nobody.
func (e *Engine) roleContext(p sdb.PlayerID) map[string]any {
	self := e.players[p]
	data := map[string]any{"role": string(self.Role), "alignment": string(self.Alignment)}

	switch self.Role {
	case RoleMerlin:
		data["visible_evil"] = idsToInts(e.merlinView())
	case RolePercival:
		data["merlin_or_morgana"] = idsToInts(e.percivalView())
	default:
		if self.Alignment == Evil && self.Role != RoleOberon {
			data["evil_teammates"] = idsToInts(e.evilTeammates(p))
		}
	}
	return data
}

// merlinView returns every evil player except Mordred (who is invisible to
// Merlin by design).
func (e *Engine) merlinView() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, pl := range e.players {
		if pl.Alignment == Evil && pl.Role != RoleMordred {
			out = append(out, pl.ID)
		}
	}
	return out
}

// percivalView returns Merlin and Morgana's IDs, in a fixed order that
// carries no distinguishing signal (ascending by ID).
func (e *Engine) percivalView() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, pl := range e.players {
		if pl.Role == RoleMerlin || pl.Role == RoleMorgana {
			out = append(out, pl.ID)
		}
	}
	return out
}

// evilTeammates returns the other evil players visible to self, excluding
// Oberon (who neither sees nor is seen by the rest of evil).
func (e *Engine) evilTeammates(self sdb.PlayerID) []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, pl := range e.players {
		if pl.ID == self || pl.Alignment != Evil || pl.Role == RoleOberon {
			continue
		}
		out = append(out, pl.ID)
	}
	return out
}
