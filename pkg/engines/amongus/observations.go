package amongus

import "github.com/sdbench/sdb/pkg/sdb"

// Observations builds the current per-player view. A dead player's location
// appears only in that player's own view and in the log; dead players see
// their role and room, living players also see their tasks and (impostors
// only) their cooldown and teammates.
func (e *Engine) Observations() map[sdb.PlayerID]sdb.Observation {
	obs := make(map[sdb.PlayerID]sdb.Observation, e.numPlayers)

	if e.done {
		for _, p := range e.players {
			obs[p.ID] = e.passiveObs(p.ID, "game over")
		}
		return obs
	}

	switch e.phase {
	case PhaseTask:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "you are dead")
				continue
			}
			obs[p.ID] = e.actObs(p.ID, "move, vent, complete a task, kill, report a body, or call an emergency meeting", nil)
		}
	case PhaseDiscussion:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "you are dead")
				continue
			}
			obs[p.ID] = e.actObs(p.ID, "make a public statement or pass", map[string]any{"discuss_round": e.discussRound})
		}
	case PhaseVoting:
		for _, p := range e.players {
			if !p.Alive {
				obs[p.ID] = e.passiveObs(p.ID, "you are dead")
				continue
			}
			obs[p.ID] = e.actObs(p.ID, "vote to eject a player or skip", map[string]any{
				"eligible_targets": e.eligibleVoteTargets(),
			})
		}
	}

	return obs
}

func (e *Engine) eligibleVoteTargets() []int {
	var out []int
	for _, p := range e.players {
		if p.Alive {
			out = append(out, int(p.ID))
		}
	}
	return out
}

func (e *Engine) actObs(p sdb.PlayerID, instruction string, extra map[string]any) sdb.Observation {
	data := e.selfContext(p)
	data["type"] = string(sdb.StepAct)
	data["instruction"] = instruction
	for k, v := range extra {
		data[k] = v
	}
	return sdb.Observation{Player: p, ObsType: sdb.ObsRoleSpecific, Phase: string(e.phase), Data: data}
}

func (e *Engine) passiveObs(p sdb.PlayerID, instruction string) sdb.Observation {
	data := e.selfContext(p)
	data["type"] = string(sdb.StepObserve)
	data["instruction"] = instruction
	return sdb.Observation{Player: p, ObsType: sdb.ObsRoleSpecific, Phase: string(e.phase), Data: data}
}

// selfContext reports what a player may always see about themself: role,
// room, and (impostors only) their teammates — never another crewmate's
// hidden task list or another impostor's cooldown.
func (e *Engine) selfContext(p sdb.PlayerID) map[string]any {
	self := e.players[p]
	data := map[string]any{
		"role":     string(self.Role),
		"location": string(self.Location),
	}
	if self.Alive {
		taskList := make([]map[string]any, len(self.Tasks))
		for i, t := range self.Tasks {
			taskList[i] = map[string]any{"index": i, "name": t.Name, "room": string(t.Room), "done": t.Done}
		}
		data["tasks"] = taskList
		if self.isImpostor() {
			data["cooldown"] = self.Cooldown
			var teammates []int
			for _, q := range e.players {
				if q.isImpostor() && q.ID != p {
					teammates = append(teammates, int(q.ID))
				}
			}
			data["teammates"] = teammates
		}
	}
	return data
}
