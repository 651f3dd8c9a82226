package werewolf

import (
	"strconv"
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Reset deals roles and enters the first night.
func (e *Engine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.assignRoles()
	e.log = sdb.NewLog(e.matchID)
	e.startedAt = time.Now()
	e.stats = make(map[sdb.PlayerID]*sdb.PlayerStats, e.numPlayers)
	for _, p := range e.players {
		e.stats[p.ID] = &sdb.PlayerStats{Role: string(p.Role), Alive: true}
	}
	e.round = 0
	e.hasLastSpeaker = false
	e.done = false

	e.log.Append(0, sdb.EventGameStart, map[string]any{"num_players": e.numPlayers}, nil, false)
	e.enterNight()
	return e.Observations()
}

func (e *Engine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	switch e.phase {
	case PhaseNightWerewolf:
		e.stepNightWerewolf(actions)
	case PhaseNightDoctor:
		e.stepNightDoctor(actions)
	case PhaseNightSeer:
		e.stepNightSeer(actions)
	case PhaseDayBidding:
		e.stepDayBidding(actions)
	case PhaseDayDebate:
		e.stepDayDebate(actions)
	case PhaseDayVoting:
		e.stepDayVoting(actions)
	}

	var scores map[sdb.PlayerID]float64
	if e.done {
		scores = e.finalScores()
	}
	return e.Observations(), scores, e.done, sdb.StepInfo{"phase": string(e.phase)}
}

func (e *Engine) stepNightWerewolf(actions map[sdb.PlayerID]sdb.Action) {
	wolves := e.aliveWerewolves()
	target, found := sdb.PlayerID(-1), false
	for _, w := range wolves {
		if act, ok := actions[w]; ok && act.Kind == "kill_target" {
			if n, okN := toInt(act.Data["target"]); okN && e.isAlive(sdb.PlayerID(n)) && sdb.PlayerID(n) != w {
				target = sdb.PlayerID(n)
				found = true
				break
			}
		}
	}
	if !found {
		for _, v := range e.aliveVillagers() {
			target = v
			found = true
			break
		}
		if !found && len(wolves) > 0 {
			target = wolves[0]
			found = true
		}
		e.log.AppendThrottled(e.round, sdb.EventError, "missing_wolf_target", "defaulted to first eligible target", wolves[0], time.Minute)
	}
	e.werewolfTarget, e.hasWolfTarget = target, found
	for _, w := range wolves {
		e.bumpActions(w)
	}
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "werewolf_target", "target": int(target)}, nil, true)

	if d := e.doctorID(); d != -1 {
		e.phase = PhaseNightDoctor
		e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseNightDoctor)}, nil, false)
	} else if s := e.seerID(); s != -1 {
		e.phase = PhaseNightSeer
		e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseNightSeer)}, nil, false)
	} else {
		e.resolveNight()
	}
}

func (e *Engine) stepNightDoctor(actions map[sdb.PlayerID]sdb.Action) {
	doctor := e.doctorID()
	target, ok := doctor, false
	if act, has := actions[doctor]; has && act.Kind == "protect" {
		if n, okN := toInt(act.Data["target"]); okN && e.isAlive(sdb.PlayerID(n)) {
			target = sdb.PlayerID(n)
			ok = true
		}
	}
	if !ok {
		e.log.AppendThrottled(e.round, sdb.EventError, "missing_protect_target", "defaulted to self-protect", doctor, time.Minute)
	}
	e.doctorTarget, e.hasDoctor = target, true
	e.bumpActions(doctor)
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "protect", "target": int(target)}, nil, true)

	if s := e.seerID(); s != -1 {
		e.phase = PhaseNightSeer
		e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseNightSeer)}, nil, false)
	} else {
		e.resolveNight()
	}
}

func (e *Engine) stepNightSeer(actions map[sdb.PlayerID]sdb.Action) {
	seer := e.seerID()
	target, ok := sdb.PlayerID(-1), false
	if act, has := actions[seer]; has && act.Kind == "investigate" {
		if n, okN := toInt(act.Data["target"]); okN && e.isAlive(sdb.PlayerID(n)) && sdb.PlayerID(n) != seer {
			target = sdb.PlayerID(n)
			ok = true
		}
	}
	if !ok {
		for _, p := range e.alivePlayers() {
			if p != seer {
				target = p
				ok = true
				break
			}
		}
		e.log.AppendThrottled(e.round, sdb.EventError, "missing_investigate_target", "defaulted to first eligible target", seer, time.Minute)
	}
	e.seerTarget, e.hasSeer = target, ok
	e.bumpActions(seer)

	if ok {
		role := string(e.players[target].Role)
		e.log.Append(e.round, sdb.EventInvestigationResult, map[string]any{"target": int(target), "role": role}, &seer, true)
	}

	e.resolveNight()
}

func (e *Engine) resolveNight() {
	if e.hasWolfTarget {
		protected := e.hasDoctor && e.doctorTarget == e.werewolfTarget
		if !protected {
			e.killPlayer(e.werewolfTarget)
			e.lastEliminated, e.hasElimination = e.werewolfTarget, true
			e.log.Append(e.round, sdb.EventPlayerEliminated, map[string]any{"player": int(e.werewolfTarget), "cause": "night_kill"}, nil, false)
		}
	}

	if e.checkWinConditions() {
		return
	}
	e.debateTurns = 0
	e.hasLastSpeaker = false
	e.enterDayBidding()
}

func (e *Engine) killPlayer(p sdb.PlayerID) {
	e.players[p].Alive = false
	if s, ok := e.stats[p]; ok {
		s.Alive = false
		s.EliminatedOn = e.round
	}
}

// checkWinConditions uses a strict wolves > villagers threshold rather than
// the more commonly quoted wolves >= villagers: a tied night (one wolf, one
// villager left) continues to a day vote instead of ending immediately.
func (e *Engine) checkWinConditions() bool {
	wolves := len(e.aliveWerewolves())
	villagers := len(e.aliveVillagers())
	if wolves == 0 {
		e.endGame("village", "all werewolves eliminated")
		return true
	}
	if wolves > villagers {
		e.endGame("werewolves", "werewolves outnumber villagers")
		return true
	}
	return false
}

func (e *Engine) enterDayBidding() {
	e.phase = PhaseDayBidding
	e.bids = make(map[sdb.PlayerID]int)
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseDayBidding)}, nil, false)
}

func (e *Engine) stepDayBidding(actions map[sdb.PlayerID]sdb.Action) {
	bids := make(map[sdb.PlayerID]int)
	for _, id := range e.alivePlayers() {
		if e.hasLastSpeaker && id == e.lastSpeaker {
			continue
		}
		bid := 0
		if act, ok := actions[id]; ok && act.Kind == "bid" {
			if n, okN := toInt(act.Data["value"]); okN {
				bid = clampBid(n)
			}
		}
		bids[id] = bid
		e.bumpActions(id)
	}
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "bid", "bids": bidsToInts(bids)}, nil, false)

	speaker := e.pickSpeaker(bids)
	e.bids = bids
	e.speaker = speaker
	e.phase = PhaseDayDebate
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseDayDebate), "speaker": int(speaker)}, nil, false)
}

func bidsToInts(bids map[sdb.PlayerID]int) map[string]int {
	out := make(map[string]int, len(bids))
	for id, b := range bids {
		out[strconv.Itoa(int(id))] = b
	}
	return out
}

func (e *Engine) currentSpeaker() sdb.PlayerID {
	return e.speaker
}

func (e *Engine) stepDayDebate(actions map[sdb.PlayerID]sdb.Action) {
	speaker := e.currentSpeaker()
	text := ""
	if act, ok := actions[speaker]; ok && act.Kind == "statement" {
		text, _ = act.Data["text"].(string)
	}
	e.bumpActions(speaker)
	e.log.Append(e.round, sdb.EventDiscussion, map[string]any{"player": int(speaker), "text": text}, nil, false)

	e.lastSpeaker, e.hasLastSpeaker = speaker, true
	e.debateTurns++

	if e.debateTurns >= e.maxDebateTurns {
		e.enterDayVoting()
	} else {
		e.enterDayBidding()
	}
}

func (e *Engine) enterDayVoting() {
	e.phase = PhaseDayVoting
	e.votes = make(map[sdb.PlayerID]sdb.PlayerID)
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseDayVoting)}, nil, false)
}

func (e *Engine) stepDayVoting(actions map[sdb.PlayerID]sdb.Action) {
	alive := e.alivePlayers()
	votes := make(map[sdb.PlayerID]sdb.PlayerID, len(alive))
	for _, id := range alive {
		target, ok := sdb.PlayerID(-1), false
		if act, has := actions[id]; has && act.Kind == "vote" {
			if n, okN := toInt(act.Data["target"]); okN && e.isAlive(sdb.PlayerID(n)) && sdb.PlayerID(n) != id {
				target = sdb.PlayerID(n)
				ok = true
			}
		}
		if !ok {
			for _, p := range alive {
				if p != id {
					target = p
					ok = true
					break
				}
			}
			e.log.AppendThrottled(e.round, sdb.EventError, "missing_day_vote", "defaulted to first eligible target", id, time.Minute)
		}
		votes[id] = target
		e.bumpVotes(id)
		e.log.Append(e.round, sdb.EventVoteCast, map[string]any{"player": int(id), "target": int(target)}, nil, false)
	}
	e.votes = votes

	leader, majority := tallyVotes(votes, alive)
	if majority {
		e.killPlayer(leader)
		e.log.Append(e.round, sdb.EventPlayerEliminated, map[string]any{"player": int(leader), "cause": "day_vote"}, nil, false)
	} else {
		e.log.Append(e.round, sdb.EventInfo, map[string]any{"detail": "no majority reached, no elimination"}, nil, false)
	}

	if e.checkWinConditions() {
		return
	}
	e.enterNight()
}

func (e *Engine) endGame(winner, reason string) {
	e.done = true
	e.winner = winner
	e.winReason = reason
	e.phase = PhaseGameOver
	e.endedAt = time.Now()
	e.log.Append(e.round, sdb.EventGameEnd, map[string]any{"winner": winner, "reason": reason}, nil, false)
}

func (e *Engine) finalScores() map[sdb.PlayerID]float64 {
	scores := make(map[sdb.PlayerID]float64, e.numPlayers)
	for _, p := range e.players {
		wolfSide := p.Role == RoleWerewolf
		won := (wolfSide && e.winner == "werewolves") || (!wolfSide && e.winner == "village")
		if won {
			scores[p.ID] = 1
		}
		if s, ok := e.stats[p.ID]; ok {
			s.Score = scores[p.ID]
		}
	}
	return scores
}

func (e *Engine) bumpActions(p sdb.PlayerID) {
	if s, ok := e.stats[p]; ok {
		s.ActionsTaken++
	}
}

func (e *Engine) bumpVotes(p sdb.PlayerID) {
	if s, ok := e.stats[p]; ok {
		s.VotesCast++
	}
}

func (e *Engine) Terminal() bool    { return e.done }
func (e *Engine) Winner() string    { return e.winner }
func (e *Engine) WinReason() string { return e.winReason }

func (e *Engine) ForceTerminate() {
	if e.done {
		return
	}
	e.done = true
	e.winner = "none"
	e.winReason = "forced termination: safety bound reached"
	e.phase = PhaseGameOver
	e.endedAt = time.Now()
	e.log.Append(e.round, sdb.EventGameEnd, map[string]any{"forced": true}, nil, false)
}

func (e *Engine) Events() []sdb.Event { return e.log.All() }

func (e *Engine) Result() sdb.GameResult {
	stats := make(map[sdb.PlayerID]sdb.PlayerStats, len(e.stats))
	for id, s := range e.stats {
		stats[id] = *s
	}
	dur := 0.0
	if !e.endedAt.IsZero() {
		dur = e.endedAt.Sub(e.startedAt).Seconds()
	}
	return sdb.GameResult{
		MatchID:         e.matchID,
		Game:            "werewolf",
		Winner:          e.winner,
		WinReason:       e.winReason,
		Rounds:          e.round,
		DurationSeconds: dur,
		PerPlayerStats:  stats,
		StartedAt:       e.startedAt,
		EndedAt:         e.endedAt,
	}
}
