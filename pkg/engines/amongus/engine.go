package amongus

import (
	"sort"
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Reset assigns roles and tasks and enters the first Task phase.
func (e *Engine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.assignRoles()
	e.log = sdb.NewLog(e.matchID)
	e.startedAt = time.Now()
	e.completedTasks = 0
	e.round = 0
	e.done = false

	e.stats = make(map[sdb.PlayerID]*sdb.PlayerStats, e.numPlayers)
	for _, p := range e.players {
		e.stats[p.ID] = &sdb.PlayerStats{Role: string(p.Role), Alive: true}
	}

	e.log.Append(e.round, sdb.EventGameStart, map[string]any{
		"num_players": e.numPlayers, "num_impostors": e.numImpostors, "total_tasks": e.totalTasks,
	}, nil, false)
	e.phase = PhaseTask
	return e.Observations()
}

func (e *Engine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	switch e.phase {
	case PhaseTask:
		e.stepTask(actions)
	case PhaseDiscussion:
		e.stepDiscussion(actions)
	case PhaseVoting:
		e.stepVoting(actions)
	}

	var scores map[sdb.PlayerID]float64
	if e.done {
		scores = e.finalScores()
	}
	return e.Observations(), scores, e.done, sdb.StepInfo{"phase": string(e.phase), "round": e.round}
}

// sortedLiving returns living player IDs in ascending order, the fixed
// deterministic queue spec.md's "first valid X wins" rules iterate over.
func (e *Engine) sortedLiving() []sdb.PlayerID {
	ids := e.livingPlayers()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) stepTask(actions map[sdb.PlayerID]sdb.Action) {
	e.round++
	for i := range e.players {
		if e.players[i].Alive && e.players[i].isImpostor() && e.players[i].Cooldown > 0 {
			e.players[i].Cooldown--
		}
	}

	// (1) moves
	for _, pid := range e.sortedLiving() {
		act, ok := actions[pid]
		if !ok || act.Kind != "move" {
			continue
		}
		e.applyMove(pid, act)
	}

	// (2) vents
	for _, pid := range e.sortedLiving() {
		act, ok := actions[pid]
		if !ok || act.Kind != "vent" {
			continue
		}
		e.applyVent(pid, act)
	}

	// (3) kills, evaluated against post-move/vent positions
	for _, pid := range e.sortedLiving() {
		act, ok := actions[pid]
		if !ok || act.Kind != "kill" {
			continue
		}
		e.applyKill(pid, act)
	}
	if e.checkWinConditions() {
		return
	}

	// (4) body reports
	reporter, reported := sdb.PlayerID(-1), false
	for _, pid := range e.sortedLiving() {
		act, ok := actions[pid]
		if !ok || act.Kind != "report_body" {
			continue
		}
		if e.validReport(pid) {
			reporter, reported = pid, true
			break
		}
		e.log.AppendThrottled(e.round, sdb.EventError, codeNoCorpseInRoom, "no reportable corpse in current room", pid, throttleCooldown)
	}

	// (5) emergency calls — only considered if no report fired this step
	var emergencyCaller sdb.PlayerID = -1
	if !reported {
		for _, pid := range e.sortedLiving() {
			act, ok := actions[pid]
			if !ok || act.Kind != "call_meeting" {
				continue
			}
			if e.validEmergency(pid) {
				emergencyCaller = pid
				break
			}
		}
	} else {
		for _, pid := range e.sortedLiving() {
			if act, ok := actions[pid]; ok && act.Kind == "call_meeting" {
				e.log.AppendThrottled(e.round, sdb.EventError, codeReportPrecedence, "body report takes precedence over emergency call this step", pid, throttleCooldown)
			}
		}
	}

	// (6) task completions
	for _, pid := range e.sortedLiving() {
		act, ok := actions[pid]
		if !ok || act.Kind != "complete_task" {
			continue
		}
		e.applyTaskCompletion(pid, act)
	}
	if e.checkWinConditions() {
		return
	}

	if reported {
		e.startMeeting(reporter, -1)
		return
	}
	if emergencyCaller != -1 {
		e.players[emergencyCaller].EmergencyUsed = true
		e.startMeeting(-1, emergencyCaller)
		return
	}

	if e.round >= e.roundCap {
		e.endGame("impostors", "round limit reached without resolution")
	}
}

func (e *Engine) applyMove(pid sdb.PlayerID, act sdb.Action) {
	room, ok := roomArg(act.Data)
	p := &e.players[pid]
	if !ok || !e.world.isRoom(room) || !e.world.corridorAdjacent(p.Location, room) {
		e.log.AppendThrottled(e.round, sdb.EventError, codeNotAdjacentRoom, "target room is not corridor-adjacent", pid, throttleCooldown)
		return
	}
	p.Location = room
	e.bumpActions(pid)
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "move", "room": string(room)}, nil, false)
}

func (e *Engine) applyVent(pid sdb.PlayerID, act sdb.Action) {
	p := &e.players[pid]
	if !p.isImpostor() {
		e.log.AppendThrottled(e.round, sdb.EventError, codeNotImpostor, "only impostors may vent", pid, throttleCooldown)
		return
	}
	room, ok := roomArg(act.Data)
	if !ok || !e.world.isRoom(room) || !e.world.ventAdjacent(p.Location, room) {
		e.log.AppendThrottled(e.round, sdb.EventError, codeNotVentAdjacent, "target room is not vent-adjacent", pid, throttleCooldown)
		return
	}
	p.Location = room
	e.bumpActions(pid)
	pp := pid
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "vent", "room": string(room)}, &pp, true)
}

func (e *Engine) applyKill(pid sdb.PlayerID, act sdb.Action) {
	killer := &e.players[pid]
	if !killer.isImpostor() {
		e.log.AppendThrottled(e.round, sdb.EventError, codeNotImpostor, "only impostors may kill", pid, throttleCooldown)
		return
	}
	if killer.Cooldown > 0 {
		e.log.AppendThrottled(e.round, sdb.EventError, codeOnCooldown, "kill is on cooldown", pid, throttleCooldown)
		return
	}
	target, ok := targetArg(act.Data)
	if !ok || target == pid {
		e.log.AppendThrottled(e.round, sdb.EventError, codeTargetSelf, "invalid or self kill target", pid, throttleCooldown)
		return
	}
	if !e.alive(target) {
		e.log.AppendThrottled(e.round, sdb.EventError, codeTargetNotAlive, "kill target is not alive", pid, throttleCooldown)
		return
	}
	if e.players[target].Location != killer.Location {
		e.log.AppendThrottled(e.round, sdb.EventError, codeTargetDifferentRoom, "kill target is in a different room after moves", pid, throttleCooldown)
		return
	}
	e.players[target].Alive = false
	killer.Cooldown = e.killCooldown
	e.bumpActions(pid)
	if s, ok := e.stats[target]; ok {
		s.Alive = false
		s.EliminatedOn = e.round
	}
	pp := pid
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "kill", "target": int(target), "room": string(killer.Location)}, &pp, true)
}

func (e *Engine) validReport(pid sdb.PlayerID) bool {
	room := e.players[pid].Location
	for _, p := range e.players {
		if !p.Alive && p.Location != Ejected && p.Location == room {
			return true
		}
	}
	return false
}

func (e *Engine) validEmergency(pid sdb.PlayerID) bool {
	p := &e.players[pid]
	return p.Location == Cafeteria && !p.EmergencyUsed
}

func (e *Engine) applyTaskCompletion(pid sdb.PlayerID, act sdb.Action) {
	p := &e.players[pid]
	idx, ok := taskIdxArg(act.Data)
	if !ok || idx < 0 || idx >= len(p.Tasks) {
		e.log.AppendThrottled(e.round, sdb.EventError, codeTaskNotAssigned, "task index not assigned to this player", pid, throttleCooldown)
		return
	}
	t := &p.Tasks[idx]
	if t.Done {
		e.log.AppendThrottled(e.round, sdb.EventError, codeTaskAlreadyDone, "task already completed", pid, throttleCooldown)
		return
	}
	if t.Room != p.Location {
		e.log.AppendThrottled(e.round, sdb.EventError, codeTaskWrongRoom, "must be in the task's room to complete it", pid, throttleCooldown)
		return
	}
	t.Done = true
	e.completedTasks++
	e.bumpActions(pid)
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "complete_task", "task": t.Name, "room": string(t.Room)}, nil, false)
}

func (e *Engine) startMeeting(reporter, emergencyCaller sdb.PlayerID) {
	e.phase = PhaseDiscussion
	e.discussRound = 0
	e.noStatementSteps = 0
	data := map[string]any{"phase": string(PhaseDiscussion)}
	if reporter != -1 {
		data["trigger"] = "body_report"
		data["reporter"] = int(reporter)
	} else {
		data["trigger"] = "emergency_call"
		data["caller"] = int(emergencyCaller)
	}
	e.log.Append(e.round, sdb.EventPhaseChange, data, nil, false)
}

func (e *Engine) stepDiscussion(actions map[sdb.PlayerID]sdb.Action) {
	anyStatement := false
	for _, pid := range e.sortedLiving() {
		act, ok := actions[pid]
		if !ok || act.Kind != "statement" {
			continue
		}
		text, _ := act.Data["text"].(string)
		e.bumpActions(pid)
		anyStatement = true
		e.log.Append(e.round, sdb.EventDiscussion, map[string]any{"player": int(pid), "text": text}, nil, false)
	}

	if anyStatement {
		e.noStatementSteps = 0
	} else {
		e.noStatementSteps++
	}
	e.discussRound++

	if e.discussRound >= e.discussRounds || e.noStatementSteps >= e.votingTimeout {
		e.phase = PhaseVoting
		e.votes = make(map[sdb.PlayerID]*sdb.PlayerID)
		e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseVoting)}, nil, false)
	}
}

func (e *Engine) stepVoting(actions map[sdb.PlayerID]sdb.Action) {
	living := e.sortedLiving()
	tally := make(map[sdb.PlayerID]int) // -1 key used for skip
	const skipKey = sdb.PlayerID(-1)

	for _, pid := range living {
		var choice sdb.PlayerID = skipKey
		if act, ok := actions[pid]; ok && act.Kind == "vote" {
			if skip, _ := act.Data["skip"].(bool); skip {
				choice = skipKey
			} else if t, ok := targetArg(act.Data); ok && e.alive(t) {
				choice = t
			}
		}
		tally[choice]++
		e.bumpVotes(pid)
		e.log.Append(e.round, sdb.EventVoteCast, map[string]any{"player": int(pid), "choice": int(choice)}, nil, false)
	}

	best, bestCount, tie := skipKey, 0, false
	for choice, n := range tally {
		switch {
		case n > bestCount:
			best, bestCount, tie = choice, n, false
		case n == bestCount:
			tie = true
		}
	}

	ejected := sdb.PlayerID(-1)
	if !tie && best != skipKey {
		ejected = best
	}

	if ejected != -1 {
		e.players[ejected].Alive = false
		e.players[ejected].Location = Ejected
		if s, ok := e.stats[ejected]; ok {
			s.Alive = false
			s.EliminatedOn = e.round
		}
		e.log.Append(e.round, sdb.EventPlayerEliminated, map[string]any{
			"player": int(ejected), "role": string(e.players[ejected].Role), "method": "ejected",
		}, nil, false)
	} else {
		e.log.Append(e.round, sdb.EventInfo, map[string]any{"ejection": "none", "tie": tie}, nil, false)
	}

	for i := range e.players {
		if e.players[i].Alive {
			e.players[i].Location = Cafeteria
		}
		if e.players[i].isImpostor() {
			e.players[i].Cooldown = e.killCooldown
		}
	}

	e.round++
	if e.checkWinConditions() {
		return
	}

	e.phase = PhaseTask
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseTask)}, nil, false)

	if e.round >= e.roundCap {
		e.endGame("impostors", "round limit reached without resolution")
	}
}

// checkWinConditions evaluates spec.md §4.7's win table and, if met, ends
// the game. Returns whether the game ended.
func (e *Engine) checkWinConditions() bool {
	if e.done {
		return true
	}
	if e.livingImpostors() == 0 {
		e.endGame("crewmates", "all impostors eliminated")
		return true
	}
	if e.taskRatio() >= 1 {
		e.endGame("crewmates", "all tasks completed")
		return true
	}
	if e.livingImpostors() >= e.livingCrewmates() {
		e.endGame("impostors", "impostors outnumber or equal crewmates")
		return true
	}
	return false
}

func (e *Engine) endGame(winner, reason string) {
	e.done = true
	e.winner = winner
	e.winReason = reason
	e.phase = PhaseGameEnd
	e.endedAt = time.Now()
	e.log.Append(e.round, sdb.EventGameEnd, map[string]any{"winner": winner, "reason": reason}, nil, false)
}

func (e *Engine) finalScores() map[sdb.PlayerID]float64 {
	scores := make(map[sdb.PlayerID]float64, e.numPlayers)
	for _, p := range e.players {
		score := 0.0
		won := (e.winner == "crewmates" && !p.isImpostor()) || (e.winner == "impostors" && p.isImpostor())
		if won {
			score = 1
		}
		scores[p.ID] = score
		if s, ok := e.stats[p.ID]; ok {
			s.Score = score
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
	e.phase = PhaseGameEnd
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
		Game:            "amongus",
		Winner:          e.winner,
		WinReason:       e.winReason,
		Rounds:          e.round,
		DurationSeconds: dur,
		PerPlayerStats:  stats,
		Metadata:        map[string]any{"total_tasks": e.totalTasks, "completed_tasks": e.completedTasks},
		StartedAt:       e.startedAt,
		EndedAt:         e.endedAt,
	}
}
