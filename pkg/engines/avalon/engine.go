package avalon

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Reset deals roles and enters the first quest's team selection phase.
func (e *Engine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.assignRoles()
	e.log = sdb.NewLog(e.matchID)
	e.startedAt = time.Now()
	e.stats = make(map[sdb.PlayerID]*sdb.PlayerStats, e.numPlayers)
	for _, p := range e.players {
		e.stats[p.ID] = &sdb.PlayerStats{Role: string(p.Role), Team: string(p.Alignment), Alive: true}
	}
	e.round = 1
	e.questIndex = 0
	e.leaderIdx = 0
	e.proposalIdx = 0
	e.rejectionStreak = 0
	e.done = false

	e.log.Append(e.round, sdb.EventGameStart, map[string]any{"num_players": e.numPlayers}, nil, false)
	e.enterTeamSelection()
	return e.Observations()
}

func (e *Engine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	switch e.phase {
	case PhaseTeamSelection:
		e.stepTeamSelection(actions)
	case PhaseTeamDiscussion:
		e.stepTeamDiscussion(actions)
	case PhaseTeamVoting:
		e.stepTeamVoting(actions)
	case PhaseQuestVoting:
		e.stepQuestVoting(actions)
	case PhaseAssassination:
		e.stepAssassination(actions)
	}

	var scores map[sdb.PlayerID]float64
	if e.done {
		scores = e.finalScores()
	}
	return e.Observations(), scores, e.done, sdb.StepInfo{"phase": string(e.phase)}
}

func (e *Engine) stepTeamSelection(actions map[sdb.PlayerID]sdb.Action) {
	leader := e.leader()
	sizes := questSizes(e.numPlayers)
	size := sizes[e.questIndex]

	team, ok := false, false
	var proposed []sdb.PlayerID
	if act, has := actions[leader]; has && act.Kind == "propose_team" {
		proposed, ok = readTeam(act)
		team = ok && e.validTeam(proposed, size)
	}
	if !team {
		proposed = e.firstLegalTeam(size)
		e.log.AppendThrottled(e.round, sdb.EventError, "invalid_team_proposal", "fell back to first N players", leader, time.Minute)
	}
	e.bumpActions(leader)

	e.currentTeam = proposed
	e.proposalIdx++
	e.log.Append(e.round, sdb.EventPlayerAction,
		map[string]any{"action": "propose_team", "leader": int(e.leader()), "team": idsToInts(proposed), "proposal_idx": e.proposalIdx, "quest": e.questIndex}, nil, false)

	e.discussionOrder = e.buildDiscussionOrder()
	e.discussionIdx = 0
	e.seenStatements = make(map[sdb.PlayerID]map[string]bool)
	e.phase = PhaseTeamDiscussion
}

// firstLegalTeam falls back to the first size players in ascending ID order.
func (e *Engine) firstLegalTeam(size int) []sdb.PlayerID {
	out := make([]sdb.PlayerID, size)
	for i := 0; i < size; i++ {
		out[i] = sdb.PlayerID(i)
	}
	return out
}

func (e *Engine) buildDiscussionOrder() []sdb.PlayerID {
	order := make([]sdb.PlayerID, 0, e.numPlayers)
	order = append(order, e.leader())
	for i := 0; i < e.numPlayers; i++ {
		id := sdb.PlayerID(i)
		if id != e.leader() {
			order = append(order, id)
		}
	}
	return order
}

func (e *Engine) stepTeamDiscussion(actions map[sdb.PlayerID]sdb.Action) {
	if e.discussionIdx < len(e.discussionOrder) {
		speaker := e.discussionOrder[e.discussionIdx]
		if act, ok := actions[speaker]; ok && act.Kind == "statement" {
			text, _ := act.Data["text"].(string)
			norm := normalizeStatement(text)
			if e.seenStatements[speaker] == nil {
				e.seenStatements[speaker] = make(map[string]bool)
			}
			if norm != "" && !e.seenStatements[speaker][norm] {
				e.seenStatements[speaker][norm] = true
				e.bumpActions(speaker)
				e.log.Append(e.round, sdb.EventDiscussion, map[string]any{"player": int(speaker), "text": text}, nil, false)
			}
		}
		e.discussionIdx++
	}

	if e.discussionIdx >= len(e.discussionOrder) {
		e.phase = PhaseTeamVoting
		e.votes = make(map[sdb.PlayerID]bool)
	}
}

func (e *Engine) stepTeamVoting(actions map[sdb.PlayerID]sdb.Action) {
	alive := e.alivePlayers()
	votes := make(map[sdb.PlayerID]bool, len(alive))
	for _, id := range alive {
		approve := false
		if act, ok := actions[id]; ok && act.Kind == "vote" {
			approve, _ = act.Data["approve"].(bool)
			e.bumpActions(id)
			e.bumpVotes(id)
		} else {
			e.log.AppendThrottled(e.round, sdb.EventError, "missing_team_vote", "defaulted to reject", id, time.Minute)
		}
		votes[id] = approve
		e.log.Append(e.round, sdb.EventVoteCast, map[string]any{"player": int(id), "approve": approve}, nil, false)
	}

	approvals, rejections := 0, 0
	for _, v := range votes {
		if v {
			approvals++
		} else {
			rejections++
		}
	}
	passed := approvals > rejections
	e.log.Append(e.round, sdb.EventElectionResult,
		map[string]any{"passed": passed, "approvals": approvals, "rejections": rejections, "quest": e.questIndex}, nil, false)

	e.round++
	if !passed {
		e.rejectionStreak++
		if e.rejectionStreak >= 5 {
			e.endGame("evil", "5 consecutive team rejections")
			return
		}
		e.leaderIdx = (e.leaderIdx + 1) % e.numPlayers
		e.enterTeamSelection()
		return
	}

	e.rejectionStreak = 0
	e.phase = PhaseQuestVoting
	e.questBallots = make(map[sdb.PlayerID]bool)
}

func (e *Engine) stepQuestVoting(actions map[sdb.PlayerID]sdb.Action) {
	fails := 0
	for _, id := range e.currentTeam {
		success := true
		if act, ok := actions[id]; ok && act.Kind == "quest_vote" {
			ballotSuccess, _ := act.Data["success"].(bool)
			if e.players[id].Alignment == Good && !ballotSuccess {
				e.log.AppendThrottled(e.round, sdb.EventError, "good_player_fail_vote", "coerced to success", id, time.Minute)
				ballotSuccess = true
			}
			success = ballotSuccess
			e.bumpActions(id)
		} else {
			e.log.AppendThrottled(e.round, sdb.EventError, "missing_quest_ballot", "defaulted to success", id, time.Minute)
		}
		if !success {
			fails++
		}
	}

	needed := failsNeeded(e.numPlayers, e.questIndex)
	succeeded := fails < needed
	e.questResults = append(e.questResults, questResult{QuestIndex: e.questIndex, TeamSize: len(e.currentTeam), Fails: fails, Succeeded: succeeded})
	e.log.Append(e.round, sdb.EventQuestResult,
		map[string]any{"quest": e.questIndex, "fails": fails, "succeeded": succeeded}, nil, false)

	if succeeded {
		e.questsSucceeded++
	} else {
		e.questsFailed++
	}

	e.round++
	if e.questsFailed >= 3 {
		e.endGame("evil", "three failed quests")
		return
	}
	if e.questsSucceeded >= 3 {
		e.phase = PhaseAssassination
		e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseAssassination)}, nil, false)
		return
	}

	e.questIndex++
	e.leaderIdx = (e.leaderIdx + 1) % e.numPlayers
	e.enterTeamSelection()
}

func (e *Engine) stepAssassination(actions map[sdb.PlayerID]sdb.Action) {
	assassin := e.assassinID()
	goodTargets := e.goodIDs()

	target, ok := sdb.PlayerID(0), false
	if act, has := actions[assassin]; has && act.Kind == "assassinate" {
		if n, okN := toInt(act.Data["target"]); okN {
			target = sdb.PlayerID(n)
			ok = containsID(goodTargets, target)
		}
	}
	if !ok {
		if len(goodTargets) > 0 {
			target = goodTargets[0]
		}
	}
	e.bumpActions(assassin)

	e.log.Append(e.round, sdb.EventPlayerAction,
		map[string]any{"action": "assassinate", "assassin": int(assassin), "target": int(target)}, nil, false)

	if target == e.merlinID() {
		e.endGame("evil", "assassin correctly identified Merlin")
	} else {
		e.endGame("good", "assassin failed to identify Merlin")
	}
}

func (e *Engine) goodIDs() []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.players {
		if p.Alignment == Good {
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

func idsToInts(ids []sdb.PlayerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
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
		won := (p.Alignment == Good && e.winner == "good") || (p.Alignment == Evil && e.winner == "evil")
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
		Game:            "avalon",
		Winner:          e.winner,
		WinReason:       e.winReason,
		Rounds:          e.round,
		DurationSeconds: dur,
		PerPlayerStats:  stats,
		Metadata:        map[string]any{"quests_succeeded": e.questsSucceeded, "quests_failed": e.questsFailed},
		StartedAt:       e.startedAt,
		EndedAt:         e.endedAt,
	}
}
