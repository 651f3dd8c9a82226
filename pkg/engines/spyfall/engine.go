package spyfall

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Reset deals the location/roles and enters the first Q&A turn.
func (e *Engine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.deal()
	e.log = sdb.NewLog(e.matchID)
	e.startedAt = time.Now()
	e.stats = make(map[sdb.PlayerID]*sdb.PlayerStats, e.numPlayers)
	for _, p := range e.players {
		role := p.Role
		if p.IsSpy {
			role = "spy"
		}
		e.stats[p.ID] = &sdb.PlayerStats{Role: role, Alive: true}
	}
	e.round = 0
	e.turnsUsed = 0
	e.asker = 0
	e.answerer = -1
	e.hasCannotAsk = false
	e.accusationInitiated = false
	e.identifiedBy = -1
	e.done = false

	e.log.Append(e.round, sdb.EventGameStart, map[string]any{"num_players": e.numPlayers}, nil, false)
	e.phase = PhaseQandA
	return e.Observations()
}

func (e *Engine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	switch e.phase {
	case PhaseQandA:
		e.stepQandA(actions)
	case PhaseAccusationVote:
		e.stepAccusationVote(actions)
	case PhaseFinalVote:
		e.stepFinalVote(actions)
	case PhaseSpyGuess:
		e.stepSpyGuess(actions)
	}

	var scores map[sdb.PlayerID]float64
	if e.done {
		scores = e.finalScores()
	}
	return e.Observations(), scores, e.done, sdb.StepInfo{"phase": string(e.phase)}
}

func (e *Engine) stepQandA(actions map[sdb.PlayerID]sdb.Action) {
	// One-shot accusation takes priority over the scheduled ask/answer: the
	// first eligible accuser in ascending ID order who submits one this step
	// wins the race.
	for _, p := range e.nonSpies() {
		if e.players[p].Accused {
			continue
		}
		act, ok := actions[p]
		if !ok || act.Kind != "accuse" {
			continue
		}
		n, okN := toInt(act.Data["target"])
		if !okN || sdb.PlayerID(n) == p || !e.isAlivePlayer(sdb.PlayerID(n)) {
			continue
		}
		e.players[p].Accused = true
		e.accusedBy = p
		e.suspect = sdb.PlayerID(n)
		e.bumpActions(p)
		e.enterAccusationVote()
		return
	}

	// One-shot spy location guess, blocked once any accusation has fired.
	spy := e.spyID()
	if !e.accusationInitiated && !e.players[spy].SpyTried {
		if act, ok := actions[spy]; ok && act.Kind == "guess_location" {
			name, _ := act.Data["location"].(string)
			e.players[spy].SpyTried = true
			e.bumpActions(spy)
			e.resolveSpyGuess(name, true)
			return
		}
	}

	if !e.hasAnswerer() {
		e.processAsk(actions)
	} else {
		e.processAnswer(actions)
	}
}

func (e *Engine) hasAnswerer() bool { return e.answerer != -1 }

func (e *Engine) processAsk(actions map[sdb.PlayerID]sdb.Action) {
	target, ok := sdb.PlayerID(-1), false
	if act, has := actions[e.asker]; has && act.Kind == "ask" {
		if n, okN := toInt(act.Data["target"]); okN {
			t := sdb.PlayerID(n)
			if t != e.asker && e.isAlivePlayer(t) && !(e.hasCannotAsk && t == e.cannotAskBack) {
				target = t
				ok = true
			}
		}
	}
	if !ok {
		for _, p := range e.alivePlayers() {
			if p != e.asker && !(e.hasCannotAsk && p == e.cannotAskBack) {
				target = p
				ok = true
				break
			}
		}
		e.log.AppendThrottled(e.round, sdb.EventError, "invalid_ask_target", "defaulted to first eligible target", e.asker, time.Minute)
	}
	e.bumpActions(e.asker)
	e.answerer = target
	e.round++
	e.turnsUsed++
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "ask", "asker": int(e.asker), "target": int(target)}, nil, false)

	if e.turnsUsed >= e.maxTurns {
		e.enterFinalVote()
	}
}

func (e *Engine) processAnswer(actions map[sdb.PlayerID]sdb.Action) {
	text := ""
	if act, ok := actions[e.answerer]; ok && act.Kind == "answer" {
		text, _ = act.Data["text"].(string)
	}
	e.bumpActions(e.answerer)
	e.round++
	e.turnsUsed++
	e.log.Append(e.round, sdb.EventDiscussion, map[string]any{"asker": int(e.asker), "answerer": int(e.answerer), "text": text}, nil, false)

	e.cannotAskBack, e.hasCannotAsk = e.asker, true
	e.asker = e.answerer
	e.answerer = -1

	if e.turnsUsed >= e.maxTurns {
		e.enterFinalVote()
	}
}

func (e *Engine) isAlivePlayer(p sdb.PlayerID) bool {
	return p >= 0 && int(p) < len(e.players)
}

func (e *Engine) alivePlayers() []sdb.PlayerID {
	out := make([]sdb.PlayerID, e.numPlayers)
	for i := range e.players {
		out[i] = sdb.PlayerID(i)
	}
	return out // nobody is ever eliminated in Spyfall
}

func (e *Engine) enterAccusationVote() {
	e.accusationInitiated = true
	e.phase = PhaseAccusationVote
	e.votes = make(map[sdb.PlayerID]bool)
	e.log.Append(e.round, sdb.EventPhaseChange,
		map[string]any{"phase": string(PhaseAccusationVote), "accuser": int(e.accusedBy), "suspect": int(e.suspect)}, nil, false)
}

func (e *Engine) voters(excluding sdb.PlayerID) []sdb.PlayerID {
	var out []sdb.PlayerID
	for _, p := range e.alivePlayers() {
		if p != excluding {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) stepAccusationVote(actions map[sdb.PlayerID]sdb.Action) {
	voters := e.voters(e.suspect)
	votes := make(map[sdb.PlayerID]bool, len(voters))
	for _, id := range voters {
		yes := false
		if act, ok := actions[id]; ok && act.Kind == "vote" {
			yes, _ = act.Data["guilty"].(bool)
		}
		votes[id] = yes
		e.bumpVotes(id)
		e.log.Append(e.round, sdb.EventVoteCast, map[string]any{"player": int(id), "guilty": yes}, nil, false)
	}

	unanimous := tallyUnanimous(votes, voters)
	e.log.Append(e.round, sdb.EventElectionResult, map[string]any{"unanimous": unanimous, "suspect": int(e.suspect)}, nil, false)

	if unanimous {
		e.identifiedBy = e.accusedBy
		if e.suspect == e.spyID() {
			e.endGame("non-spies", "accusation correctly identified the spy")
		} else {
			e.endGame("spy", "accusation wrongly targeted an innocent player")
		}
		return
	}

	if e.turnsUsed >= e.maxTurns {
		e.enterFinalVote()
		return
	}
	e.phase = PhaseQandA
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseQandA), "reason": "accusation failed"}, nil, false)
}

func (e *Engine) enterFinalVote() {
	e.phase = PhaseFinalVote
	e.finalOrder = e.alivePlayers()
	e.finalNominationIdx = 0
	e.votes = make(map[sdb.PlayerID]bool)
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseFinalVote)}, nil, false)
}

func (e *Engine) stepFinalVote(actions map[sdb.PlayerID]sdb.Action) {
	suspect := e.finalOrder[e.finalNominationIdx]
	voters := e.voters(suspect)
	votes := make(map[sdb.PlayerID]bool, len(voters))
	for _, id := range voters {
		yes := false
		if act, ok := actions[id]; ok && act.Kind == "vote" {
			yes, _ = act.Data["guilty"].(bool)
		}
		votes[id] = yes
		e.bumpVotes(id)
		e.log.Append(e.round, sdb.EventVoteCast, map[string]any{"player": int(id), "suspect": int(suspect), "guilty": yes}, nil, false)
	}

	promoted := tallyMajority(votes, voters)
	e.log.Append(e.round, sdb.EventElectionResult, map[string]any{"promoted": promoted, "suspect": int(suspect)}, nil, false)

	if promoted {
		e.suspect = suspect
		if suspect == e.spyID() {
			e.identifiedBy = suspect
			e.phase = PhaseSpyGuess
			e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseSpyGuess)}, nil, false)
		} else {
			e.endGame("spy", "final vote wrongly targeted an innocent player")
		}
		return
	}

	e.finalNominationIdx++
	if e.finalNominationIdx >= len(e.finalOrder) {
		e.endGame("spy", "spy unidentified after exhausting the final vote")
		return
	}
}

func (e *Engine) stepSpyGuess(actions map[sdb.PlayerID]sdb.Action) {
	spy := e.spyID()
	name := ""
	if act, ok := actions[spy]; ok && act.Kind == "guess_location" {
		name, _ = act.Data["location"].(string)
	}
	e.bumpActions(spy)
	e.resolveSpyGuess(name, false)
}

func (e *Engine) resolveSpyGuess(name string, voluntary bool) {
	correct := name == e.location
	e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{"action": "guess_location", "guess": name, "correct": correct}, nil, false)
	if correct {
		e.spyGuessedCorrectly = true
		reason := "spy guessed the location correctly"
		if voluntary {
			reason = "spy voluntarily guessed the location correctly before any accusation"
		}
		e.endGame("spy", reason)
	} else {
		e.endGame("non-spies", "spy guessed the wrong location")
	}
}

func (e *Engine) endGame(winner, reason string) {
	e.done = true
	e.winner = winner
	e.winReason = reason
	e.phase = PhaseGameOver
	e.endedAt = time.Now()
	e.log.Append(e.round, sdb.EventGameEnd, map[string]any{"winner": winner, "reason": reason, "location": e.location}, nil, false)
}

// finalScores implements spec.md §4.5's scoring rule: non-spies each get 1
// for identifying the spy; the spy gets 1 if unidentified at the end, 2 if
// a correct location guess won the game.
func (e *Engine) finalScores() map[sdb.PlayerID]float64 {
	scores := make(map[sdb.PlayerID]float64, e.numPlayers)
	spy := e.spyID()
	switch e.winner {
	case "non-spies":
		for _, p := range e.nonSpies() {
			scores[p] = 1
		}
	case "spy":
		if e.spyGuessedCorrectly {
			scores[spy] = 2
		} else {
			scores[spy] = 1
		}
	}
	for _, p := range e.players {
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
		Game:            "spyfall",
		Winner:          e.winner,
		WinReason:       e.winReason,
		Rounds:          e.round,
		DurationSeconds: dur,
		PerPlayerStats:  stats,
		Metadata:        map[string]any{"location": e.location, "spy": int(e.spyID())},
		StartedAt:       e.startedAt,
		EndedAt:         e.endedAt,
	}
}
