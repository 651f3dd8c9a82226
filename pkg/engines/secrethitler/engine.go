package secrethitler

import (
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Reset deals roles, shuffles the policy deck, and enters the first
// nomination phase. It implements sdb.Engine.
func (e *Engine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.assignRoles()
	e.newDeck()
	e.log = sdb.NewLog(e.matchID)
	e.startedAt = time.Now()
	e.investigated = make(map[sdb.PlayerID]bool)
	e.stats = make(map[sdb.PlayerID]*sdb.PlayerStats, e.numPlayers)
	for _, p := range e.players {
		e.stats[p.ID] = &sdb.PlayerStats{Role: string(p.Role), Team: string(p.Party), Alive: true}
	}
	e.presidentIdx = 0
	e.round = 1
	e.done = false
	e.winner = ""
	e.winReason = ""

	e.log.Append(e.round, sdb.EventGameStart, map[string]any{"num_players": e.numPlayers}, nil, false)
	e.enterNomination()
	return e.Observations()
}

func (e *Engine) enterNomination() {
	e.phase = PhaseNomination
	e.hasNominee = false
	e.votes = make(map[sdb.PlayerID]bool)
	pres := e.president()
	e.log.Append(e.round, sdb.EventPhaseChange,
		map[string]any{"phase": string(PhaseNomination), "president": int(pres)}, nil, false)
}

// Step advances the engine by one phase transition, implementing sdb.Engine.
func (e *Engine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	switch e.phase {
	case PhaseNomination:
		e.stepNomination(actions)
	case PhaseDiscussion:
		e.stepDiscussion(actions)
	case PhaseVoting:
		e.stepVoting(actions)
	case PhaseLegislativePresident:
		e.stepPresidentDiscard(actions)
	case PhaseLegislativeChancellor:
		e.stepChancellorEnact(actions)
	case PhaseVetoResponse:
		e.stepVetoResponse(actions)
	case PhasePower:
		e.stepPower(actions)
	}

	var scores map[sdb.PlayerID]float64
	if e.done {
		scores = e.finalScores()
	}
	return e.Observations(), scores, e.done, sdb.StepInfo{"phase": string(e.phase)}
}

func (e *Engine) stepNomination(actions map[sdb.PlayerID]sdb.Action) {
	pres := e.president()
	legal := e.legalNominees()

	target, ok := e.readTarget(actions, pres, "target")
	if !ok || !e.isLegalNominee(target) {
		if len(legal) == 0 {
			// Should not happen for 5-10 players; fail safe to the president
			// themself rather than deadlock.
			target = pres
		} else {
			target = legal[0]
		}
		e.log.AppendThrottled(e.round, sdb.EventError, "invalid_nominee", "fell back to first legal nominee", pres, time.Minute)
	}
	e.bumpActions(pres)

	e.chancellorNominee = target
	e.hasNominee = true
	e.log.Append(e.round, sdb.EventPlayerNominate, map[string]any{"president": int(pres), "nominee": int(target)}, nil, false)

	e.phase = PhaseDiscussion
}

func (e *Engine) stepDiscussion(actions map[sdb.PlayerID]sdb.Action) {
	for _, id := range e.alivePlayers() {
		act, ok := actions[id]
		if !ok || act.Kind != "statement" {
			continue
		}
		e.bumpActions(id)
		text, _ := act.Data["text"].(string)
		e.log.Append(e.round, sdb.EventDiscussion, map[string]any{"player": int(id), "text": text}, nil, false)
	}
	e.phase = PhaseVoting
	e.votes = make(map[sdb.PlayerID]bool)
}

func (e *Engine) stepVoting(actions map[sdb.PlayerID]sdb.Action) {
	alive := e.alivePlayers()
	votes := make(map[sdb.PlayerID]bool, len(alive))
	for _, id := range alive {
		ja := false
		if act, ok := actions[id]; ok && act.Kind == "vote" {
			ja, _ = act.Data["ja"].(bool)
			e.bumpActions(id)
			e.bumpVotes(id)
		} else {
			e.log.AppendThrottled(e.round, sdb.EventError, "missing_vote", "defaulted to nein", id, time.Minute)
		}
		votes[id] = ja
		e.log.Append(e.round, sdb.EventVoteCast, map[string]any{"player": int(id), "ja": ja}, nil, false)
	}

	ja, nein, passed := tallyVotes(votes, alive)
	e.log.Append(e.round, sdb.EventElectionResult,
		map[string]any{"passed": passed, "ja": ja, "nein": nein, "president": int(e.president()), "nominee": int(e.chancellorNominee)}, nil, false)

	if !passed {
		e.electionTracker++
		if e.electionTracker >= 3 {
			e.enactChaosPolicy()
			if e.done {
				return
			}
			e.electionTracker = 0
			e.termLimitWaived = true
		}
		e.nextNomination()
		return
	}

	pres := e.president()
	nominee := e.chancellorNominee
	e.lastPresident = &pres
	e.lastChancellor = &nominee
	e.electionTracker = 0
	e.termLimitWaived = false

	if e.fascistEnacted >= 3 && nominee == e.hitlerID() {
		e.endGame("fascist", "hitler elected chancellor after three fascist policies")
		return
	}

	e.phase = PhaseLegislativePresident
	e.drawnPolicies = e.draw(3)
}

func (e *Engine) stepPresidentDiscard(actions map[sdb.PlayerID]sdb.Action) {
	pres := e.president()
	idx, ok := e.readIndex(actions, pres, "discard_index", len(e.drawnPolicies))
	if !ok {
		idx = 0
		e.log.AppendThrottled(e.round, sdb.EventError, "invalid_discard", "fell back to first drawn policy", pres, time.Minute)
	}
	e.bumpActions(pres)

	discarded := e.drawnPolicies[idx]
	e.discard = append(e.discard, discarded)

	e.toChancellor = nil
	for i, p := range e.drawnPolicies {
		if i != idx {
			e.toChancellor = append(e.toChancellor, p)
		}
	}
	e.vetoProposed = false
	e.phase = PhaseLegislativeChancellor
}

func (e *Engine) stepChancellorEnact(actions map[sdb.PlayerID]sdb.Action) {
	ch := e.chancellorNominee
	act, hasAct := actions[ch]

	if hasAct && act.Kind == "propose_veto" && e.vetoUnlocked && !e.vetoProposed {
		e.vetoProposed = true
		e.bumpActions(ch)
		e.log.Append(e.round, sdb.EventVetoProposed, map[string]any{"chancellor": int(ch)}, nil, false)
		e.phase = PhaseVetoResponse
		return
	}

	idx, ok := e.readIndex(actions, ch, "enact_index", len(e.toChancellor))
	if !ok {
		idx = 0
		e.log.AppendThrottled(e.round, sdb.EventError, "invalid_enact", "fell back to first of two policies", ch, time.Minute)
	}
	e.bumpActions(ch)

	enacted := e.toChancellor[idx]
	discarded := e.toChancellor[1-idx]
	e.discard = append(e.discard, discarded)
	e.resolveEnactment(enacted)
}

func (e *Engine) stepVetoResponse(actions map[sdb.PlayerID]sdb.Action) {
	pres := e.president()
	accept := false
	if act, ok := actions[pres]; ok && act.Kind == "veto_response" {
		accept, _ = act.Data["accept"].(bool)
		e.bumpActions(pres)
	} else {
		e.log.AppendThrottled(e.round, sdb.EventError, "missing_veto_response", "defaulted to rejecting the veto", pres, time.Minute)
	}
	e.log.Append(e.round, sdb.EventVetoResponse, map[string]any{"president": int(pres), "accepted": accept}, nil, false)

	if accept {
		e.discard = append(e.discard, e.toChancellor...)
		e.electionTracker++
		if e.electionTracker >= 3 {
			e.enactChaosPolicy()
			if e.done {
				return
			}
			e.electionTracker = 0
			e.termLimitWaived = true
		}
		e.nextNomination()
		return
	}

	e.phase = PhaseLegislativeChancellor
}

func (e *Engine) stepPower(actions map[sdb.PlayerID]sdb.Action) {
	pres := e.president()

	switch e.pendingPower {
	case PowerInvestigate:
		eligible := e.eligibleTargets(pres, e.investigated)
		target, ok := e.readTarget(actions, pres, "target")
		if !ok || !containsID(eligible, target) {
			if len(eligible) > 0 {
				target = eligible[0]
			} else {
				target = pres
			}
		}
		e.bumpActions(pres)
		e.investigated[target] = true
		party := e.players[target].Party
		e.log.Append(e.round, sdb.EventInvestigationResult,
			map[string]any{"target": int(target), "party": string(party)}, &pres, true)

	case PowerSpecialElection:
		eligible := e.eligibleTargets(pres, nil)
		target, ok := e.readTarget(actions, pres, "target")
		if !ok || !containsID(eligible, target) {
			alive := e.alivePlayers()
			target = alive[(e.presidentIdx+1)%len(alive)]
		}
		e.bumpActions(pres)

		alive := e.alivePlayers()
		returnTo := (e.presidentIdx + 1) % len(alive)
		for i, id := range alive {
			if id == target {
				e.presidentIdx = i
				break
			}
		}
		e.specialElectionReturnTo = returnTo
		e.usingSpecialElectionReturn = true
		e.log.Append(e.round, sdb.EventPresidentialPower,
			map[string]any{"power": string(PowerSpecialElection), "target": int(target)}, nil, false)
		e.nextNomination()
		return

	case PowerExecution:
		eligible := e.eligibleTargets(pres, nil)
		target, ok := e.readTarget(actions, pres, "target")
		if !ok || !containsID(eligible, target) {
			if len(eligible) > 0 {
				target = eligible[0]
			}
		}
		e.bumpActions(pres)
		e.killPlayer(target)
		e.log.Append(e.round, sdb.EventPlayerEliminated,
			map[string]any{"target": int(target), "cause": "execution"}, nil, false)
		if target == e.hitlerID() {
			e.endGame("liberal", "hitler executed")
			return
		}
	}

	e.nextNomination()
}

// enactChaosPolicy enacts the top deck card with no discard, triggered when
// the election tracker reaches 3.
func (e *Engine) enactChaosPolicy() {
	card := e.draw(1)[0]
	e.log.Append(e.round, sdb.EventPolicyEnacted,
		map[string]any{"policy": string(card), "source": "chaos"}, nil, false)
	e.applyPolicyCounts(card)
}

// resolveEnactment applies a chancellor-enacted policy and, if it was
// fascist, resolves the presidential power it unlocks.
func (e *Engine) resolveEnactment(card Policy) {
	e.log.Append(e.round, sdb.EventPolicyEnacted,
		map[string]any{"policy": string(card), "liberal_total": e.liberalEnacted + boolToInt(card == PolicyLiberal), "fascist_total": e.fascistEnacted + boolToInt(card == PolicyFascist)}, nil, false)
	wasFascist := card == PolicyFascist
	e.applyPolicyCounts(card)
	if e.done {
		return
	}
	if !wasFascist {
		e.nextNomination()
		return
	}

	power := presidentialPowerTable(e.numPlayers, e.fascistEnacted)
	switch power {
	case PowerNone:
		e.nextNomination()
	case PowerPolicyPeek:
		e.resolvePolicyPeek()
		e.nextNomination()
	default:
		e.pendingPower = power
		e.phase = PhasePower
		e.log.Append(e.round, sdb.EventPresidentialPower,
			map[string]any{"power": string(power), "pending": true, "president": int(e.president())}, nil, false)
	}
}

func (e *Engine) resolvePolicyPeek() {
	pres := e.president()
	top := make([]Policy, 0, 3)
	for i := 0; i < 3 && i < len(e.deck); i++ {
		top = append(top, e.deck[i])
	}
	e.log.Append(e.round, sdb.EventPresidentialPower,
		map[string]any{"power": string(PowerPolicyPeek), "top_policies": policiesToStrings(top), "president": int(pres)}, &pres, true)
}

func (e *Engine) applyPolicyCounts(card Policy) {
	if card == PolicyLiberal {
		e.liberalEnacted++
	} else {
		e.fascistEnacted++
	}
	if e.fascistEnacted >= 5 {
		e.vetoUnlocked = true
	}
	if e.liberalEnacted >= 5 {
		e.endGame("liberal", "five liberal policies enacted")
		return
	}
	if e.fascistEnacted >= 6 {
		e.endGame("fascist", "six fascist policies enacted")
	}
}

func (e *Engine) killPlayer(p sdb.PlayerID) {
	e.players[p].Alive = false
	if s, ok := e.stats[p]; ok {
		s.Alive = false
		s.EliminatedOn = e.round
	}
	if e.presidentIdx >= e.aliveCount() && e.aliveCount() > 0 {
		e.presidentIdx = e.presidentIdx % e.aliveCount()
	}
}

// nextNomination advances the round counter and moves the presidency to the
// next alive player, honoring a pending special-election return pointer.
func (e *Engine) nextNomination() {
	if e.done {
		return
	}
	e.round++
	alive := e.alivePlayers()
	if len(alive) == 0 {
		return
	}
	if e.usingSpecialElectionReturn {
		e.presidentIdx = e.specialElectionReturnTo % len(alive)
		e.usingSpecialElectionReturn = false
	} else {
		e.presidentIdx = (e.presidentIdx + 1) % len(alive)
	}
	e.enterNomination()
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
		won := (p.Party == Liberal && e.winner == "liberal") || (p.Party == Fascist && e.winner == "fascist")
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

func (e *Engine) readTarget(actions map[sdb.PlayerID]sdb.Action, actor sdb.PlayerID, field string) (sdb.PlayerID, bool) {
	act, ok := actions[actor]
	if !ok {
		return 0, false
	}
	v, ok := act.Data[field]
	if !ok {
		return 0, false
	}
	n, ok := toInt(v)
	if !ok {
		return 0, false
	}
	return sdb.PlayerID(n), true
}

func (e *Engine) readIndex(actions map[sdb.PlayerID]sdb.Action, actor sdb.PlayerID, field string, bound int) (int, bool) {
	act, ok := actions[actor]
	if !ok || act.Kind == "" {
		return 0, false
	}
	v, ok := act.Data[field]
	if !ok {
		return 0, false
	}
	n, ok := toInt(v)
	if !ok || n < 0 || n >= bound {
		return 0, false
	}
	return n, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func policiesToStrings(ps []Policy) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// Terminal reports whether the match has reached a win condition or was
// force-terminated.
func (e *Engine) Terminal() bool { return e.done }

// Winner returns "liberal", "fascist", or "" while the match is in progress.
func (e *Engine) Winner() string { return e.winner }

// WinReason returns a short human-readable reason, set alongside Winner.
func (e *Engine) WinReason() string { return e.winReason }

// ForceTerminate ends the match with no winner, used by the match driver's
// safety bound.
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

// Events returns the full append-only event log recorded so far.
func (e *Engine) Events() []sdb.Event { return e.log.All() }

// Result summarizes the match outcome and per-player stats.
func (e *Engine) Result() sdb.GameResult {
	stats := make(map[sdb.PlayerID]sdb.PlayerStats, len(e.stats))
	for id, s := range e.stats {
		s.Alive = e.isAlive(id)
		stats[id] = *s
	}
	dur := 0.0
	if !e.endedAt.IsZero() {
		dur = e.endedAt.Sub(e.startedAt).Seconds()
	}
	return sdb.GameResult{
		MatchID:         e.matchID,
		Game:            "secret_hitler",
		Winner:          e.winner,
		WinReason:       e.winReason,
		Rounds:          e.round,
		DurationSeconds: dur,
		PerPlayerStats:  stats,
		Metadata:        map[string]any{"liberal_enacted": e.liberalEnacted, "fascist_enacted": e.fascistEnacted},
		StartedAt:       e.startedAt,
		EndedAt:         e.endedAt,
	}
}
