package sheriff

import (
	"fmt"
	"sort"
	"time"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Reset deals hands to every player and opens the first round's Market
// phase with player 0 as the first sheriff.
func (e *Engine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.buildDeck()
	e.discardA, e.discardB = nil, nil
	e.log = sdb.NewLog(e.matchID)
	e.startedAt = time.Now()
	e.done = false
	e.round = 1
	e.sheriffIdx = 0

	e.players = make([]player, e.numPlayers)
	e.stats = make(map[sdb.PlayerID]*sdb.PlayerStats, e.numPlayers)
	for i := 0; i < e.numPlayers; i++ {
		pid := sdb.PlayerID(i)
		e.players[i] = player{ID: pid, Hand: e.draw(e.handSize), Gold: 50}
		e.stats[pid] = &sdb.PlayerStats{Alive: true}
	}

	e.log.Append(0, sdb.EventGameStart, map[string]any{"num_players": e.numPlayers}, nil, false)
	e.startRound()
	return e.Observations()
}

func (e *Engine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	switch e.phase {
	case PhaseMarket:
		e.stepMarket(actions)
	case PhaseLoadBag:
		e.stepLoadBag(actions)
	case PhaseDeclare:
		e.stepDeclare(actions)
	case PhaseNegotiate:
		e.stepNegotiate(actions)
	case PhaseInspect:
		e.stepInspect(actions)
	}

	var scores map[sdb.PlayerID]float64
	if e.done {
		scores = make(map[sdb.PlayerID]float64, e.numPlayers)
		for pid, s := range e.computeScores() {
			scores[pid] = float64(s)
		}
	}
	return e.Observations(), scores, e.done, sdb.StepInfo{"phase": string(e.phase), "round": e.round}
}

// --- Market ---

func (e *Engine) stepMarket(actions map[sdb.PlayerID]sdb.Action) {
	if e.marketAt >= len(e.queue) {
		e.enterLoadBag()
		return
	}
	merchant := e.queue[e.marketAt]
	p := &e.players[e.indexOf(merchant)]

	if act, ok := actions[merchant]; ok && act.Kind == "market" {
		discard := toIntMap(act.Data["discard"])
		pile, _ := act.Data["pile"].(string)
		source, _ := act.Data["draw_source"].(string)

		total := sumCounts(discard)
		ok := total > 0 && total <= len(p.Hand)
		if ok {
			for t, n := range discard {
				var removed int
				p.Hand, removed = removeByType(p.Hand, t, n)
				if removed != n {
					ok = false
				}
				for i := 0; i < removed; i++ {
					e.discardTo(pile, Card{Type: t})
				}
			}
		}
		if ok {
			drawn := e.drawFromSource(source, total)
			p.Hand = append(p.Hand, drawn...)
			e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{
				"action": "market", "player": int(merchant), "discarded": total, "drawn": len(drawn),
			}, nil, false)
		}
	}

	e.marketAt++
}

func (e *Engine) discardTo(pile string, c Card) {
	if pile == "B" {
		e.discardB = append(e.discardB, c)
	} else {
		e.discardA = append(e.discardA, c)
	}
}

func (e *Engine) drawFromSource(source string, n int) []Card {
	switch source {
	case "A":
		return e.drawFromPile(&e.discardA, n)
	case "B":
		return e.drawFromPile(&e.discardB, n)
	default:
		return e.draw(n)
	}
}

func (e *Engine) drawFromPile(pile *[]Card, n int) []Card {
	if n > len(*pile) {
		n = len(*pile)
	}
	tail := (*pile)[len(*pile)-n:]
	out := make([]Card, n)
	copy(out, tail)
	*pile = (*pile)[:len(*pile)-n]
	return out
}

func (e *Engine) enterLoadBag() {
	e.phase = PhaseLoadBag
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseLoadBag)}, nil, false)
}

// --- LoadBag ---

func (e *Engine) stepLoadBag(actions map[sdb.PlayerID]sdb.Action) {
	for _, merchant := range e.queue {
		p := &e.players[e.indexOf(merchant)]
		requested := map[GoodType]int{}
		if act, ok := actions[merchant]; ok && act.Kind == "load_bag" {
			requested = toIntMap(act.Data["cards"])
		}

		total := sumCounts(requested)
		valid := total >= 1 && total <= e.bagLimit
		if valid {
			handCounts := countByType(p.Hand)
			for t, n := range requested {
				if handCounts[t] < n {
					valid = false
					break
				}
			}
		}

		if !valid {
			e.log.AppendThrottled(e.round, sdb.EventError, codeBadLoad, "invalid or empty bag load, force-loading one card", merchant, throttleCooldown)
			requested = e.forceLoadOne(p)
		}

		var bag []Card
		for t, n := range requested {
			var removed int
			p.Hand, removed = removeByType(p.Hand, t, n)
			for i := 0; i < removed; i++ {
				bag = append(bag, Card{Type: t})
			}
		}
		p.Bag = bag
		e.bumpActions(merchant)
	}

	e.phase = PhaseDeclare
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseDeclare)}, nil, false)
}

func (e *Engine) forceLoadOne(p *player) map[GoodType]int {
	if len(p.Hand) == 0 {
		return map[GoodType]int{}
	}
	types := make([]string, 0, len(p.Hand))
	seen := map[GoodType]bool{}
	for _, c := range p.Hand {
		if !seen[c.Type] {
			seen[c.Type] = true
			types = append(types, string(c.Type))
		}
	}
	sort.Strings(types)
	return map[GoodType]int{GoodType(types[0]): 1}
}

// --- Declare ---

func (e *Engine) stepDeclare(actions map[sdb.PlayerID]sdb.Action) {
	for _, merchant := range e.queue {
		p := &e.players[e.indexOf(merchant)]
		decl := declaration{Type: Apple, Count: len(p.Bag)}

		if act, ok := actions[merchant]; ok && act.Kind == "declare" {
			typeStr, _ := act.Data["type"].(string)
			count, hasCount := toInt(act.Data["count"])
			if isLegalType(GoodType(typeStr)) && hasCount && count == len(p.Bag) {
				decl = declaration{Type: GoodType(typeStr), Count: count}
			} else {
				e.log.AppendThrottled(e.round, sdb.EventError, codeBadDeclare, "invalid declaration, defaulting to all apples", merchant, throttleCooldown)
			}
		} else {
			e.log.AppendThrottled(e.round, sdb.EventError, codeBadDeclare, "missing declaration, defaulting to all apples", merchant, throttleCooldown)
		}

		e.declared[merchant] = decl
		e.bumpActions(merchant)
		e.log.Append(e.round, sdb.EventPlayerAction, map[string]any{
			"action": "declare", "player": int(merchant), "type": string(decl.Type), "count": decl.Count,
		}, nil, false)
	}

	e.phase = PhaseNegotiate
	e.negotiateSub = subOffer
	e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseNegotiate)}, nil, false)
}

// --- Negotiate ---

func (e *Engine) stepNegotiate(actions map[sdb.PlayerID]sdb.Action) {
	if e.negotiateSub == subOffer {
		e.offers = make(map[sdb.PlayerID]offer)
		for _, merchant := range e.queue {
			p := &e.players[e.indexOf(merchant)]
			o := offer{StandGoods: map[GoodType]int{}, BagGoods: map[GoodType]int{}}
			if act, ok := actions[merchant]; ok && act.Kind == "offer" {
				gold, _ := toInt(act.Data["gold"])
				o.Gold = clamp(gold, 0, p.Gold)
				o.StandGoods = clampCounts(toIntMap(act.Data["stand_goods"]), countByType(p.Hand))
				o.BagGoods = clampCounts(toIntMap(act.Data["bag_goods"]), countByType(p.Bag))
				o.Promises, _ = act.Data["promises"].(string)
			}
			e.offers[merchant] = o
		}
		e.negotiateSub = subResponse
		return
	}

	// subResponse: sheriff responds to each merchant's offer.
	sheriff := e.sheriffID()
	decisions := map[string]any{}
	endEarly := false
	if act, ok := actions[sheriff]; ok && act.Kind == "respond" {
		if m, ok := act.Data["decisions"].(map[string]any); ok {
			decisions = m
		}
		endEarly, _ = act.Data["end_negotiation"].(bool)
	}

	for _, merchant := range e.queue {
		o := e.offers[merchant]
		if o.Gold == 0 && len(o.StandGoods) == 0 && len(o.BagGoods) == 0 {
			continue // nothing offered
		}
		decision, _ := decisions[fmt.Sprint(int(merchant))].(string)
		if decision != "accept" {
			continue // undecided merchants default to reject
		}
		e.acceptBribe(merchant, o)
	}

	e.negotiateRound++
	if endEarly || e.negotiateRound >= e.maxNegotiationRounds {
		e.phase = PhaseInspect
		e.inspectAt = 0
		e.log.Append(e.round, sdb.EventPhaseChange, map[string]any{"phase": string(PhaseInspect)}, nil, false)
		return
	}
	e.negotiateSub = subOffer
}

func (e *Engine) acceptBribe(merchant sdb.PlayerID, o offer) {
	sheriffP := &e.players[e.indexOf(e.sheriffID())]
	merchantP := &e.players[e.indexOf(merchant)]

	merchantP.Gold -= o.Gold
	sheriffP.Gold += o.Gold

	for t, n := range o.StandGoods {
		var removed int
		merchantP.Hand, removed = removeByType(merchantP.Hand, t, n)
		for i := 0; i < removed; i++ {
			sheriffP.Stand = append(sheriffP.Stand, Card{Type: t})
		}
	}

	if e.redirect[merchant] == nil {
		e.redirect[merchant] = map[GoodType]int{}
	}
	for t, n := range o.BagGoods {
		e.redirect[merchant][t] += n
	}
	e.bribeAccepted[merchant] = true
	e.bribeGold[merchant] += o.Gold

	e.log.Append(e.round, sdb.EventInfo, map[string]any{
		"action": "bribe_accept", "sheriff": int(e.sheriffID()), "merchant": int(merchant), "gold": o.Gold,
	}, nil, false)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampCounts(requested, available map[GoodType]int) map[GoodType]int {
	out := make(map[GoodType]int, len(requested))
	for t, n := range requested {
		if a := available[t]; a > 0 {
			if n > a {
				n = a
			}
			out[t] = n
		}
	}
	return out
}

// --- Inspect ---

func (e *Engine) stepInspect(actions map[sdb.PlayerID]sdb.Action) {
	if e.inspectAt >= len(e.queue) {
		e.resolveRound()
		return
	}
	merchant := e.queue[e.inspectAt]
	sheriff := e.sheriffID()

	decision := "pass"
	if act, ok := actions[sheriff]; ok && act.Kind == "inspect_decision" {
		if d, _ := act.Data["decision"].(string); d == "inspect" || d == "pass" {
			decision = d
		}
	} else {
		e.log.AppendThrottled(e.round, sdb.EventError, "MISSING_INSPECT_DECISION", "sheriff did not decide, defaulting to pass", sheriff, throttleCooldown)
	}

	if decision == "pass" {
		e.resolvePass(merchant)
	} else {
		e.resolveInspect(merchant)
	}
	e.bumpActions(sheriff)
	e.inspectAt++
}

func (e *Engine) resolvePass(merchant sdb.PlayerID) {
	p := &e.players[e.indexOf(merchant)]
	sheriffP := &e.players[e.indexOf(e.sheriffID())]

	redirected := 0
	for t, n := range e.redirect[merchant] {
		var removed int
		p.Bag, removed = removeByType(p.Bag, t, n)
		for i := 0; i < removed; i++ {
			sheriffP.Stand = append(sheriffP.Stand, Card{Type: t})
		}
		redirected += removed
	}

	p.Stand = append(p.Stand, p.Bag...)
	p.Bag = nil

	e.log.Append(e.round, sdb.EventInfo, map[string]any{
		"phase": string(PhaseInspect), "merchant": int(merchant), "decision": "pass", "redirected_to_sheriff": redirected,
	}, nil, false)
}

func (e *Engine) resolveInspect(merchant sdb.PlayerID) {
	p := &e.players[e.indexOf(merchant)]
	sheriffP := &e.players[e.indexOf(e.sheriffID())]
	sheriff := e.sheriffID()

	key := [2]sdb.PlayerID{sheriff, merchant}
	if e.bribeAccepted[merchant] && !e.refunded[key] {
		refund := e.bribeGold[merchant]
		sheriffP.Gold -= refund
		p.Gold += refund
		e.refunded[key] = true
		e.log.Append(e.round, sdb.EventInfo, map[string]any{
			"action": "bribe_refund", "sheriff": int(sheriff), "merchant": int(merchant), "refund": refund,
		}, nil, false)
	}

	decl := e.declared[merchant]
	truthful := len(p.Bag) == decl.Count
	if truthful {
		for _, c := range p.Bag {
			if e.effectiveType(c.Type) != decl.Type {
				truthful = false
				break
			}
		}
	}

	if truthful {
		payout := 0
		for _, c := range p.Bag {
			payout += goodTable[c.Type].Penalty
		}
		sheriffP.Gold -= payout
		p.Gold += payout
		p.Stand = append(p.Stand, p.Bag...)
		p.Bag = nil
	} else {
		var kept []Card
		penalty := 0
		for _, c := range p.Bag {
			if e.effectiveType(c.Type) == decl.Type {
				kept = append(kept, c)
				continue
			}
			penalty += goodTable[c.Type].Penalty
			e.discardA = append(e.discardA, c)
		}
		p.Gold -= penalty
		sheriffP.Gold += penalty
		p.Stand = append(p.Stand, kept...)
		p.Bag = nil
	}

	e.log.Append(e.round, sdb.EventInfo, map[string]any{
		"phase": string(PhaseInspect), "merchant": int(merchant), "decision": "inspect", "truthful": truthful,
	}, nil, false)
}

func (e *Engine) effectiveType(t GoodType) GoodType {
	if info, ok := goodTable[t]; ok && info.CountsAs != "" {
		return info.CountsAs
	}
	return t
}

// --- Resolve ---

func (e *Engine) resolveRound() {
	e.log.Append(e.round, sdb.EventRoundEnd, map[string]any{"sheriff": int(e.sheriffID())}, nil, false)
	e.players[e.sheriffIdx].SheriffTurns++

	allServed := true
	for _, p := range e.players {
		if p.SheriffTurns < e.requiredSheriffTurns {
			allServed = false
			break
		}
	}
	if allServed {
		e.endGame()
		return
	}

	e.sheriffIdx = (e.sheriffIdx + 1) % e.numPlayers
	e.round++
	e.startRound()
}

func (e *Engine) indexOf(p sdb.PlayerID) int { return int(p) }

func (e *Engine) bumpActions(p sdb.PlayerID) {
	if s, ok := e.stats[p]; ok {
		s.ActionsTaken++
	}
}

// --- Scoring / termination ---

func (e *Engine) endGame() {
	e.done = true
	e.phase = PhaseGameOver
	e.endedAt = time.Now()

	scores := e.computeScores()
	best, bestScore, tie := sdb.PlayerID(-1), -1, false
	for pid, s := range scores {
		switch {
		case s > bestScore:
			best, bestScore, tie = pid, s, false
		case s == bestScore:
			tie = true
		}
	}

	if tie {
		e.winner = "tie"
		e.winReason = "final scores tied for the lead"
	} else {
		e.winner = fmt.Sprintf("player_%d", int(best))
		e.winReason = "highest final score"
	}

	for pid, s := range scores {
		if st, ok := e.stats[pid]; ok {
			st.Score = float64(s)
		}
	}

	e.log.Append(e.round, sdb.EventGameEnd, map[string]any{"winner": e.winner, "scores": scoresToIntMap(scores)}, nil, false)
}

func scoresToIntMap(scores map[sdb.PlayerID]int) map[string]int {
	out := make(map[string]int, len(scores))
	for pid, s := range scores {
		out[fmt.Sprint(int(pid))] = s
	}
	return out
}

// computeScores implements spec.md §4.6 "Scoring": gold plus stand-card
// value plus King/Queen bonuses per legal good type.
func (e *Engine) computeScores() map[sdb.PlayerID]int {
	scores := make(map[sdb.PlayerID]int, e.numPlayers)
	for _, p := range e.players {
		total := p.Gold
		for _, c := range p.Stand {
			total += goodTable[c.Type].Value
		}
		scores[p.ID] = total
	}

	for _, t := range legalTypes {
		weighted := make(map[sdb.PlayerID]int, e.numPlayers)
		for _, p := range e.players {
			for _, c := range p.Stand {
				if e.effectiveType(c.Type) == t {
					weighted[p.ID] += goodTable[c.Type].Multiplier
				}
			}
		}

		king, kingCount, kingTie := sdb.PlayerID(-1), 0, false
		for _, p := range e.players {
			n := weighted[p.ID]
			switch {
			case n > kingCount:
				king, kingCount, kingTie = p.ID, n, false
			case n == kingCount && n > 0:
				kingTie = true
			}
		}
		if kingCount == 0 || kingTie {
			continue
		}
		scores[king] += kingBonus

		queen, queenCount, queenTie := sdb.PlayerID(-1), 0, false
		for _, p := range e.players {
			if p.ID == king {
				continue
			}
			n := weighted[p.ID]
			if n <= 0 || n >= kingCount {
				continue
			}
			switch {
			case n > queenCount:
				queen, queenCount, queenTie = p.ID, n, false
			case n == queenCount:
				queenTie = true
			}
		}
		if queenCount > 0 && !queenTie {
			scores[queen] += queenBonus
		}
	}

	return scores
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
		Game:            "sheriff",
		Winner:          e.winner,
		WinReason:       e.winReason,
		Rounds:          e.round,
		DurationSeconds: dur,
		PerPlayerStats:  stats,
		StartedAt:       e.startedAt,
		EndedAt:         e.endedAt,
	}
}
