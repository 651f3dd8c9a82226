package sheriff

import (
	"fmt"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Observations builds the per-player view for the engine's current phase.
// Only the player(s) who must act this step get a StepAct view with an
// instruction; everyone else receives a passive StepObserve view.
func (e *Engine) Observations() map[sdb.PlayerID]sdb.Observation {
	out := make(map[sdb.PlayerID]sdb.Observation, e.numPlayers)
	actors := e.actorsThisStep()

	for _, p := range e.players {
		data := map[string]any{
			"phase":       string(e.phase),
			"round":       e.round,
			"sheriff":     int(e.sheriffID()),
			"gold":        p.Gold,
			"hand_size":   len(p.Hand),
			"stand_count": len(p.Stand),
			"type":        string(sdb.StepObserve),
		}
		if actors[p.ID] {
			data["type"] = string(sdb.StepAct)
			data["instruction"] = e.instructionFor(p.ID)
		}
		e.addPhaseDetail(&data, p.ID)

		out[p.ID] = sdb.Observation{
			Player:  p.ID,
			ObsType: e.obsTypeFor(p.ID),
			Phase:   string(e.phase),
			Data:    data,
		}
	}
	return out
}

func (e *Engine) obsTypeFor(p sdb.PlayerID) sdb.ObsType {
	if p == e.sheriffID() {
		return sdb.ObsRoleSpecific
	}
	return sdb.ObsPrivate
}

func (e *Engine) actorsThisStep() map[sdb.PlayerID]bool {
	out := map[sdb.PlayerID]bool{}
	switch e.phase {
	case PhaseMarket:
		if e.marketAt < len(e.queue) {
			out[e.queue[e.marketAt]] = true
		}
	case PhaseLoadBag, PhaseDeclare:
		for _, m := range e.queue {
			out[m] = true
		}
	case PhaseNegotiate:
		if e.negotiateSub == subOffer {
			for _, m := range e.queue {
				out[m] = true
			}
		} else {
			out[e.sheriffID()] = true
		}
	case PhaseInspect:
		out[e.sheriffID()] = true
	}
	return out
}

func (e *Engine) instructionFor(p sdb.PlayerID) string {
	switch e.phase {
	case PhaseMarket:
		return "optionally discard cards to a market pile and draw replacements"
	case PhaseLoadBag:
		return "choose which hand cards to seal into your bag for this round"
	case PhaseDeclare:
		return "declare your bag's contents: a legal good type and count"
	case PhaseNegotiate:
		if e.negotiateSub == subOffer {
			return "optionally offer the sheriff gold and/or goods to let your bag pass"
		}
		return "decide, for each offer, whether to accept the bribe or reject it"
	case PhaseInspect:
		return "decide whether to inspect or pass the next merchant's bag"
	}
	return ""
}

func (e *Engine) addPhaseDetail(data *map[string]any, p sdb.PlayerID) {
	switch e.phase {
	case PhaseMarket:
		(*data)["queue_position"] = e.marketAt
	case PhaseLoadBag:
		(*data)["hand"] = handView(e.players[e.indexOf(p)].Hand)
		(*data)["bag_limit"] = e.bagLimit
	case PhaseDeclare:
		(*data)["bag_size"] = len(e.players[e.indexOf(p)].Bag)
		(*data)["legal_types"] = legalTypeStrings()
	case PhaseNegotiate:
		if e.negotiateSub == subResponse && p == e.sheriffID() {
			(*data)["offers"] = offersView(e.offers)
		}
		(*data)["round"] = e.negotiateRound
	case PhaseInspect:
		if p == e.sheriffID() && e.inspectAt < len(e.queue) {
			merchant := e.queue[e.inspectAt]
			(*data)["merchant"] = int(merchant)
			(*data)["declared_type"] = string(e.declared[merchant].Type)
			(*data)["declared_count"] = e.declared[merchant].Count
			(*data)["bribe_accepted"] = e.bribeAccepted[merchant]
		}
	}
}

func handView(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = string(c.Type)
	}
	return out
}

func legalTypeStrings() []string {
	out := make([]string, len(legalTypes))
	for i, t := range legalTypes {
		out[i] = string(t)
	}
	return out
}

func offersView(offers map[sdb.PlayerID]offer) map[string]any {
	out := make(map[string]any, len(offers))
	for pid, o := range offers {
		out[fmt.Sprint(int(pid))] = map[string]any{
			"gold":        o.Gold,
			"stand_goods": o.StandGoods,
			"bag_goods":   o.BagGoods,
			"promises":    o.Promises,
		}
	}
	return out
}
