// Package agentimpl provides concrete sdb.Agent implementations: a
// RandomAgent for smoke tests and filling out schedules that don't need a
// real decision-maker in every seat, and an HTTPAgent that delegates to an
// external process over HTTP.
package agentimpl

import (
	"context"
	"math/rand"

	"github.com/sdbench/sdb/pkg/sdb"
)

// RandomAgent picks a uniformly random, structurally plausible action for
// whatever phase it's asked to act in. It never blocks and never errors;
// every engine already falls back to a safe default on a missing, wrong-kind,
// or out-of-range action, and several RandomAgent actions always take that
// fallback: Avalon team proposals (sent as []int, which the engine does not
// parse), Sheriff load_bag and declare actions, the sheriff's Negotiate
// response (sent as kind "offer"), and Among Us complete_task (sent without
// a task index).
type RandomAgent struct {
	numPlayers int
	rng        *rand.Rand
}

// NewRandomAgent creates a RandomAgent that samples player targets in
// [0, numPlayers).
func NewRandomAgent(numPlayers int, seed int64) *RandomAgent {
	return &RandomAgent{numPlayers: numPlayers, rng: rand.New(rand.NewSource(seed))}
}

var _ sdb.Agent = (*RandomAgent)(nil)

// Act implements sdb.Agent.
func (a *RandomAgent) Act(_ context.Context, obs sdb.Observation) (sdb.Action, error) {
	p := obs.Player
	if !obs.MustAct() {
		return sdb.Action{Player: p}, nil
	}

	switch obs.Phase {
	// Secret Hitler
	case "ElectionNomination":
		return sdb.Action{Player: p, Kind: "nominate", Data: map[string]any{"target": a.randTargetFrom(obs, "legal_nominees")}}, nil
	case "ElectionDiscussion":
		return sdb.Action{Player: p, Kind: "statement", Data: map[string]any{"text": "I have nothing to add."}}, nil
	case "ElectionVoting":
		return sdb.Action{Player: p, Kind: "vote", Data: map[string]any{"ja": a.rng.Intn(2) == 0}}, nil
	case "LegislativeSession_President":
		return sdb.Action{Player: p, Kind: "discard_policy", Data: map[string]any{"discard_index": a.rng.Intn(3)}}, nil
	case "LegislativeSession_Chancellor":
		return sdb.Action{Player: p, Kind: "enact_policy", Data: map[string]any{"enact_index": a.rng.Intn(2)}}, nil
	case "VetoDiscussion":
		return sdb.Action{Player: p, Kind: "veto_response", Data: map[string]any{"accept": a.rng.Intn(2) == 0}}, nil
	case "PresidentialPower":
		return sdb.Action{Player: p, Kind: "power_target", Data: map[string]any{"target": a.randTarget()}}, nil

	// Avalon
	case "TeamSelection":
		return sdb.Action{Player: p, Kind: "propose_team", Data: map[string]any{"team": a.randTeam(teamSizeHint(obs))}}, nil
	case "TeamDiscussion":
		return sdb.Action{Player: p, Kind: "statement", Data: map[string]any{"text": "I trust this team."}}, nil
	case "TeamVoting":
		return sdb.Action{Player: p, Kind: "vote", Data: map[string]any{"approve": a.rng.Intn(2) == 0}}, nil
	case "QuestVoting":
		return sdb.Action{Player: p, Kind: "quest_vote", Data: map[string]any{"success": true}}, nil
	case "Assassination":
		return sdb.Action{Player: p, Kind: "assassinate", Data: map[string]any{"target": a.randTargetFrom(obs, "good_targets")}}, nil

	// Werewolf
	case "NightWerewolf":
		return sdb.Action{Player: p, Kind: "kill_target", Data: map[string]any{"target": a.randTarget()}}, nil
	case "NightDoctor":
		return sdb.Action{Player: p, Kind: "protect", Data: map[string]any{"target": a.randTarget()}}, nil
	case "NightSeer":
		return sdb.Action{Player: p, Kind: "investigate", Data: map[string]any{"target": a.randTarget()}}, nil
	case "DayBidding":
		return sdb.Action{Player: p, Kind: "bid", Data: map[string]any{"value": a.rng.Intn(5)}}, nil
	case "DayDebate":
		return sdb.Action{Player: p, Kind: "statement", Data: map[string]any{"text": "Let's think this through."}}, nil
	case "DayVoting":
		return sdb.Action{Player: p, Kind: "vote", Data: map[string]any{"target": a.randTarget()}}, nil

	// Spyfall
	case "QandA":
		instr := obs.Instruction()
		switch {
		case instr == "ask a living player a question":
			return sdb.Action{Player: p, Kind: "ask", Data: map[string]any{"target": a.randTargetFrom(obs, "eligible_targets")}}, nil
		case instr == "answer the asker's question":
			return sdb.Action{Player: p, Kind: "answer", Data: map[string]any{"text": "I'd rather not say."}}, nil
		case instr == "pass, or spend your one-shot location guess":
			return sdb.Action{Player: p, Kind: "pass"}, nil
		default:
			return sdb.Action{Player: p, Kind: "pass"}, nil
		}
	case "AccusationVote", "FinalVote":
		return sdb.Action{Player: p, Kind: "vote", Data: map[string]any{"guilty": a.rng.Intn(2) == 0}}, nil
	case "SpyGuess":
		return sdb.Action{Player: p, Kind: "guess_location", Data: map[string]any{"location": "Casino"}}, nil

	// Among Us
	case "Task":
		return sdb.Action{Player: p, Kind: "complete_task", Data: map[string]any{}}, nil
	case "Discussion":
		return sdb.Action{Player: p, Kind: "statement", Data: map[string]any{"text": "No reads yet."}}, nil
	case "Voting":
		return sdb.Action{Player: p, Kind: "vote", Data: map[string]any{
			"skip":   a.rng.Intn(2) == 0,
			"target": a.randTargetFrom(obs, "eligible_targets"),
		}}, nil

	// Sheriff of Nottingham
	case "Market":
		return sdb.Action{Player: p, Kind: "market", Data: map[string]any{}}, nil
	case "LoadBag":
		return sdb.Action{Player: p, Kind: "load_bag", Data: map[string]any{}}, nil
	case "Declare":
		return sdb.Action{Player: p, Kind: "declare", Data: map[string]any{"type": "Apple", "count": 0}}, nil
	case "Negotiate":
		return sdb.Action{Player: p, Kind: "offer", Data: map[string]any{"end_negotiation": true}}, nil
	case "Inspect":
		decision := "pass"
		if a.rng.Intn(3) == 0 {
			decision = "inspect"
		}
		return sdb.Action{Player: p, Kind: "inspect_decision", Data: map[string]any{"decision": decision}}, nil
	}

	return sdb.Action{Player: p}, nil
}

// Notify implements sdb.Notifier as a no-op; RandomAgent doesn't adapt to
// pushed information.
func (a *RandomAgent) Notify(context.Context, string, map[string]any) {}

func (a *RandomAgent) randTarget() int {
	if a.numPlayers <= 0 {
		return 0
	}
	return a.rng.Intn(a.numPlayers)
}

// randTargetFrom samples from an int-list hint in obs.Data[key] when present,
// falling back to a uniformly random player index.
func (a *RandomAgent) randTargetFrom(obs sdb.Observation, key string) int {
	if raw, ok := obs.Data[key].([]int); ok && len(raw) > 0 {
		return raw[a.rng.Intn(len(raw))]
	}
	return a.randTarget()
}

func (a *RandomAgent) randTeam(size int) []int {
	if size <= 0 || size > a.numPlayers {
		size = a.numPlayers
	}
	perm := a.rng.Perm(a.numPlayers)
	team := make([]int, size)
	copy(team, perm[:size])
	return team
}

// teamSizeHint reads the quest's required team size from the proposer's
// team-selection observation, defaulting to the full table when absent.
func teamSizeHint(obs sdb.Observation) int {
	if v, ok := obs.Data["team_size"].(int); ok {
		return v
	}
	return 0
}
