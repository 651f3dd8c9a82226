package match

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sdbench/sdb/pkg/sdb"
)

// countingEngine is a minimal fake Engine that terminates after N steps,
// recording how many actions it received each step.
type countingEngine struct {
	log        *sdb.Log
	maxRounds  int
	round      int
	lastBatch  int
	terminated bool
}

func (e *countingEngine) Reset() map[sdb.PlayerID]sdb.Observation {
	e.log = sdb.NewLog("m1")
	e.round = 0
	e.terminated = false
	return e.observationsFor(0)
}

func (e *countingEngine) observationsFor(round int) map[sdb.PlayerID]sdb.Observation {
	return map[sdb.PlayerID]sdb.Observation{
		0: {Player: 0, ObsType: sdb.ObsPublic, Phase: "p", Data: map[string]any{"type": "act"}},
		1: {Player: 1, ObsType: sdb.ObsPublic, Phase: "p", Data: map[string]any{"type": "act"}},
	}
}

func (e *countingEngine) Observations() map[sdb.PlayerID]sdb.Observation {
	return e.observationsFor(e.round)
}

func (e *countingEngine) Step(actions map[sdb.PlayerID]sdb.Action) (map[sdb.PlayerID]sdb.Observation, map[sdb.PlayerID]float64, bool, sdb.StepInfo) {
	e.lastBatch = len(actions)
	e.round++
	done := e.round >= e.maxRounds
	if done {
		e.terminated = true
	}
	return e.observationsFor(e.round), nil, done, nil
}

func (e *countingEngine) Terminal() bool    { return e.terminated }
func (e *countingEngine) Winner() string    { return "nobody" }
func (e *countingEngine) WinReason() string { return "max rounds" }
func (e *countingEngine) ForceTerminate()   { e.terminated = true }
func (e *countingEngine) Events() []sdb.Event {
	if e.log == nil {
		return nil
	}
	return e.log.All()
}
func (e *countingEngine) Result() sdb.GameResult {
	return sdb.GameResult{MatchID: "m1", Rounds: e.round, Winner: e.Winner(), WinReason: e.WinReason()}
}

type fixedAgent struct{ fail bool }

func (a fixedAgent) Act(ctx context.Context, obs sdb.Observation) (sdb.Action, error) {
	if a.fail {
		return sdb.Action{}, errFail
	}
	return sdb.Action{Player: obs.Player, Kind: "noop"}, nil
}

var errFail = &sdb.GameError{Kind: sdb.ErrAgentFailure, Code: "boom", Detail: "forced failure"}

func TestDriverRunsToTermination(t *testing.T) {
	eng := &countingEngine{maxRounds: 3}
	agents := map[sdb.PlayerID]sdb.Agent{0: fixedAgent{}, 1: fixedAgent{}}
	d := NewDriver(100, time.Second, zerolog.Nop())

	res := d.Run(context.Background(), "m1", eng, agents)

	if res.Rounds != 3 {
		t.Fatalf("expected 3 rounds, got %d", res.Rounds)
	}
	if res.Outcome != string(OutcomeWin) {
		t.Fatalf("expected win outcome, got %s", res.Outcome)
	}
	if eng.lastBatch != 2 {
		t.Fatalf("expected both actors' actions in the final batch, got %d", eng.lastBatch)
	}
}

func TestDriverIsolatesAgentFailure(t *testing.T) {
	eng := &countingEngine{maxRounds: 1}
	agents := map[sdb.PlayerID]sdb.Agent{0: fixedAgent{fail: true}, 1: fixedAgent{}}
	d := NewDriver(100, time.Second, zerolog.Nop())

	d.Run(context.Background(), "m1", eng, agents)

	if eng.lastBatch != 1 {
		t.Fatalf("expected only the successful agent's action, got %d", eng.lastBatch)
	}
}

func TestDriverHitsSafetyBound(t *testing.T) {
	eng := &countingEngine{maxRounds: 1000}
	agents := map[sdb.PlayerID]sdb.Agent{0: fixedAgent{}, 1: fixedAgent{}}
	d := NewDriver(5, time.Second, zerolog.Nop())

	res := d.Run(context.Background(), "m1", eng, agents)

	if res.Outcome != string(OutcomeTimeout) {
		t.Fatalf("expected timeout outcome, got %s", res.Outcome)
	}
	if !eng.terminated {
		t.Fatalf("expected ForceTerminate to have run")
	}
}

func TestDriverCancellation(t *testing.T) {
	eng := &countingEngine{maxRounds: 1000}
	agents := map[sdb.PlayerID]sdb.Agent{0: fixedAgent{}, 1: fixedAgent{}}
	d := NewDriver(1000, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := d.Run(ctx, "m1", eng, agents)
	if res.Outcome != string(OutcomeCancelled) {
		t.Fatalf("expected cancelled outcome, got %s", res.Outcome)
	}
}
