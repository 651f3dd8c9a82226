// Package match implements the generic match driver of spec.md §4.1: a loop
// that advances any sdb.Engine to completion by querying observations,
// invoking the to-act players' agents in parallel, and stepping the engine,
// indifferent to which game family it is driving.
package match

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sdbench/sdb/pkg/sdb"
)

// Outcome is the terminal disposition of a Run call.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeDraw      Outcome = "draw"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// Driver advances an Engine to completion using the uniform loop of
// spec.md §4.1. It is indifferent to game-specific rules; all of that lives
// behind the sdb.Engine interface.
type Driver struct {
	// MaxSteps bounds the number of Step calls before the driver forces
	// termination.
	MaxSteps int
	// AgentTimeout bounds how long the driver waits for a single agent call
	// within one step before treating it as an AgentFailure.
	AgentTimeout time.Duration
	Log          zerolog.Logger
}

// NewDriver builds a Driver with the given bounds.
func NewDriver(maxSteps int, agentTimeout time.Duration, log zerolog.Logger) *Driver {
	return &Driver{MaxSteps: maxSteps, AgentTimeout: agentTimeout, Log: log}
}

// Run advances engine to completion, invoking agents[p] for every player p
// the current observation set marks as an actor. It returns the engine's
// final result with Outcome overridden to "cancelled" if ctx was cancelled
// before the engine reached a terminal state on its own.
func (d *Driver) Run(ctx context.Context, matchID string, engine sdb.Engine, agents map[sdb.PlayerID]sdb.Agent) sdb.GameResult {
	obs := engine.Reset()
	steps := 0

	for {
		if ctx.Err() != nil {
			d.Log.Info().Str("matchId", matchID).Msg("match cancelled")
			res := engine.Result()
			res.Outcome = string(OutcomeCancelled)
			return res
		}

		actors := actorsOf(obs)
		actions := d.collectActions(ctx, matchID, actors, obs, agents)

		newObs, _, done, _ := engine.Step(actions)
		obs = newObs
		steps++

		if done || engine.Terminal() {
			res := engine.Result()
			if res.Outcome == "" {
				res.Outcome = string(OutcomeWin)
			}
			return res
		}

		if steps >= d.MaxSteps {
			d.Log.Warn().Str("matchId", matchID).Int("steps", steps).Msg("match hit safety bound, forcing termination")
			engine.ForceTerminate()
			res := engine.Result()
			res.Outcome = string(OutcomeTimeout)
			return res
		}
	}
}

// actorsOf partitions an observation set into the players who must submit an
// action this step.
func actorsOf(obs map[sdb.PlayerID]sdb.Observation) map[sdb.PlayerID]sdb.Observation {
	actors := make(map[sdb.PlayerID]sdb.Observation, len(obs))
	for p, o := range obs {
		if o.MustAct() {
			actors[p] = o
		}
	}
	return actors
}

// collectActions invokes each actor's agent concurrently and returns only the actions that completed without failure.
// A failed or timed-out agent is recorded but simply omitted from the batch
// — engines are responsible for handling an actor's absence.
func (d *Driver) collectActions(
	ctx context.Context,
	matchID string,
	actors map[sdb.PlayerID]sdb.Observation,
	_ map[sdb.PlayerID]sdb.Observation,
	agents map[sdb.PlayerID]sdb.Agent,
) map[sdb.PlayerID]sdb.Action {
	actions := make(map[sdb.PlayerID]sdb.Action, len(actors))
	if len(actors) == 0 {
		return actions
	}

	var mu sync.Mutex
	// errgroup gives us the "wait for all, cancel-aware" shape without each
	// goroutine's own failure tearing down its siblings: the function never
	// returns a non-nil error, so one agent's failure can't cancel another's
	// in-flight call (isolation is the point, per spec.md §5).
	g, gctx := errgroup.WithContext(ctx)

	for p, o := range actors {
		agent, ok := agents[p]
		if !ok {
			continue
		}
		p, o, agent := p, o, agent
		g.Go(func() error {
			callCtx := gctx
			var cancel context.CancelFunc
			if d.AgentTimeout > 0 {
				callCtx, cancel = context.WithTimeout(gctx, d.AgentTimeout)
				defer cancel()
			}

			act, err := agent.Act(callCtx, o)
			if err != nil {
				d.Log.Warn().Str("matchId", matchID).Int("player", int(p)).Err(err).Msg("agent call failed")
				return nil
			}
			act.Player = p

			mu.Lock()
			actions[p] = act
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return actions
}
