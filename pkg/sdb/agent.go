package sdb

import "context"

// Agent is the single capability the core requires of any external
// decision-maker: given an observation, produce an action.
// The call may be slow or may fail; the match driver isolates both.
type Agent interface {
	// Act returns the action this agent chooses for the given observation.
	// Implementations must respect ctx cancellation promptly.
	Act(ctx context.Context, obs Observation) (Action, error)
}

// Notifier is an optional capability an Agent may implement to receive
// advisory push notifications (role assignment, eliminations, investigation
// results, public statements). Ignoring notifications must never change
// engine behavior — see spec.md §6.1.
type Notifier interface {
	Notify(ctx context.Context, kind string, data map[string]any)
}

// AgentFunc adapts a plain function to the Agent interface, mirroring the
// standard library's http.HandlerFunc idiom.
type AgentFunc func(ctx context.Context, obs Observation) (Action, error)

// Act implements Agent.
func (f AgentFunc) Act(ctx context.Context, obs Observation) (Action, error) {
	return f(ctx, obs)
}
