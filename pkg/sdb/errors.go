package sdb

import (
	"errors"
	"fmt"
)

// ErrKind is the closed set of error kinds from spec.md §7.
type ErrKind string

const (
	// ErrValidation marks an action that violates the phase-specific schema
	// or a rule. No state change; recorded as an Error event.
	ErrValidation ErrKind = "validation_error"
	// ErrAgentFailure marks an agent call that failed or timed out.
	ErrAgentFailure ErrKind = "agent_failure"
	// ErrStateInvariant marks an internal inconsistency the engine recovered
	// from automatically. Never fatal inside a match.
	ErrStateInvariant ErrKind = "state_invariant_violation"
	// ErrScheduler marks a failure outside any specific match.
	ErrScheduler ErrKind = "scheduler_error"
)

// GameError is the structured error engines emit as Error events. It is not
// normally returned across the Engine.Step boundary — engines record it in
// their own event log and recover — but it implements error so it can be
// wrapped and logged uniformly.
type GameError struct {
	Kind   ErrKind
	Code   string
	Detail string
	Player PlayerID
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s[%s]: %s (player %d)", e.Kind, e.Code, e.Detail, e.Player)
}

// NewValidationError builds a rule-violation error for player p.
func NewValidationError(p PlayerID, code, detail string) *GameError {
	return &GameError{Kind: ErrValidation, Code: code, Detail: detail, Player: p}
}

// NewStateInvariantError builds a recovered-internally warning for player p
// (p may be -1 when the inconsistency isn't attributable to one player).
func NewStateInvariantError(p PlayerID, code, detail string) *GameError {
	return &GameError{Kind: ErrStateInvariant, Code: code, Detail: detail, Player: p}
}

// ErrSchedulerFailure is returned by the tournament scheduler for config-parse
// or file errors; it aborts the tournament but never an in-flight match.
var ErrSchedulerFailure = errors.New("sdb: scheduler error")
