package sdb

// StepInfo carries out-of-band metadata from a step (e.g. suppressed-error
// counts, throttling state) that doesn't belong in the event log schema.
type StepInfo map[string]any

// Engine is the contract every game family implements. It owns its own state,
// phase machine, rules, and observation generator; the match driver and
// tournament scheduler only ever see this interface.
//
// reset/step/observations are atomic with respect to one another: the engine
// is single-threaded and cooperative. All non-determinism must be
// drawn from the *Rng passed at construction, never a process-global source.
type Engine interface {
	// Reset (re)starts the match and returns the initial observation set.
	Reset() map[PlayerID]Observation

	// Observations returns the current per-player observation set. Calling it
	// twice without an intervening Step must return equivalent observations.
	Observations() map[PlayerID]Observation

	// Step applies one simultaneous batch of actions — one per actor in the
	// current Observations() set — and returns the resulting observations,
	// a per-player score delta, whether the match is now terminal, and
	// free-form step info. Actions from non-actors are ignored and produce no
	// state change.
	Step(actions map[PlayerID]Action) (obs map[PlayerID]Observation, scores map[PlayerID]float64, done bool, info StepInfo)

	// Terminal reports whether the engine has reached its distinguished
	// terminal phase.
	Terminal() bool

	// Winner returns the winning team/party/player label, or "" before the
	// game ends.
	Winner() string

	// WinReason returns a short human-readable reason, or "" before the game
	// ends.
	WinReason() string

	// ForceTerminate is invoked by the match driver when the per-match
	// iteration safety bound is hit without reaching Terminal(). The engine
	// must write a final event and settle into a well-defined terminal-like
	// state; Winner()/WinReason() afterwards should reflect a timeout/draw.
	ForceTerminate()

	// Events returns the full append-only event log recorded so far.
	Events() []Event

	// Result summarizes the match once it has ended (Terminal() or after
	// ForceTerminate()).
	Result() GameResult
}
