// Package detect implements the pluggable agent-detection engine: a
// per-pane registry of Detectors that classify raw PTY output bytes into
// AgentState transitions, working directly off the byte stream this
// daemon owns rather than an external hook or tmux capture-pane call.
package detect

import "github.com/ianremillard/ccmux/internal/ccmux"

// Detector is implemented by every pluggable agent classifier. A Registry
// owns an ordered list of them per pane.
type Detector interface {
	// AgentType is a stable identifier, e.g. "claude".
	AgentType() string

	// DetectPresence is stateful: once it has positively identified the
	// agent in this pane, it keeps returning true for the pane's lifetime.
	DetectPresence(chunk []byte) bool

	// DetectActivity is stateless with respect to persistence — it looks
	// only at the evidence in this chunk (plus its own bounded internal
	// buffer for split matches) and returns a fresh classification, or
	// false if this chunk carries no new evidence.
	DetectActivity(chunk []byte) (ccmux.Activity, bool)

	// ExtractSessionID returns the agent's own session identifier if this
	// chunk reveals one, otherwise "".
	ExtractSessionID(chunk []byte) string

	// ExtractMetadata returns free-form metadata (model name, token
	// counts, ...) this chunk reveals, merged into AgentState.Extra.
	ExtractMetadata(chunk []byte) map[string]ccmux.Value

	// Confidence is this detector's current confidence, 0..=100.
	Confidence() uint8

	// IsActive reports whether this detector currently owns the pane's
	// active slot in the registry.
	IsActive() bool

	// State returns the AgentState this detector would currently report,
	// or false if it has nothing to report yet.
	State() (ccmux.AgentState, bool)

	// Reset clears all persisted state, as if the pane were freshly spawned.
	Reset()

	// MarkActive forces activation — used when the spawning command is
	// already known to be this agent.
	MarkActive()

	// Analyze is a convenience composition of the methods above: feed it a
	// chunk and get back the resulting AgentState, if any.
	Analyze(chunk []byte) (ccmux.AgentState, bool)
}
