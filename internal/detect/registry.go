package detect

import (
	"sync"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// Registry owns the ordered list of detectors for one pane and implements
// the routing algorithm: at most one detector is ever "active" for a pane
// at a time.
type Registry struct {
	mu        sync.Mutex
	detectors []Detector
	active    int // index into detectors, or -1 if none
}

// NewRegistry builds a registry over detectors, in priority order for the
// initial-scan tie-break (insertion order wins after confidence).
func NewRegistry(detectors ...Detector) *Registry {
	return &Registry{detectors: detectors, active: -1}
}

// MarkActive forces the named detector active immediately, used when the
// spawning command is already known to be that agent.
func (r *Registry) MarkActive(agentType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.detectors {
		if d.AgentType() == agentType {
			d.MarkActive()
			r.active = i
			return
		}
	}
}

// ActiveAgentType returns the agent_type of the currently-active detector,
// or "" if none is active.
func (r *Registry) ActiveAgentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 {
		return ""
	}
	return r.detectors[r.active].AgentType()
}

// Process runs a new output chunk through the registry's routing algorithm
// and returns the resulting AgentState, if any detector reports one.
func (r *Registry) Process(chunk []byte) (ccmux.AgentState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active >= 0 {
		d := r.detectors[r.active]
		state, ok := d.Analyze(chunk)
		if !d.IsActive() {
			r.active = -1
		}
		if ok {
			return state, true
		}
		if r.active >= 0 {
			// Still active but nothing new to report this chunk.
			return ccmux.AgentState{}, false
		}
		// Fell through: active detector deactivated mid-chunk. Continue to
		// the full scan below so another detector can claim this chunk.
	}

	type win struct {
		idx   int
		state ccmux.AgentState
	}
	var winner *win
	for i, d := range r.detectors {
		state, ok := d.Analyze(chunk)
		if !ok {
			continue
		}
		if winner == nil || d.Confidence() > r.detectors[winner.idx].Confidence() {
			winner = &win{idx: i, state: state}
		}
	}
	if winner == nil {
		return ccmux.AgentState{}, false
	}
	// Detectors that also claimed the chunk but lost the tie-break give up
	// their presence so only the winner reports IsActive.
	for i, d := range r.detectors {
		if i != winner.idx && d.IsActive() {
			d.Reset()
		}
	}
	r.active = winner.idx
	return winner.state, true
}

// Detectors returns the registry's detector list, in priority order. It is
// used by tests and diagnostics; callers must not mutate the slice.
func (r *Registry) Detectors() []Detector {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Reset clears every detector's persisted state and the active slot.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.detectors {
		d.Reset()
	}
	r.active = -1
}
