package detect

import (
	"strings"
	"sync"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// genericThinkingGlyphs are spinner frames used by assorted CLI agents that
// don't otherwise identify themselves.
var genericThinkingGlyphs = []string{
	"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏",
	"Thinking…", "Working…", "Generating…",
}

var genericToolMarkers = []string{
	"$ running", "executing command", "tool_call", "function_call",
}

var genericAttentionMarkers = []string{
	"(y/n)", "[y/N]", "[Y/n]", "continue? ", "press any key",
}

// GenericAgentDetector is a loose fallback for unnamed AI assistants that
// exhibit agent-like output shapes (spinners, tool-call echoes, yes/no
// prompts) without ever identifying themselves the way Claude Code does.
// Its confidence ceiling is deliberately low so a named detector always
// wins the registry's tie-break when both match the same chunk.
type GenericAgentDetector struct {
	mu       sync.Mutex
	present  bool
	active   bool
	activity ccmux.Activity
	buf      []byte
}

func NewGenericAgentDetector() *GenericAgentDetector {
	return &GenericAgentDetector{activity: ccmux.Idle}
}

func (d *GenericAgentDetector) AgentType() string { return "generic" }

func (d *GenericAgentDetector) appendLocked(chunk []byte) []byte {
	d.buf = append(d.buf, chunk...)
	if len(d.buf) > scanBufCap {
		d.buf = d.buf[len(d.buf)-scanBufCap:]
	}
	return d.buf
}

func (d *GenericAgentDetector) classify(text string) (ccmux.Activity, bool) {
	for _, p := range genericAttentionMarkers {
		if strings.Contains(text, p) {
			return ccmux.AwaitingConfirmation, true
		}
	}
	for _, p := range genericToolMarkers {
		if strings.Contains(text, p) {
			return ccmux.ToolUse, true
		}
	}
	for _, p := range genericThinkingGlyphs {
		if strings.Contains(text, p) {
			return ccmux.Thinking, true
		}
	}
	return ccmux.Idle, false
}

func (d *GenericAgentDetector) DetectPresence(chunk []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detectPresenceLocked(chunk)
}

func (d *GenericAgentDetector) detectPresenceLocked(chunk []byte) bool {
	if d.present {
		return true
	}
	text := string(d.appendLocked(chunk))
	if _, ok := d.classify(text); ok {
		d.present = true
		return true
	}
	return false
}

func (d *GenericAgentDetector) DetectActivity(chunk []byte) (ccmux.Activity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classify(string(d.appendLocked(chunk)))
}

func (d *GenericAgentDetector) ExtractSessionID(chunk []byte) string { return "" }

func (d *GenericAgentDetector) ExtractMetadata(chunk []byte) map[string]ccmux.Value { return nil }

func (d *GenericAgentDetector) Confidence() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.present {
		return 40
	}
	return 0
}

func (d *GenericAgentDetector) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *GenericAgentDetector) State() (ccmux.AgentState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.present {
		return ccmux.AgentState{}, false
	}
	return d.stateLocked(), true
}

func (d *GenericAgentDetector) stateLocked() ccmux.AgentState {
	return ccmux.AgentState{
		AgentType:  "generic",
		Activity:   d.activity,
		Confidence: 40,
	}
}

func (d *GenericAgentDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = nil
	d.present = false
	d.active = false
	d.activity = ccmux.Idle
}

func (d *GenericAgentDetector) MarkActive() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.present = true
	d.active = true
}

func (d *GenericAgentDetector) Analyze(chunk []byte) (ccmux.AgentState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	justDetected := false
	if !d.present {
		if !d.detectPresenceLocked(chunk) {
			return ccmux.AgentState{}, false
		}
		d.active = true
		justDetected = true
	}

	text := string(d.appendLocked(chunk))
	activity, ok := d.classify(text)
	changed := false
	if ok && activity != d.activity {
		d.activity = activity
		changed = true
	}

	if justDetected || changed {
		return d.stateLocked(), true
	}
	return ccmux.AgentState{}, false
}
