package detect

import (
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/go-ps"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// scanBufCap bounds the internal buffer every detector keeps to tolerate a
// pattern split arbitrarily across chunk boundaries.
const scanBufCap = 4096

// claudePresenceMarkers identify a Claude Code session; the first match
// latches DetectPresence permanently for the pane's lifetime.
var claudePresenceMarkers = []string{
	"Welcome to Claude Code",
	"claude.ai/code",
}

// attentionPatterns flag a pane waiting on the human.
var attentionPatterns = []string{
	"Do you want to proceed?",
	"Do you want to allow",
	"Allow once",
	"press Enter to approve",
	"Enter to select",
	"Esc to cancel",
	"waiting for your response",
	"Let me know when",
	"Please let me know",
	"What would you like",
	"How would you like",
	"Should I proceed",
	"Would you like me to",
	"please provide",
	"please specify",
	"Could you clarify",
	"awaiting your",
	"Shall I",
	"Do you want me to",
	"Ready to proceed",
}

// toolUseMarkers flag tool-call echoes.
var toolUseMarkers = []string{
	"Bash(", "Running Bash", "Edit(", "Write(", "Read(", "Grep(", "Glob(", "Task(",
}

// thinkingMarkers flag the "model is composing a response" spinner state.
var thinkingMarkers = []string{
	"Thinking…", "Thinking...", "⚙", // gear glyph used by some spinners
}

// ClaudeDetector recognizes Claude Code's terminal output and classifies
// its activity, working directly off the raw PTY byte stream this daemon
// owns rather than a tmux capture-pane or external hook payload.
type ClaudeDetector struct {
	mu         sync.Mutex
	buf        []byte
	present    bool
	active     bool
	activity   ccmux.Activity
	sessionID  string
	extra      map[string]ccmux.Value
	shellPID   int // set via SetShellPID when the pane's direct command is a shell
}

// NewClaudeDetector builds a detector with Idle as its initial activity.
func NewClaudeDetector() *ClaudeDetector {
	return &ClaudeDetector{activity: ccmux.Idle, extra: make(map[string]ccmux.Value)}
}

func (d *ClaudeDetector) AgentType() string { return "claude" }

// SetShellPID records the PID of a shell wrapping the agent process, so
// presence detection can additionally confirm via the process tree.
func (d *ClaudeDetector) SetShellPID(pid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shellPID = pid
}

func (d *ClaudeDetector) appendLocked(chunk []byte) []byte {
	d.buf = append(d.buf, chunk...)
	if len(d.buf) > scanBufCap {
		d.buf = d.buf[len(d.buf)-scanBufCap:]
	}
	return d.buf
}

func (d *ClaudeDetector) DetectPresence(chunk []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detectPresenceLocked(chunk)
}

func (d *ClaudeDetector) detectPresenceLocked(chunk []byte) bool {
	if d.present {
		return true
	}
	buf := d.appendLocked(chunk)
	for _, marker := range claudePresenceMarkers {
		if strings.Contains(string(buf), marker) {
			d.present = true
			return true
		}
	}
	if d.shellPID != 0 && claudeAmongDescendants(d.shellPID) {
		d.present = true
		return true
	}
	return false
}

// claudeAmongDescendants walks the process tree looking for a "claude"
// binary among shellPID's children, a fallback for agents that run
// wrapped in a login shell.
func claudeAmongDescendants(shellPID int) bool {
	procs, err := ps.Processes()
	if err != nil {
		return false
	}
	byParent := make(map[int][]ps.Process)
	for _, p := range procs {
		byParent[p.PPid()] = append(byParent[p.PPid()], p)
	}
	var walk func(pid int, depth int) bool
	walk = func(pid int, depth int) bool {
		if depth > 6 {
			return false
		}
		for _, child := range byParent[pid] {
			name := strings.ToLower(child.Executable())
			if strings.Contains(name, "claude") {
				return true
			}
			if walk(child.Pid(), depth+1) {
				return true
			}
		}
		return false
	}
	return walk(shellPID, 0)
}

func (d *ClaudeDetector) DetectActivity(chunk []byte) (ccmux.Activity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detectActivityLocked(chunk)
}

func (d *ClaudeDetector) detectActivityLocked(chunk []byte) (ccmux.Activity, bool) {
	buf := d.appendLocked(chunk)
	text := string(buf)

	for _, p := range attentionPatterns {
		if strings.Contains(text, p) {
			return ccmux.AwaitingConfirmation, true
		}
	}
	if endsWithQuestion(string(chunk)) {
		return ccmux.AwaitingConfirmation, true
	}
	for _, p := range toolUseMarkers {
		if strings.Contains(text, p) {
			return ccmux.ToolUse, true
		}
	}
	for _, p := range thinkingMarkers {
		if strings.Contains(text, p) {
			return ccmux.Thinking, true
		}
	}
	return ccmux.Idle, false
}

func endsWithQuestion(chunk string) bool {
	lines := strings.Split(strings.TrimRight(chunk, "\r\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		return strings.HasSuffix(line, "?") && !strings.HasPrefix(line, "❯")
	}
	return false
}

func (d *ClaudeDetector) ExtractSessionID(chunk []byte) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := d.appendLocked(chunk)
	text := string(buf)
	if idx := strings.Index(text, "session_id\":\""); idx >= 0 {
		rest := text[idx+len("session_id\":\""):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			return rest[:end]
		}
	}
	if idx := strings.Index(text, "Session ID: "); idx >= 0 {
		rest := text[idx+len("Session ID: "):]
		end := strings.IndexAny(rest, " \r\n")
		if end < 0 {
			end = len(rest)
		}
		return strings.TrimSpace(rest[:end])
	}
	return ""
}

func (d *ClaudeDetector) ExtractMetadata(chunk []byte) map[string]ccmux.Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := d.appendLocked(chunk)
	text := string(buf)
	out := make(map[string]ccmux.Value)
	if idx := strings.Index(text, "Model: "); idx >= 0 {
		rest := text[idx+len("Model: "):]
		end := strings.IndexAny(rest, " \r\n")
		if end < 0 {
			end = len(rest)
		}
		out["model"] = ccmux.StringValue(strings.TrimSpace(rest[:end]))
	}
	if idx := strings.Index(text, "tokens used: "); idx >= 0 {
		rest := text[idx+len("tokens used: "):]
		end := strings.IndexAny(rest, " \r\n")
		if end < 0 {
			end = len(rest)
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(rest[:end]), 10, 64); err == nil {
			out["tokens"] = ccmux.IntValue(n)
		}
	}
	return out
}

func (d *ClaudeDetector) Confidence() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.present {
		return 95
	}
	return 0
}

func (d *ClaudeDetector) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *ClaudeDetector) State() (ccmux.AgentState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.present {
		return ccmux.AgentState{}, false
	}
	return d.stateLocked(), true
}

func (d *ClaudeDetector) stateLocked() ccmux.AgentState {
	extra := make(map[string]ccmux.Value, len(d.extra))
	for k, v := range d.extra {
		extra[k] = v
	}
	return ccmux.AgentState{
		AgentType:      "claude",
		Activity:       d.activity,
		AgentSessionID: d.sessionID,
		Extra:          extra,
		Confidence:     95,
	}
}

func (d *ClaudeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = nil
	d.present = false
	d.active = false
	d.activity = ccmux.Idle
	d.sessionID = ""
	d.extra = make(map[string]ccmux.Value)
}

func (d *ClaudeDetector) MarkActive() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.present = true
	d.active = true
}

func (d *ClaudeDetector) Analyze(chunk []byte) (ccmux.AgentState, bool) {
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

	if sid := d.extractSessionIDFromLocked(chunk); sid != "" {
		d.sessionID = sid
	}
	for k, v := range d.extractMetadataFromLocked(chunk) {
		d.extra[k] = v
	}

	activity, ok := d.detectActivityLocked(chunk)
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

// extractSessionIDFromLocked/extractMetadataFromLocked avoid re-locking
// from within Analyze, which already holds d.mu.
func (d *ClaudeDetector) extractSessionIDFromLocked(chunk []byte) string {
	buf := d.appendLocked(chunk)
	text := string(buf)
	if idx := strings.Index(text, "session_id\":\""); idx >= 0 {
		rest := text[idx+len("session_id\":\""):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			return rest[:end]
		}
	}
	return ""
}

func (d *ClaudeDetector) extractMetadataFromLocked(chunk []byte) map[string]ccmux.Value {
	text := string(d.buf)
	out := make(map[string]ccmux.Value)
	if idx := strings.Index(text, "Model: "); idx >= 0 {
		rest := text[idx+len("Model: "):]
		end := strings.IndexAny(rest, " \r\n")
		if end < 0 {
			end = len(rest)
		}
		out["model"] = ccmux.StringValue(strings.TrimSpace(rest[:end]))
	}
	return out
}
