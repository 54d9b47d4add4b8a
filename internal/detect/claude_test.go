package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

func TestClaudeDetectorLatchesPresenceOnBanner(t *testing.T) {
	d := NewClaudeDetector()
	assert.False(t, d.DetectPresence([]byte("plain shell prompt $ ")))

	state, ok := d.Analyze([]byte("Welcome to Claude Code\n"))
	require.True(t, ok)
	assert.Equal(t, "claude", state.AgentType)
	assert.Equal(t, ccmux.Idle, state.Activity)
	assert.True(t, d.IsActive())

	// A second identical banner carries no new evidence and must not re-emit.
	_, ok = d.Analyze([]byte("Welcome to Claude Code\n"))
	assert.False(t, ok)
}

func TestClaudeDetectorPresenceSplitAcrossChunks(t *testing.T) {
	d := NewClaudeDetector()
	banner := "Welcome to Claude Code"
	var lastOK bool
	var lastState ccmux.AgentState
	for i := 0; i < len(banner); i++ {
		s, ok := d.Analyze([]byte{banner[i]})
		if ok {
			lastOK = true
			lastState = s
		}
	}
	require.True(t, lastOK)
	assert.Equal(t, "claude", lastState.AgentType)
}

func TestClaudeDetectorAwaitingConfirmation(t *testing.T) {
	d := NewClaudeDetector()
	d.MarkActive()

	state, ok := d.Analyze([]byte("Do you want to proceed?\n"))
	require.True(t, ok)
	assert.Equal(t, ccmux.AwaitingConfirmation, state.Activity)
}

func TestClaudeDetectorToolUse(t *testing.T) {
	d := NewClaudeDetector()
	d.MarkActive()

	state, ok := d.Analyze([]byte("Bash(go test ./...)\n"))
	require.True(t, ok)
	assert.Equal(t, ccmux.ToolUse, state.Activity)
}

func TestClaudeDetectorSessionIDExtraction(t *testing.T) {
	d := NewClaudeDetector()
	d.MarkActive()
	_, _ = d.Analyze([]byte(`{"session_id":"abc-123"} some more output`))
	assert.Equal(t, "abc-123", d.ExtractSessionID(nil))
}

func TestClaudeDetectorNoEvidenceNoEmit(t *testing.T) {
	d := NewClaudeDetector()
	d.MarkActive()
	_, ok := d.Analyze([]byte("just some ordinary program output\n"))
	assert.False(t, ok)
}
