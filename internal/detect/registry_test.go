package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoutesToHighestConfidenceOnFirstMatch(t *testing.T) {
	r := NewRegistry(NewGenericAgentDetector(), NewClaudeDetector())

	state, ok := r.Process([]byte("Welcome to Claude Code\n"))
	require.True(t, ok)
	assert.Equal(t, "claude", state.AgentType)
	assert.Equal(t, "claude", r.ActiveAgentType())
}

func TestRegistryPinsActiveDetectorOnSubsequentChunks(t *testing.T) {
	r := NewRegistry(NewGenericAgentDetector(), NewClaudeDetector())
	_, _ = r.Process([]byte("Welcome to Claude Code\n"))

	// Even though this chunk also matches the generic spinner vocabulary,
	// the pinned Claude detector keeps ownership of the pane.
	state, ok := r.Process([]byte("Thinking…\n"))
	require.True(t, ok)
	assert.Equal(t, "claude", state.AgentType)
	assert.Equal(t, "claude", r.ActiveAgentType())
}

func TestRegistryNoMatchReturnsFalse(t *testing.T) {
	r := NewRegistry(NewGenericAgentDetector(), NewClaudeDetector())
	_, ok := r.Process([]byte("just a normal shell prompt $ "))
	assert.False(t, ok)
	assert.Equal(t, "", r.ActiveAgentType())
}

func TestRegistryMarkActiveForcesDetector(t *testing.T) {
	r := NewRegistry(NewGenericAgentDetector(), NewClaudeDetector())
	r.MarkActive("claude")
	assert.Equal(t, "claude", r.ActiveAgentType())
}

func TestRegistryResetClearsAllDetectors(t *testing.T) {
	r := NewRegistry(NewClaudeDetector())
	_, _ = r.Process([]byte("Welcome to Claude Code\n"))
	require.Equal(t, "claude", r.ActiveAgentType())

	r.Reset()
	assert.Equal(t, "", r.ActiveAgentType())

	_, ok := r.Process([]byte("plain output, no markers"))
	assert.False(t, ok)
}
