package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

func TestGenericDetectorLowConfidenceCeiling(t *testing.T) {
	d := NewGenericAgentDetector()
	_, ok := d.Analyze([]byte("Working… on it\n"))
	require.True(t, ok)
	assert.EqualValues(t, 40, d.Confidence())
}

func TestGenericDetectorAwaitingConfirmationPrompt(t *testing.T) {
	d := NewGenericAgentDetector()
	d.MarkActive()
	state, ok := d.Analyze([]byte("Continue? [y/N] "))
	require.True(t, ok)
	assert.Equal(t, ccmux.AwaitingConfirmation, state.Activity)
}

func TestGenericDetectorNoMatchStaysAbsent(t *testing.T) {
	d := NewGenericAgentDetector()
	assert.False(t, d.DetectPresence([]byte("hello world\n")))
	assert.EqualValues(t, 0, d.Confidence())
}

func TestGenericDetectorLosesTieBreakToNamedDetector(t *testing.T) {
	r := NewRegistry(NewGenericAgentDetector(), NewClaudeDetector())
	state, ok := r.Process([]byte("Welcome to Claude Code\nThinking…\n"))
	require.True(t, ok)
	assert.Equal(t, "claude", state.AgentType)
}
