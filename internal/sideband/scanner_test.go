package sideband

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerStripsNotifyFrame(t *testing.T) {
	s := NewScanner(nil)
	input := []byte("before\x1b]1337;ccmux:{\"op\":\"notify\",\"level\":\"warning\",\"message\":\"hello\"}\x07after")

	out, cmds := s.Process(input)

	assert.Equal(t, "beforeafter", string(out))
	require.Len(t, cmds, 1)
	notify, ok := cmds[0].(NotifyCommand)
	require.True(t, ok)
	assert.Equal(t, "hello", notify.Message)
	assert.Equal(t, LevelWarning, notify.Level)
}

func TestScannerTakesFrameSplitAcrossChunks(t *testing.T) {
	s := NewScanner(nil)
	full := "plain\x1b]1337;ccmux:{\"op\":\"focus\",\"pane\":\"active\"}\x07tail"

	var out []byte
	var cmds []Command
	for i := 0; i < len(full); i++ {
		o, c := s.Process([]byte{full[i]})
		out = append(out, o...)
		cmds = append(cmds, c...)
	}

	assert.Equal(t, "plaintail", string(out))
	require.Len(t, cmds, 1)
	_, ok := cmds[0].(FocusCommand)
	assert.True(t, ok)
}

func TestScannerIgnoresUnrelatedEscapeSequences(t *testing.T) {
	s := NewScanner(nil)
	input := []byte("\x1b[31mred\x1b[0m text")
	out, cmds := s.Process(input)
	assert.Equal(t, input, out)
	assert.Empty(t, cmds)
}

func TestScannerDropsMalformedFrameWithoutInterruptingStream(t *testing.T) {
	s := NewScanner(nil)
	input := []byte("a\x1b]1337;ccmux:{not json}\x07b")
	out, cmds := s.Process(input)
	assert.Equal(t, "ab", string(out))
	assert.Empty(t, cmds)
}

func TestScannerStripsOverlongFrame(t *testing.T) {
	s := NewScanner(nil)
	huge := make([]byte, maxFrameBytes+10)
	for i := range huge {
		huge[i] = 'x'
	}
	input := append([]byte("a\x1b]1337;ccmux:"), huge...)
	input = append(input, "tail"...)

	out, cmds := s.Process(input)
	assert.Empty(t, cmds)
	assert.Contains(t, string(out), "a")
}

func TestDecodePaneRefVariants(t *testing.T) {
	ref, err := decodePaneRef([]byte(`"active"`))
	require.NoError(t, err)
	assert.Equal(t, RefActive, ref.Kind)

	ref, err = decodePaneRef([]byte(`{"index":2}`))
	require.NoError(t, err)
	assert.Equal(t, RefIndex, ref.Kind)
	assert.Equal(t, 2, ref.Index)
}
