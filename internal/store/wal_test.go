package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/graph"
)

func TestReplayWALReappliesPaneClosedSincesLastCheckpoint(t *testing.T) {
	g := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	pane, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	dir := t.TempDir()
	wal, err := OpenWAL(dir, 0)
	require.NoError(t, err)
	require.NoError(t, wal.Append(graph.Event{Message: ccmux.Output{PaneID: pane.ID, Bytes: []byte("hi")}}))
	require.NoError(t, wal.Append(graph.Event{Message: ccmux.PaneClosed{PaneID: pane.ID}}))
	require.NoError(t, wal.Close())

	require.NoError(t, ReplayWAL(dir, g))
	_, _, _, ok := g.FindPane(pane.ID)
	assert.False(t, ok, "ReplayWAL must re-apply a PaneClosed record that postdates the checkpoint")
}

func TestWALTruncateEmptiesFile(t *testing.T) {
	dir := t.TempDir()
	wal, err := OpenWAL(dir, 0)
	require.NoError(t, err)
	defer wal.Close()

	require.NoError(t, wal.Append(graph.Event{Message: ccmux.PaneClosed{PaneID: ccmux.NewPaneID()}}))
	assert.Greater(t, wal.size, int64(0))

	require.NoError(t, wal.Truncate())
	assert.Equal(t, int64(0), wal.size)
}

func TestWALRotatesWhenOverSizeCap(t *testing.T) {
	dir := t.TempDir()
	wal, err := OpenWAL(dir, 0) // maxBytes 0 disables the cap; set directly for the test
	require.NoError(t, err)
	defer wal.Close()
	wal.maxBytes = 10

	require.NoError(t, wal.Append(graph.Event{Message: ccmux.PaneClosed{PaneID: ccmux.NewPaneID()}}))
	assert.Equal(t, int64(0), wal.size, "append exceeding the cap must rotate to an empty file")
}
