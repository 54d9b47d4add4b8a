package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/sideband"
)

// fakeHandle is an in-memory stand-in for a real PTY, letting tests drive
// ApplyOutput without spawning a process.
type fakeHandle struct {
	mu       sync.Mutex
	written  [][]byte
	cols     uint16
	rows     uint16
	killed   bool
}

func (h *fakeHandle) Write(b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]byte, len(b))
	copy(cp, b)
	h.written = append(h.written, cp)
	return nil
}
func (h *fakeHandle) Resize(cols, rows uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cols, h.rows = cols, rows
	return nil
}
func (h *fakeHandle) Kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.killed = true
}
func (h *fakeHandle) PID() int { return 1 }

type fakeSpawner struct {
	mu      sync.Mutex
	handles []*fakeHandle
}

func (s *fakeSpawner) Spawn(command string, hasCommand bool, cwd string, hasCwd bool, cols, rows uint16,
	onBytes func([]byte), onExit func(int32, bool)) (PTYHandle, error) {
	h := &fakeHandle{cols: cols, rows: rows}
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
	return h, nil
}

func newTestGraph() (*Graph, *fakeSpawner, []Event) {
	sp := &fakeSpawner{}
	var events []Event
	var mu sync.Mutex
	g := New(sp, DefaultRegistryFactory, func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}, nil)
	return g, sp, events
}

func TestCreateSessionWindowPane(t *testing.T) {
	g, _, _ := newTestGraph()

	sess := g.CreateSession("dev")
	assert.Equal(t, "dev", sess.Name)
	assert.Equal(t, 0, sess.WindowCount)

	win, err := g.CreateWindow(sess.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, 0, win.Index)

	p, err := g.CreatePane(win.ID, ccmux.Horizontal)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Index)
	assert.EqualValues(t, 80, p.Cols)
	assert.EqualValues(t, 24, p.Rows)
}

func TestCreateWindowUnknownSession(t *testing.T) {
	g, _, _ := newTestGraph()
	_, err := g.CreateWindow(ccmux.NewSessionID(), "", false)
	require.Error(t, err)
	ce, ok := err.(*ccmux.CCMuxError)
	require.True(t, ok)
	assert.Equal(t, ccmux.ErrSessionNotFound, ce.Code)
}

func TestWindowIndexNeverRecycled(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")

	w0, _ := g.CreateWindow(sess.ID, "", false)
	w1, _ := g.CreateWindow(sess.ID, "", false)
	assert.Equal(t, 0, w0.Index)
	assert.Equal(t, 1, w1.Index)

	p0, _ := g.CreatePane(w0.ID, ccmux.Horizontal)
	require.NoError(t, g.ClosePane(p0.ID))
	// w0 had exactly one pane, so it closed; the next window must still get
	// index 2, never reusing 0.
	w2, err := g.CreateWindow(sess.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, w2.Index)
}

func TestPaneIndicesRenumberDenseOnClose(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)

	p0, _ := g.CreatePane(win.ID, ccmux.Horizontal)
	p1, _ := g.CreatePane(win.ID, ccmux.Horizontal)
	p2, _ := g.CreatePane(win.ID, ccmux.Horizontal)
	assert.Equal(t, 0, p0.Index)
	assert.Equal(t, 1, p1.Index)
	assert.Equal(t, 2, p2.Index)

	require.NoError(t, g.ClosePane(p1.ID))

	_, _, info2, ok := g.FindPane(p2.ID)
	require.True(t, ok)
	assert.Equal(t, 1, info2.Index, "surviving pane after p1 must shift down to fill the gap")
}

func TestClosingSolePaneClosesWindowAndSession(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	p, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	require.NoError(t, g.ClosePane(p.ID))

	_, _, _, ok := g.FindPane(p.ID)
	assert.False(t, ok)

	sessions := g.ListSessions()
	assert.Empty(t, sessions, "session with no remaining windows must be gone")
}

func TestFocusMovesToMinOfIndexAndCountOnClose(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)

	_, _ = g.CreatePane(win.ID, ccmux.Horizontal)
	p1, _ := g.CreatePane(win.ID, ccmux.Horizontal)
	p2, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	require.NoError(t, g.SelectPane(p2.ID))
	require.NoError(t, g.ClosePane(p2.ID))

	_, winInfo, _, ok := g.FindPane(p1.ID)
	require.True(t, ok)
	require.NotNil(t, winInfo.FocusedPane)
	assert.Equal(t, p1.ID, *winInfo.FocusedPane, "focus must land on min(removed index, surviving count-1)")
}

func TestFocusingClosedPaneIsNotFound(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	p, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	require.NoError(t, g.ClosePane(p.ID))

	err := g.SelectPane(p.ID)
	require.Error(t, err)
	ce := err.(*ccmux.CCMuxError)
	assert.Equal(t, ccmux.ErrPaneNotFound, ce.Code)
}

func TestAttachDetach(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	client := ccmux.NewClientID()

	snap, err := g.Attach(sess.ID, client)
	require.NoError(t, err)
	assert.Empty(t, snap.Windows)
	assert.Empty(t, snap.Panes)

	sessions := g.ListSessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].AttachedClients)

	require.NoError(t, g.Detach(sess.ID, client))
	sessions = g.ListSessions()
	assert.Equal(t, 0, sessions[0].AttachedClients)
}

func TestApplyOutputStripsSidebandAndEmitsOutput(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	p, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	var mu sync.Mutex
	var captured []Event
	g.sink = func(e Event) {
		mu.Lock()
		captured = append(captured, e)
		mu.Unlock()
	}

	chunk := []byte("before\x1b]1337;ccmux:{\"op\":\"notify\",\"level\":\"warning\",\"message\":\"hi\"}\x07after")
	g.ApplyOutput(p.ID, chunk)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, captured, 1)
	out, ok := captured[0].Message.(ccmux.Output)
	require.True(t, ok)
	assert.Equal(t, "beforeafter", string(out.Bytes))
}

func TestApplyOutputDetectsAgentPresence(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	p, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	var mu sync.Mutex
	var captured []Event
	g.sink = func(e Event) {
		mu.Lock()
		captured = append(captured, e)
		mu.Unlock()
	}

	g.ApplyOutput(p.ID, []byte("Welcome to Claude Code\n"))

	mu.Lock()
	defer mu.Unlock()
	var sawAgentChange bool
	for _, e := range captured {
		if asc, ok := e.Message.(ccmux.AgentStateChanged); ok {
			sawAgentChange = true
			assert.Equal(t, "claude", asc.State.AgentType)
		}
	}
	assert.True(t, sawAgentChange)

	_, _, info, ok := g.FindPane(p.ID)
	require.True(t, ok)
	assert.Equal(t, ccmux.PaneAgent, info.State.Kind)
}

func TestResolvePaneRefVariants(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	p0, _ := g.CreatePane(win.ID, ccmux.Horizontal)
	p1, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	active, err := g.ResolvePaneRef(p0.ID, sideband.PaneRef{Kind: sideband.RefActive})
	require.NoError(t, err)
	assert.Equal(t, p0.ID, active)

	byIndex, err := g.ResolvePaneRef(p0.ID, sideband.PaneRef{Kind: sideband.RefIndex, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, byIndex)

	_, err = g.ResolvePaneRef(p0.ID, sideband.PaneRef{Kind: sideband.RefIndex, Index: 5})
	require.Error(t, err)
}

func TestSpawnPaneSideband(t *testing.T) {
	g, _, _ := newTestGraph()
	sess := g.CreateSession("dev")
	win, _ := g.CreateWindow(sess.ID, "", false)
	p0, _ := g.CreatePane(win.ID, ccmux.Horizontal)

	err := g.SpawnPane(p0.ID, ccmux.Vertical, "", false, "", false)
	require.NoError(t, err)

	_, winInfo, _, _ := g.FindPane(p0.ID)
	assert.Equal(t, 2, winInfo.PaneCount)
}
