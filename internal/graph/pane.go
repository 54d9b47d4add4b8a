package graph

import (
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/sideband"
)

const (
	defaultCols uint16 = 80
	defaultRows uint16 = 24
)

// CreatePane adds a new, shell-backed pane to windowID. direction is
// carried through to clients for layout only; it does not affect
// bookkeeping.
func (g *Graph) CreatePane(windowID ccmux.WindowID, direction ccmux.Direction) (ccmux.PaneInfo, error) {
	return g.createPane(windowID, direction, "", false, "", false)
}

// createPane is the shared implementation behind CreatePane and the
// sideband Spawn command, which may specify an explicit command and cwd.
func (g *Graph) createPane(windowID ccmux.WindowID, direction ccmux.Direction, command string, hasCommand bool, cwd string, hasCwd bool) (ccmux.PaneInfo, error) {
	g.mu.Lock()
	w, ok := g.windows[windowID]
	if !ok {
		g.mu.Unlock()
		return ccmux.PaneInfo{}, ccmux.NewError(ccmux.ErrWindowNotFound, "no such window: "+windowID.String())
	}

	id := ccmux.NewPaneID()
	now := time.Now()
	p := &pane{
		id:              id,
		windowID:        windowID,
		index:           len(w.paneOrder),
		cols:            defaultCols,
		rows:            defaultRows,
		state:           ccmux.NormalState(),
		cwd:             cwd,
		createdAt:       now,
		lastStateChange: now,
		registry:        g.registry(),
		scanner:         sideband.NewScanner(g.log),
	}

	handle, err := g.spawner.Spawn(command, hasCommand, cwd, hasCwd, defaultCols, defaultRows,
		func(chunk []byte) { g.ApplyOutput(id, chunk) },
		func(code int32, hasCode bool) { g.handleProcessExit(id, code, hasCode) },
	)
	if err != nil {
		g.mu.Unlock()
		return ccmux.PaneInfo{}, ccmux.NewError(ccmux.ErrInternalError, "spawn pane: "+err.Error())
	}
	p.pty = handle

	g.panes[id] = p
	w.paneOrder = append(w.paneOrder, id)
	if w.focused == nil {
		focused := id
		w.focused = &focused
	}

	info := p.snapshot()
	sessionID := w.sessionID
	g.mu.Unlock()

	g.emit([]Event{{SessionID: sessionID, Message: ccmux.PaneCreated{Pane: info, Direction: direction}}})
	return info, nil
}

// ClosePane marks paneID Exited (invariant 7: terminal, never reverts),
// force-kills its PTY, and cascades window/session closure when it was the
// last surviving pane/window. It satisfies sideband.Mutator.
func (g *Graph) ClosePane(paneID ccmux.PaneID) error {
	_, handle, err := g.closePaneLocked(paneID, nil)
	if err != nil {
		return err
	}
	if handle != nil {
		handle.Kill()
	}
	return nil
}

// handleProcessExit is the PTY driver's onExit callback: the process is
// already dead, so unlike ClosePane it must never call handle.Kill() (the
// pid may already have been recycled by the OS).
func (g *Graph) handleProcessExit(paneID ccmux.PaneID, code int32, hasCode bool) {
	var exitCode *int32
	if hasCode {
		c := code
		exitCode = &c
	}
	g.closePaneLocked(paneID, exitCode)
}

// closePaneLocked performs the close/renumber/cascade bookkeeping and
// returns the resulting events (already emitted) plus the pane's PTY
// handle, letting the two callers above decide whether to force-kill it.
func (g *Graph) closePaneLocked(paneID ccmux.PaneID, exitCode *int32) ([]Event, PTYHandle, error) {
	g.mu.Lock()

	p, ok := g.panes[paneID]
	if !ok {
		g.mu.Unlock()
		return nil, nil, ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+paneID.String())
	}
	if p.state.IsTerminal() {
		g.mu.Unlock()
		return nil, nil, nil
	}

	p.state = ccmux.ExitedState(exitCode)
	p.lastStateChange = time.Now()
	handle := p.pty

	w := g.windows[p.windowID]
	removedIndex := p.index
	newOrder := make([]ccmux.PaneID, 0, len(w.paneOrder)-1)
	for _, pid := range w.paneOrder {
		if pid == paneID {
			continue
		}
		newOrder = append(newOrder, pid)
	}
	for i, pid := range newOrder {
		g.panes[pid].index = i
	}
	w.paneOrder = newOrder

	if w.focused != nil && *w.focused == paneID {
		if len(newOrder) == 0 {
			w.focused = nil
		} else {
			idx := removedIndex
			if idx >= len(newOrder) {
				idx = len(newOrder) - 1
			}
			nf := newOrder[idx]
			w.focused = &nf
		}
	}

	sessionID := w.sessionID
	events := []Event{{SessionID: sessionID, Message: ccmux.PaneClosed{PaneID: paneID, ExitCode: exitCode}}}
	delete(g.panes, paneID)

	if len(w.paneOrder) == 0 {
		delete(g.windows, w.id)
		s := g.sessions[sessionID]
		newWO := make([]ccmux.WindowID, 0, len(s.windowOrder)-1)
		for _, wid := range s.windowOrder {
			if wid != w.id {
				newWO = append(newWO, wid)
			}
		}
		s.windowOrder = newWO
		events = append(events, Event{SessionID: sessionID, Message: ccmux.WindowClosed{WindowID: w.id}})

		if len(s.windowOrder) == 0 {
			delete(g.sessions, sessionID)
			events = append(events, Event{SessionID: sessionID, Message: ccmux.SessionEnded{SessionID: sessionID}})
		}
	}

	g.mu.Unlock()
	g.emit(events)
	return events, handle, nil
}

// ResizePane updates a pane's reported terminal dimensions. It satisfies
// sideband.Mutator.
func (g *Graph) ResizePane(paneID ccmux.PaneID, cols, rows uint16) error {
	g.mu.Lock()
	p, ok := g.panes[paneID]
	if !ok {
		g.mu.Unlock()
		return ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+paneID.String())
	}
	if p.state.IsTerminal() {
		g.mu.Unlock()
		return ccmux.NewError(ccmux.ErrInvalidOperation, "pane has exited")
	}
	p.cols, p.rows = cols, rows
	p.lastStateChange = time.Now()
	handle := p.pty
	sessionID := g.windows[p.windowID].sessionID
	state := cloneState(p.state)
	g.mu.Unlock()

	if handle != nil {
		if err := handle.Resize(cols, rows); err != nil {
			g.log.Warn("graph: pty resize failed", "pane", paneID.String(), "error", err)
		}
	}
	g.emit([]Event{{SessionID: sessionID, Message: ccmux.PaneStateChanged{PaneID: paneID, State: state}}})
	return nil
}

// SelectPane sets the parent window's focused pane.
func (g *Graph) SelectPane(paneID ccmux.PaneID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.panes[paneID]
	if !ok {
		return ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+paneID.String())
	}
	w := g.windows[p.windowID]
	id := paneID
	w.focused = &id
	return nil
}

// FocusPane is the sideband.Mutator entry point for the same operation.
func (g *Graph) FocusPane(paneID ccmux.PaneID) error { return g.SelectPane(paneID) }

// Input forwards bytes to paneID's PTY without touching graph state.
func (g *Graph) Input(paneID ccmux.PaneID, data []byte) error {
	g.mu.Lock()
	p, ok := g.panes[paneID]
	if !ok {
		g.mu.Unlock()
		return ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+paneID.String())
	}
	if p.state.IsTerminal() {
		g.mu.Unlock()
		return ccmux.NewError(ccmux.ErrInvalidOperation, "pane has exited")
	}
	handle := p.pty
	g.mu.Unlock()

	if handle == nil {
		return ccmux.NewError(ccmux.ErrInternalError, "pane has no pty handle")
	}
	return handle.Write(data)
}

// InputText is the sideband.Mutator entry point for Input.
func (g *Graph) InputText(paneID ccmux.PaneID, text string) error {
	return g.Input(paneID, []byte(text))
}

// FindPane resolves paneID to value-copy snapshots of its session, window,
// and itself, or false if it is not (or no longer) in the graph.
func (g *Graph) FindPane(paneID ccmux.PaneID) (ccmux.SessionInfo, ccmux.WindowInfo, ccmux.PaneInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.panes[paneID]
	if !ok {
		return ccmux.SessionInfo{}, ccmux.WindowInfo{}, ccmux.PaneInfo{}, false
	}
	w := g.windows[p.windowID]
	s := g.sessions[w.sessionID]
	return s.snapshot(), w.snapshot(), p.snapshot(), true
}
