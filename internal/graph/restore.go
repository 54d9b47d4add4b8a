package graph

import (
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/sideband"
)

// RestoreSession re-inserts a session with a previously-assigned ID, as
// read back from a checkpoint. Unlike CreateSession it never mints a fresh
// ID — continuity across a daemon restart depends on panes and windows
// keeping the identity any attached client already knows them by.
func (g *Graph) RestoreSession(id ccmux.SessionID, name string, createdAt time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.sessions[id]; exists {
		return
	}
	g.sessions[id] = &session{
		id:              id,
		name:            name,
		createdAt:       createdAt,
		attachedClients: make(map[ccmux.ClientID]struct{}),
	}
}

// RestoreWindow re-inserts a window under sessionID, preserving its index
// and ID. Windows must be restored in ascending index order so paneOrder/
// windowOrder end up in the same order they were checkpointed in.
func (g *Graph) RestoreWindow(id ccmux.WindowID, sessionID ccmux.SessionID, name string, hasName bool, index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return
	}
	if _, exists := g.windows[id]; exists {
		return
	}
	g.windows[id] = &window{id: id, sessionID: sessionID, name: name, hasName: hasName, index: index}
	s.windowOrder = append(s.windowOrder, id)
}

// RestorePane re-spawns a pane under windowID with a previously-assigned
// ID and cwd. A fresh shell process is started — the checkpoint records
// metadata, not a live PTY, so there is no process to resume, only a new
// one to place where the old one was. Exited panes are restored as
// metadata only, with no process spawned.
func (g *Graph) RestorePane(id ccmux.PaneID, windowID ccmux.WindowID, cwd string, cols, rows uint16, wasExited bool, exitCode *int32) error {
	g.mu.Lock()
	w, ok := g.windows[windowID]
	if !ok {
		g.mu.Unlock()
		return ccmux.NewError(ccmux.ErrWindowNotFound, "no such window: "+windowID.String())
	}
	if _, exists := g.panes[id]; exists {
		g.mu.Unlock()
		return nil
	}

	p := &pane{
		id:       id,
		windowID: windowID,
		index:    len(w.paneOrder),
		cols:     cols,
		rows:     rows,
		cwd:      cwd,
		registry: g.registry(),
		scanner:  sideband.NewScanner(g.log),
	}

	if wasExited {
		p.state = ccmux.ExitedState(exitCode)
	} else {
		p.state = ccmux.NormalState()
		handle, err := g.spawner.Spawn("", false, cwd, cwd != "", cols, rows,
			func(chunk []byte) { g.ApplyOutput(id, chunk) },
			func(code int32, hasCode bool) { g.handleProcessExit(id, code, hasCode) },
		)
		if err != nil {
			g.mu.Unlock()
			return ccmux.NewError(ccmux.ErrInternalError, "restore pane: "+err.Error())
		}
		p.pty = handle
	}

	g.panes[id] = p
	w.paneOrder = append(w.paneOrder, id)
	if w.focused == nil && !wasExited {
		focused := id
		w.focused = &focused
	}
	g.mu.Unlock()
	return nil
}
