package graph

import (
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/sideband"
)

// ApplyOutput runs a chunk of PTY output through paneID's sideband scanner
// and detector registry, mutates the resulting state, and broadcasts the
// stripped output plus any state-change events. It is the PTY driver's
// per-chunk callback, so it must never block.
func (g *Graph) ApplyOutput(paneID ccmux.PaneID, chunk []byte) {
	g.mu.Lock()
	p, ok := g.panes[paneID]
	if !ok || p.state.IsTerminal() {
		g.mu.Unlock()
		return
	}
	scanner := p.scanner
	registry := p.registry
	sessionID := g.windows[p.windowID].sessionID
	g.mu.Unlock()

	stripped, cmds := scanner.Process(chunk)

	var events []Event
	if len(stripped) > 0 {
		events = append(events, Event{SessionID: sessionID, Message: ccmux.Output{PaneID: paneID, Bytes: stripped}})
	}

	if state, ok := registry.Process(stripped); ok {
		g.mu.Lock()
		if p2, ok := g.panes[paneID]; ok && !p2.state.IsTerminal() {
			p2.state = ccmux.AgentStateOf(state)
			p2.lastStateChange = time.Now()
		}
		g.mu.Unlock()
		events = append(events, Event{SessionID: sessionID, Message: ccmux.AgentStateChanged{PaneID: paneID, State: state.Clone()}})
	}

	g.emit(events)

	if len(cmds) > 0 {
		g.exec.Run(paneID, cmds, g)
	}
}

// ResolvePaneRef implements sideband.Mutator: Active resolves to source,
// Id resolves against the flat pane index, Index resolves within source's
// parent window.
func (g *Graph) ResolvePaneRef(source ccmux.PaneID, ref sideband.PaneRef) (ccmux.PaneID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ref.Kind {
	case sideband.RefActive:
		return source, nil

	case sideband.RefID:
		if _, ok := g.panes[ref.ID]; !ok {
			return ccmux.PaneID{}, ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+ref.ID.String())
		}
		return ref.ID, nil

	case sideband.RefIndex:
		sp, ok := g.panes[source]
		if !ok {
			return ccmux.PaneID{}, ccmux.NewError(ccmux.ErrPaneNotFound, "source pane gone: "+source.String())
		}
		w := g.windows[sp.windowID]
		if ref.Index < 0 || ref.Index >= len(w.paneOrder) {
			return ccmux.PaneID{}, ccmux.NewError(ccmux.ErrPaneNotFound, "no pane at index")
		}
		return w.paneOrder[ref.Index], nil

	default:
		return ccmux.PaneID{}, ccmux.NewError(ccmux.ErrInvalidOperation, "unknown pane reference kind")
	}
}

// SpawnPane implements sideband.Mutator: it creates a sibling pane in
// source's parent window, optionally overriding the spawned command/cwd.
func (g *Graph) SpawnPane(source ccmux.PaneID, dir ccmux.Direction, command string, hasCommand bool, cwd string, hasCwd bool) error {
	g.mu.Lock()
	sp, ok := g.panes[source]
	if !ok {
		g.mu.Unlock()
		return ccmux.NewError(ccmux.ErrPaneNotFound, "source pane gone: "+source.String())
	}
	windowID := sp.windowID
	g.mu.Unlock()

	_, err := g.createPane(windowID, dir, command, hasCommand, cwd, hasCwd)
	return err
}

// ScrollPane validates the target pane exists. Actual viewport scrolling is
// owned by a terminal-emulation/screen-model collaborator outside this
// core; this is the hook that collaborator would subscribe to.
func (g *Graph) ScrollPane(paneID ccmux.PaneID, lines int32) error {
	g.mu.Lock()
	_, ok := g.panes[paneID]
	g.mu.Unlock()
	if !ok {
		return ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+paneID.String())
	}
	g.log.Debug("graph: scroll requested", "pane", paneID.String(), "lines", lines)
	return nil
}

// Notify implements sideband.Mutator by logging at the level the command
// requested; there is no dedicated wire event for sideband notifications,
// only the log entry and the frame's removal from Output.
func (g *Graph) Notify(title string, hasTitle bool, message string, level sideband.NotifyLevel) error {
	args := []any{"message", message}
	if hasTitle {
		args = append(args, "title", title)
	}
	switch level {
	case sideband.LevelWarning:
		g.log.Warn("sideband: notify", args...)
	case sideband.LevelError:
		g.log.Error("sideband: notify", args...)
	default:
		g.log.Info("sideband: notify", args...)
	}
	return nil
}

// PinPane toggles a pane's pinned flag. Pinning has no externally-wired
// effect in this core beyond the flag itself; it exists as a hook for a
// client-side "don't auto-close" policy layered on top.
func (g *Graph) PinPane(paneID ccmux.PaneID, pinned bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.panes[paneID]
	if !ok {
		return ccmux.NewError(ccmux.ErrPaneNotFound, "no such pane: "+paneID.String())
	}
	p.pinned = pinned
	return nil
}
