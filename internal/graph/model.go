package graph

import (
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/detect"
	"github.com/ianremillard/ccmux/internal/sideband"
)

// session, window, and pane are the graph's live, mutable node types.
// Ownership is one-way (parent -> children) plus a flat by-ID index;
// children never hold a back-pointer to their parent object, only its ID.
type session struct {
	id              ccmux.SessionID
	name            string
	createdAt       time.Time
	windowOrder     []ccmux.WindowID
	attachedClients map[ccmux.ClientID]struct{}
}

func (s *session) snapshot() ccmux.SessionInfo {
	return ccmux.SessionInfo{
		ID:              s.id,
		Name:            s.name,
		CreatedAt:       s.createdAt,
		WindowCount:     len(s.windowOrder),
		AttachedClients: len(s.attachedClients),
	}
}

type window struct {
	id        ccmux.WindowID
	sessionID ccmux.SessionID
	name      string
	hasName   bool
	index     int
	paneOrder []ccmux.PaneID
	focused   *ccmux.PaneID
}

func (w *window) snapshot() ccmux.WindowInfo {
	var focused *ccmux.PaneID
	if w.focused != nil {
		id := *w.focused
		focused = &id
	}
	return ccmux.WindowInfo{
		ID:          w.id,
		SessionID:   w.sessionID,
		Name:        w.name,
		Index:       w.index,
		PaneCount:   len(w.paneOrder),
		FocusedPane: focused,
	}
}

type pane struct {
	id              ccmux.PaneID
	windowID        ccmux.WindowID
	index           int
	cols, rows      uint16
	state           ccmux.PaneState
	title           string
	cwd             string
	createdAt       time.Time
	lastStateChange time.Time
	pinned          bool

	registry *detect.Registry
	scanner  *sideband.Scanner
	pty      PTYHandle
}

func (p *pane) snapshot() ccmux.PaneInfo {
	return ccmux.PaneInfo{
		ID:              p.id,
		WindowID:        p.windowID,
		Index:           p.index,
		Cols:            p.cols,
		Rows:            p.rows,
		State:           cloneState(p.state),
		Title:           p.title,
		WorkingDir:      p.cwd,
		CreatedAt:       p.createdAt,
		LastStateChange: p.lastStateChange,
	}
}

// cloneState returns a copy of s safe to hand to a client; PaneState's Agent
// variant holds a map that must never be aliased into the live graph.
func cloneState(s ccmux.PaneState) ccmux.PaneState {
	if s.Kind != ccmux.PaneAgent {
		return s
	}
	return ccmux.AgentStateOf(s.Agent.Clone())
}
