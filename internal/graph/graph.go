// Package graph implements the session/window/pane object tree: the
// single piece of shared mutable state every other component — the IPC
// server, the sideband executor, the detector registry — ultimately
// mutates through. A single mutex guards a map of live objects; request
// handlers lock, mutate, build an event list, and unlock before any
// blocking I/O or broadcast send.
package graph

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/detect"
	"github.com/ianremillard/ccmux/internal/sideband"
)

// RegistryFactory builds a fresh per-pane detector registry. Supplied by
// the caller so the graph package does not hardcode which detectors exist.
type RegistryFactory func() *detect.Registry

// Graph is the process-wide session/window/pane tree, guarded by a single
// mutex. Every mutation acquires mu, builds its event list, releases mu,
// then emits — the mutex is never held across a send or a blocking PTY
// call.
type Graph struct {
	mu       sync.Mutex
	sessions map[ccmux.SessionID]*session
	windows  map[ccmux.WindowID]*window
	panes    map[ccmux.PaneID]*pane

	spawner  Spawner
	registry RegistryFactory
	exec     *sideband.Executor
	log      *slog.Logger
	sink     Sink
}

// New builds an empty graph. spawner opens PTYs for new panes; registry
// builds the per-pane detector set; sink receives every broadcast-worthy
// event; log receives diagnostics (sideband failures, notifications).
func New(spawner Spawner, registry RegistryFactory, sink Sink, log *slog.Logger) *Graph {
	if log == nil {
		log = slog.Default()
	}
	return &Graph{
		sessions: make(map[ccmux.SessionID]*session),
		windows:  make(map[ccmux.WindowID]*window),
		panes:    make(map[ccmux.PaneID]*pane),
		spawner:  spawner,
		registry: registry,
		exec:     sideband.NewExecutor(log),
		log:      log,
		sink:     sink,
	}
}

// CreateSession creates a new, empty session.
func (g *Graph) CreateSession(name string) ccmux.SessionInfo {
	g.mu.Lock()
	s := &session{
		id:              ccmux.NewSessionID(),
		name:            name,
		createdAt:       time.Now(),
		attachedClients: make(map[ccmux.ClientID]struct{}),
	}
	g.sessions[s.id] = s
	info := s.snapshot()
	g.mu.Unlock()
	return info
}

// ListSessions returns a value-copy snapshot of every live session,
// ordered by creation time for deterministic listings.
func (g *Graph) ListSessions() []ccmux.SessionInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ccmux.SessionInfo, 0, len(g.sessions))
	for _, s := range g.sessions {
		out = append(out, s.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Attach subscribes clientID to sessionID's event stream and returns a full
// value-copy snapshot of its current windows and panes.
func (g *Graph) Attach(sessionID ccmux.SessionID, clientID ccmux.ClientID) (ccmux.AttachSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return ccmux.AttachSnapshot{}, ccmux.NewError(ccmux.ErrSessionNotFound, "no such session: "+sessionID.String())
	}
	s.attachedClients[clientID] = struct{}{}

	windows := make([]ccmux.WindowInfo, 0, len(s.windowOrder))
	var panes []ccmux.PaneInfo
	for _, wid := range s.windowOrder {
		w := g.windows[wid]
		windows = append(windows, w.snapshot())
		for _, pid := range w.paneOrder {
			panes = append(panes, g.panes[pid].snapshot())
		}
	}

	return ccmux.AttachSnapshot{Session: s.snapshot(), Windows: windows, Panes: panes}, nil
}

// Detach unsubscribes clientID from sessionID. Unknown client IDs are a
// silent no-op, matching invariant 6: attached_clients only ever holds live
// IDs, so removing an absent one is already the desired post-state.
func (g *Graph) Detach(sessionID ccmux.SessionID, clientID ccmux.ClientID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return ccmux.NewError(ccmux.ErrSessionNotFound, "no such session: "+sessionID.String())
	}
	delete(s.attachedClients, clientID)
	return nil
}

// DetachClientFromAll removes clientID from every session's attached set,
// used when a connection is lost.
func (g *Graph) DetachClientFromAll(clientID ccmux.ClientID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.sessions {
		delete(s.attachedClients, clientID)
	}
}

// CreateWindow adds a new, empty window to sessionID. The new window's
// index is one more than the highest index among the session's current
// windows, so a closed window's index is reused only when no window with a
// higher index remains.
func (g *Graph) CreateWindow(sessionID ccmux.SessionID, name string, hasName bool) (ccmux.WindowInfo, error) {
	g.mu.Lock()

	s, ok := g.sessions[sessionID]
	if !ok {
		g.mu.Unlock()
		return ccmux.WindowInfo{}, ccmux.NewError(ccmux.ErrSessionNotFound, "no such session: "+sessionID.String())
	}

	maxIdx := -1
	for _, wid := range s.windowOrder {
		if idx := g.windows[wid].index; idx > maxIdx {
			maxIdx = idx
		}
	}

	w := &window{
		id:        ccmux.NewWindowID(),
		sessionID: sessionID,
		name:      name,
		hasName:   hasName,
		index:     maxIdx + 1,
	}
	g.windows[w.id] = w
	s.windowOrder = append(s.windowOrder, w.id)
	info := w.snapshot()

	events := []Event{{SessionID: sessionID, Message: ccmux.WindowCreated{Window: info}}}
	g.mu.Unlock()
	g.emit(events)
	return info, nil
}

// findWindowLocked resolves a window ID; caller must hold g.mu.
func (g *Graph) findWindowLocked(id ccmux.WindowID) (*window, bool) {
	w, ok := g.windows[id]
	return w, ok
}
