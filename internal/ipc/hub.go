package ipc

import (
	"sync"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/graph"
)

// Hub is the graph.Sink wired into a Graph: it fans each graph.Event out to
// every client currently attached to that event's session. It knows nothing
// about the wire format or the socket — only which clients want which
// session's events.
type Hub struct {
	mu        sync.Mutex
	clients   map[ccmux.ClientID]*client
	bySession map[ccmux.SessionID]map[ccmux.ClientID]*client
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[ccmux.ClientID]*client),
		bySession: make(map[ccmux.SessionID]map[ccmux.ClientID]*client),
	}
}

// register adds c to the client table under c.id, unless that ID already
// names a live client — a collision would otherwise silently hijack the
// existing client's subscriptions. In that case it mints a fresh ID, sets
// it on c, and registers under that instead. It returns the ID c was
// actually registered under, which may differ from c.id on entry.
func (h *Hub) register(c *client) ccmux.ClientID {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.clients[c.id]; taken || c.id.IsZero() {
		c.id = ccmux.NewClientID()
	}
	h.clients[c.id] = c
	return c.id
}

// unregister drops c from every session it was subscribed to and from the
// client table, used when a connection closes.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
	for sid, m := range h.bySession {
		delete(m, c.id)
		if len(m) == 0 {
			delete(h.bySession, sid)
		}
	}
}

func (h *Hub) subscribe(sessionID ccmux.SessionID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.bySession[sessionID]
	if !ok {
		m = make(map[ccmux.ClientID]*client)
		h.bySession[sessionID] = m
	}
	m[c.id] = c
}

func (h *Hub) unsubscribe(sessionID ccmux.SessionID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.bySession[sessionID]; ok {
		delete(m, c.id)
		if len(m) == 0 {
			delete(h.bySession, sessionID)
		}
	}
}

// Dispatch implements graph.Sink: it delivers e to every client attached to
// e.SessionID. Output events go through the droppable data queue; every
// other message type is control traffic and is never dropped.
func (h *Hub) Dispatch(e graph.Event) {
	h.mu.Lock()
	subs := h.bySession[e.SessionID]
	targets := make([]*client, 0, len(subs))
	for _, c := range subs {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if out, ok := e.Message.(ccmux.Output); ok {
			c.sendOutput(out)
			continue
		}
		c.sendControl(e.Message)
	}
}
