// Package ipc implements the Unix-domain-socket server: it accepts client
// connections, dispatches inbound frames to the session graph, and
// multicasts graph events back out to subscribed clients. One listener,
// one goroutine per connection, with a long-lived bidirectional event
// stream per connection rather than a single request/response exchange.
package ipc

import (
	"sync"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// outboundDataCap bounds each client's droppable Output queue.
// outboundPriorityCap bounds the queue for direct replies, control events
// and heartbeats; nothing is dropped from it, and a sender blocks while it
// is full.
const (
	outboundDataCap     = 256
	outboundPriorityCap = 64
)

// client is one connected front-end: its identity, its two outbound
// queues, and the bookkeeping needed to clean up its subscriptions when it
// disconnects.
type client struct {
	id ccmux.ClientID

	priority chan ccmux.Message // control events, direct replies, heartbeats — never dropped
	data     chan ccmux.Message // Output events — droppable under backpressure
	done     chan struct{}
	closeOnce sync.Once

	mu              sync.Mutex
	attachedSessions map[ccmux.SessionID]struct{}
	resyncPending    bool
	awaitingPong     bool
	missedPongs      int
}

func newClient(id ccmux.ClientID) *client {
	return &client{
		id:               id,
		priority:         make(chan ccmux.Message, outboundPriorityCap),
		data:             make(chan ccmux.Message, outboundDataCap),
		done:             make(chan struct{}),
		attachedSessions: make(map[ccmux.SessionID]struct{}),
	}
}

// sendControl enqueues a message that must never be silently dropped:
// direct replies, created/closed events, errors, pings and pongs.
func (c *client) sendControl(msg ccmux.Message) {
	select {
	case c.priority <- msg:
	case <-c.done:
	}
}

// sendOutput enqueues a pane Output event. If the data queue is full, the
// event is dropped and a resync flag is latched so the next Output this
// client actually receives is marked Resync — telling it to request Sync
// rather than silently missing a chunk of output.
func (c *client) sendOutput(msg ccmux.Output) {
	c.mu.Lock()
	if c.resyncPending {
		msg.Resync = true
		c.resyncPending = false
	}
	c.mu.Unlock()

	select {
	case c.data <- msg:
	default:
		c.mu.Lock()
		c.resyncPending = true
		c.mu.Unlock()
	}
}

func (c *client) markAttached(sessionID ccmux.SessionID) {
	c.mu.Lock()
	c.attachedSessions[sessionID] = struct{}{}
	c.mu.Unlock()
}

func (c *client) markDetached(sessionID ccmux.SessionID) {
	c.mu.Lock()
	delete(c.attachedSessions, sessionID)
	c.mu.Unlock()
}

func (c *client) attachedSessionList() []ccmux.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ccmux.SessionID, 0, len(c.attachedSessions))
	for id := range c.attachedSessions {
		out = append(out, id)
	}
	return out
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
