package ipc

import (
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// heartbeatInterval is how often the server probes each connection, busy or
// idle.
// Three consecutive missed probes mark the client dead and tear down its
// attachments.
const (
	heartbeatInterval = 2 * time.Second
	maxMissedPongs    = 3
)

// heartbeat runs for the lifetime of c's connection, sending a Ping every
// heartbeatInterval and counting unanswered probes. It shares the Ping/Pong
// message pair with client-initiated liveness checks — the wire codec does
// not care which side originated a frame.
func (s *Server) heartbeat(c *client) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.awaitingPong {
				c.missedPongs++
			} else {
				c.missedPongs = 0
			}
			missed := c.missedPongs
			c.awaitingPong = true
			c.mu.Unlock()

			if missed >= maxMissedPongs {
				s.log.Warn("ipc: client missed heartbeat, dropping", "client", c.id.String())
				c.close()
				return
			}
			c.sendControl(ccmux.Ping{})
		}
	}
}
