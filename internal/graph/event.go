package graph

import "github.com/ianremillard/ccmux/internal/ccmux"

// Event pairs a broadcast-worthy message with the session it originated in,
// so the IPC hub can route it only to that session's attached clients.
type Event struct {
	SessionID ccmux.SessionID
	Message   ccmux.Message
}

// Sink receives graph events strictly in the order they were produced,
// always outside the graph mutex: the mutex is never held across a
// broadcast send.
type Sink func(Event)

func (g *Graph) emit(events []Event) {
	if g.sink == nil {
		return
	}
	for _, e := range events {
		g.sink(e)
	}
}
