package ipc

import "github.com/ianremillard/ccmux/internal/ccmux"

// dispatch routes one inbound message from c to the graph, replying
// directly where the protocol calls for a query/reply (ListSessions,
// CreateSession, AttachSession, Sync, Ping) and otherwise relying on the
// graph's own broadcast events (which reach c precisely because attaching
// subscribed it) to tell the client the mutation happened.
func (s *Server) dispatch(c *client, msg ccmux.Message) {
	switch v := msg.(type) {

	case ccmux.ListSessions:
		c.sendControl(ccmux.SessionList{Sessions: s.graph.ListSessions()})

	case ccmux.CreateSession:
		info := s.graph.CreateSession(v.Name)
		c.sendControl(ccmux.SessionCreated{Session: info})

	case ccmux.AttachSession:
		snap, err := s.graph.Attach(v.SessionID, c.id)
		if err != nil {
			c.sendControl(toErrorMessage(err))
			return
		}
		s.hub.subscribe(v.SessionID, c)
		c.markAttached(v.SessionID)
		c.sendControl(ccmux.Attached{Session: snap})

	case ccmux.CreateWindow:
		if _, err := s.graph.CreateWindow(v.SessionID, v.Name, v.HasName); err != nil {
			c.sendControl(toErrorMessage(err))
		}

	case ccmux.CreatePane:
		if _, err := s.graph.CreatePane(v.WindowID, v.Direction); err != nil {
			c.sendControl(toErrorMessage(err))
		}

	case ccmux.Input:
		if err := s.graph.Input(v.PaneID, v.Bytes); err != nil {
			c.sendControl(toErrorMessage(err))
		}

	case ccmux.Resize:
		if err := s.graph.ResizePane(v.PaneID, v.Cols, v.Rows); err != nil {
			c.sendControl(toErrorMessage(err))
		}

	case ccmux.ClosePane:
		if err := s.graph.ClosePane(v.PaneID); err != nil {
			c.sendControl(toErrorMessage(err))
		}

	case ccmux.SelectPane:
		if err := s.graph.SelectPane(v.PaneID); err != nil {
			c.sendControl(toErrorMessage(err))
		}

	case ccmux.Detach:
		for _, sid := range c.attachedSessionList() {
			s.graph.Detach(sid, c.id)
			s.hub.unsubscribe(sid, c)
			c.markDetached(sid)
		}

	case ccmux.Sync:
		for _, sid := range c.attachedSessionList() {
			snap, err := s.graph.Attach(sid, c.id)
			if err != nil {
				continue
			}
			c.sendControl(ccmux.Attached{Session: snap})
		}

	case ccmux.Ping:
		c.sendControl(ccmux.Pong{})

	case ccmux.Pong:
		c.mu.Lock()
		c.awaitingPong = false
		c.missedPongs = 0
		c.mu.Unlock()

	default:
		c.sendControl(ccmux.ErrorMessage{Code: ccmux.ErrInvalidOperation, Message: "unrecognized request"})
	}
}

// toErrorMessage maps a graph error onto its wire ErrorMessage. Every graph
// failure is a *ccmux.CCMuxError; anything else is a defect in the caller,
// not a client-triggerable condition, so it still reports cleanly rather
// than panicking the connection.
func toErrorMessage(err error) ccmux.ErrorMessage {
	if ce, ok := err.(*ccmux.CCMuxError); ok {
		return ccmux.ErrorMessage{Code: ce.Code, Message: ce.Message}
	}
	return ccmux.ErrorMessage{Code: ccmux.ErrInternalError, Message: err.Error()}
}
