package codec

import "github.com/ianremillard/ccmux/internal/ccmux"

// Encode produces the deterministic binary payload for a single message:
// a one-byte type tag followed by that type's fields in fixed order.
func Encode(m ccmux.Message) ([]byte, error) {
	w := &writer{}
	w.byte(byte(m.Type()))

	switch v := m.(type) {
	case ccmux.Connect:
		w.clientID(v.ClientID)
		w.u32(v.ProtocolVersion)
	case ccmux.ListSessions:
	case ccmux.CreateSession:
		w.str(v.Name)
	case ccmux.AttachSession:
		w.sessionID(v.SessionID)
	case ccmux.CreateWindow:
		w.sessionID(v.SessionID)
		w.bool(v.HasName)
		w.str(v.Name)
	case ccmux.CreatePane:
		w.windowID(v.WindowID)
		w.byte(byte(v.Direction))
	case ccmux.Input:
		w.paneID(v.PaneID)
		w.bytes(v.Bytes)
	case ccmux.Resize:
		w.paneID(v.PaneID)
		w.u16(v.Cols)
		w.u16(v.Rows)
	case ccmux.ClosePane:
		w.paneID(v.PaneID)
	case ccmux.SelectPane:
		w.paneID(v.PaneID)
	case ccmux.Detach:
	case ccmux.Sync:
	case ccmux.Ping:

	case ccmux.Connected:
		w.str(v.ServerVersion)
		w.u32(v.ProtocolVersion)
		w.clientID(v.ClientID)
	case ccmux.SessionList:
		w.u32(uint32(len(v.Sessions)))
		for _, s := range v.Sessions {
			w.sessionInfo(s)
		}
	case ccmux.SessionCreated:
		w.sessionInfo(v.Session)
	case ccmux.Attached:
		w.sessionInfo(v.Session.Session)
		w.u32(uint32(len(v.Session.Windows)))
		for _, win := range v.Session.Windows {
			w.windowInfo(win)
		}
		w.u32(uint32(len(v.Session.Panes)))
		for _, p := range v.Session.Panes {
			w.paneInfo(p)
		}
	case ccmux.WindowCreated:
		w.windowInfo(v.Window)
	case ccmux.PaneCreated:
		w.paneInfo(v.Pane)
		w.byte(byte(v.Direction))
	case ccmux.Output:
		w.paneID(v.PaneID)
		w.bytes(v.Bytes)
		w.bool(v.Resync)
	case ccmux.PaneStateChanged:
		w.paneID(v.PaneID)
		w.paneState(v.State)
	case ccmux.AgentStateChanged:
		w.paneID(v.PaneID)
		w.agentState(v.State)
	case ccmux.PaneClosed:
		w.paneID(v.PaneID)
		w.optInt32(v.ExitCode)
	case ccmux.WindowClosed:
		w.windowID(v.WindowID)
	case ccmux.SessionEnded:
		w.sessionID(v.SessionID)
	case ccmux.ErrorMessage:
		w.byte(byte(v.Code))
		w.str(v.Message)
	case ccmux.Pong:

	default:
		return nil, fmtUnknownTag(byte(m.Type()))
	}
	return w.buf, nil
}

// Decode parses a payload (without its length prefix) back into a Message.
func Decode(payload []byte) (ccmux.Message, error) {
	if len(payload) < 1 {
		return nil, errTruncated
	}
	r := &reader{buf: payload, pos: 1}
	tag := ccmux.MessageType(payload[0])

	switch tag {
	case ccmux.MsgConnect:
		id, err := r.clientIDV()
		if err != nil {
			return nil, err
		}
		ver, err := r.u32()
		if err != nil {
			return nil, err
		}
		return ccmux.Connect{ClientID: id, ProtocolVersion: ver}, nil

	case ccmux.MsgListSessions:
		return ccmux.ListSessions{}, nil

	case ccmux.MsgCreateSession:
		name, err := r.strV()
		if err != nil {
			return nil, err
		}
		return ccmux.CreateSession{Name: name}, nil

	case ccmux.MsgAttachSession:
		id, err := r.sessionIDV()
		if err != nil {
			return nil, err
		}
		return ccmux.AttachSession{SessionID: id}, nil

	case ccmux.MsgCreateWindow:
		sid, err := r.sessionIDV()
		if err != nil {
			return nil, err
		}
		hasName, err := r.boolV()
		if err != nil {
			return nil, err
		}
		name, err := r.strV()
		if err != nil {
			return nil, err
		}
		return ccmux.CreateWindow{SessionID: sid, HasName: hasName, Name: name}, nil

	case ccmux.MsgCreatePane:
		wid, err := r.windowIDV()
		if err != nil {
			return nil, err
		}
		dir, err := r.byte()
		if err != nil {
			return nil, err
		}
		return ccmux.CreatePane{WindowID: wid, Direction: ccmux.Direction(dir)}, nil

	case ccmux.MsgInput:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		b, err := r.bytesV()
		if err != nil {
			return nil, err
		}
		return ccmux.Input{PaneID: pid, Bytes: b}, nil

	case ccmux.MsgResize:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		cols, err := r.u16()
		if err != nil {
			return nil, err
		}
		rows, err := r.u16()
		if err != nil {
			return nil, err
		}
		return ccmux.Resize{PaneID: pid, Cols: cols, Rows: rows}, nil

	case ccmux.MsgClosePane:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		return ccmux.ClosePane{PaneID: pid}, nil

	case ccmux.MsgSelectPane:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		return ccmux.SelectPane{PaneID: pid}, nil

	case ccmux.MsgDetach:
		return ccmux.Detach{}, nil

	case ccmux.MsgSync:
		return ccmux.Sync{}, nil

	case ccmux.MsgPing:
		return ccmux.Ping{}, nil

	case ccmux.MsgConnected:
		sv, err := r.strV()
		if err != nil {
			return nil, err
		}
		ver, err := r.u32()
		if err != nil {
			return nil, err
		}
		id, err := r.clientIDV()
		if err != nil {
			return nil, err
		}
		return ccmux.Connected{ServerVersion: sv, ProtocolVersion: ver, ClientID: id}, nil

	case ccmux.MsgSessionList:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		list := make([]ccmux.SessionInfo, n)
		for i := range list {
			if list[i], err = r.sessionInfoV(); err != nil {
				return nil, err
			}
		}
		return ccmux.SessionList{Sessions: list}, nil

	case ccmux.MsgSessionCreated:
		s, err := r.sessionInfoV()
		if err != nil {
			return nil, err
		}
		return ccmux.SessionCreated{Session: s}, nil

	case ccmux.MsgAttached:
		s, err := r.sessionInfoV()
		if err != nil {
			return nil, err
		}
		nw, err := r.u32()
		if err != nil {
			return nil, err
		}
		windows := make([]ccmux.WindowInfo, nw)
		for i := range windows {
			if windows[i], err = r.windowInfoV(); err != nil {
				return nil, err
			}
		}
		np, err := r.u32()
		if err != nil {
			return nil, err
		}
		panes := make([]ccmux.PaneInfo, np)
		for i := range panes {
			if panes[i], err = r.paneInfoV(); err != nil {
				return nil, err
			}
		}
		return ccmux.Attached{Session: ccmux.AttachSnapshot{Session: s, Windows: windows, Panes: panes}}, nil

	case ccmux.MsgWindowCreated:
		w, err := r.windowInfoV()
		if err != nil {
			return nil, err
		}
		return ccmux.WindowCreated{Window: w}, nil

	case ccmux.MsgPaneCreated:
		p, err := r.paneInfoV()
		if err != nil {
			return nil, err
		}
		dir, err := r.byte()
		if err != nil {
			return nil, err
		}
		return ccmux.PaneCreated{Pane: p, Direction: ccmux.Direction(dir)}, nil

	case ccmux.MsgOutput:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		b, err := r.bytesV()
		if err != nil {
			return nil, err
		}
		resync, err := r.boolV()
		if err != nil {
			return nil, err
		}
		return ccmux.Output{PaneID: pid, Bytes: b, Resync: resync}, nil

	case ccmux.MsgPaneStateChanged:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		st, err := r.paneStateV()
		if err != nil {
			return nil, err
		}
		return ccmux.PaneStateChanged{PaneID: pid, State: st}, nil

	case ccmux.MsgAgentStateChanged:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		st, err := r.agentStateV()
		if err != nil {
			return nil, err
		}
		return ccmux.AgentStateChanged{PaneID: pid, State: st}, nil

	case ccmux.MsgPaneClosed:
		pid, err := r.paneIDV()
		if err != nil {
			return nil, err
		}
		code, err := r.optInt32V()
		if err != nil {
			return nil, err
		}
		return ccmux.PaneClosed{PaneID: pid, ExitCode: code}, nil

	case ccmux.MsgWindowClosed:
		wid, err := r.windowIDV()
		if err != nil {
			return nil, err
		}
		return ccmux.WindowClosed{WindowID: wid}, nil

	case ccmux.MsgSessionEnded:
		sid, err := r.sessionIDV()
		if err != nil {
			return nil, err
		}
		return ccmux.SessionEnded{SessionID: sid}, nil

	case ccmux.MsgErrorMessage:
		code, err := r.byte()
		if err != nil {
			return nil, err
		}
		msg, err := r.strV()
		if err != nil {
			return nil, err
		}
		return ccmux.ErrorMessage{Code: ccmux.ErrorCode(code), Message: msg}, nil

	case ccmux.MsgPong:
		return ccmux.Pong{}, nil

	default:
		return nil, fmtUnknownTag(payload[0])
	}
}
