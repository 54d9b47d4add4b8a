package ccmux

// MessageType tags every frame on the wire. The codec encodes this as the
// first byte of the payload; decode(encode(m)) == m depends on every
// MessageType here mapping to exactly one Go type and vice versa.
type MessageType byte

const (
	// Client -> Server
	MsgConnect MessageType = iota
	MsgListSessions
	MsgCreateSession
	MsgAttachSession
	MsgCreateWindow
	MsgCreatePane
	MsgInput
	MsgResize
	MsgClosePane
	MsgSelectPane
	MsgDetach
	MsgSync
	MsgPing

	// Server -> Client
	MsgConnected
	MsgSessionList
	MsgSessionCreated
	MsgAttached
	MsgWindowCreated
	MsgPaneCreated
	MsgOutput
	MsgPaneStateChanged
	MsgAgentStateChanged
	MsgPaneClosed
	MsgWindowClosed
	MsgSessionEnded
	MsgErrorMessage
	MsgPong
)

// Message is implemented by every request/event/reply type. Type returns
// the wire tag used by the codec to pick a decoder.
type Message interface {
	Type() MessageType
}

// ── Client -> Server ────────────────────────────────────────────────────

type Connect struct {
	ClientID        ClientID
	ProtocolVersion uint32
}

func (Connect) Type() MessageType { return MsgConnect }

type ListSessions struct{}

func (ListSessions) Type() MessageType { return MsgListSessions }

type CreateSession struct {
	Name string
}

func (CreateSession) Type() MessageType { return MsgCreateSession }

type AttachSession struct {
	SessionID SessionID
}

func (AttachSession) Type() MessageType { return MsgAttachSession }

type CreateWindow struct {
	SessionID SessionID
	Name      string // empty means unset
	HasName   bool
}

func (CreateWindow) Type() MessageType { return MsgCreateWindow }

type CreatePane struct {
	WindowID  WindowID
	Direction Direction
}

func (CreatePane) Type() MessageType { return MsgCreatePane }

type Input struct {
	PaneID PaneID
	Bytes  []byte
}

func (Input) Type() MessageType { return MsgInput }

type Resize struct {
	PaneID PaneID
	Cols   uint16
	Rows   uint16
}

func (Resize) Type() MessageType { return MsgResize }

type ClosePane struct {
	PaneID PaneID
}

func (ClosePane) Type() MessageType { return MsgClosePane }

type SelectPane struct {
	PaneID PaneID
}

func (SelectPane) Type() MessageType { return MsgSelectPane }

type Detach struct{}

func (Detach) Type() MessageType { return MsgDetach }

type Sync struct{}

func (Sync) Type() MessageType { return MsgSync }

type Ping struct{}

func (Ping) Type() MessageType { return MsgPing }

// ── Server -> Client ────────────────────────────────────────────────────

type Connected struct {
	ServerVersion   string
	ProtocolVersion uint32
	ClientID        ClientID
}

func (Connected) Type() MessageType { return MsgConnected }

type SessionList struct {
	Sessions []SessionInfo
}

func (SessionList) Type() MessageType { return MsgSessionList }

type SessionCreated struct {
	Session SessionInfo
}

func (SessionCreated) Type() MessageType { return MsgSessionCreated }

type Attached struct {
	Session AttachSnapshot
}

func (Attached) Type() MessageType { return MsgAttached }

type WindowCreated struct {
	Window WindowInfo
}

func (WindowCreated) Type() MessageType { return MsgWindowCreated }

type PaneCreated struct {
	Pane      PaneInfo
	Direction Direction
}

func (PaneCreated) Type() MessageType { return MsgPaneCreated }

type Output struct {
	PaneID PaneID
	Bytes  []byte
	Resync bool // set when this delivery follows a dropped backlog
}

func (Output) Type() MessageType { return MsgOutput }

type PaneStateChanged struct {
	PaneID PaneID
	State  PaneState
}

func (PaneStateChanged) Type() MessageType { return MsgPaneStateChanged }

type AgentStateChanged struct {
	PaneID PaneID
	State  AgentState
}

func (AgentStateChanged) Type() MessageType { return MsgAgentStateChanged }

type PaneClosed struct {
	PaneID   PaneID
	ExitCode *int32
}

func (PaneClosed) Type() MessageType { return MsgPaneClosed }

type WindowClosed struct {
	WindowID WindowID
}

func (WindowClosed) Type() MessageType { return MsgWindowClosed }

type SessionEnded struct {
	SessionID SessionID
}

func (SessionEnded) Type() MessageType { return MsgSessionEnded }

type ErrorMessage struct {
	Code    ErrorCode
	Message string
}

func (ErrorMessage) Type() MessageType { return MsgErrorMessage }

type Pong struct{}

func (Pong) Type() MessageType { return MsgPong }
