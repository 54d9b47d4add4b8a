package ccmux

import "time"

// Direction is which side of the source pane a new sibling pane is opened
// on. It is carried through to clients for layout purposes only — the
// daemon's own bookkeeping does not care which side a pane landed on.
type Direction byte

const (
	Horizontal Direction = iota
	Vertical
)

// Activity classifies what an agent detected in a pane appears to be doing.
type Activity byte

const (
	Idle Activity = iota
	Thinking
	Coding
	ToolUse
	AwaitingConfirmation
)

func (a Activity) String() string {
	switch a {
	case Idle:
		return "idle"
	case Thinking:
		return "thinking"
	case Coding:
		return "coding"
	case ToolUse:
		return "tool_use"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

// PaneStateKind tags the variant held by a PaneState.
type PaneStateKind byte

const (
	PaneNormal PaneStateKind = iota
	PaneAgent
	PaneExited
)

// AgentState is the metadata tracked for a pane once a detector has
// positively identified an agent running inside it.
type AgentState struct {
	AgentType      string // stable short identifier, e.g. "claude"
	Activity       Activity
	AgentSessionID string // empty if the detector has not recovered one
	Extra          map[string]Value
	Confidence     uint8 // 0..=100
}

// Clone returns a deep copy suitable for handing to a client as a value
// snapshot (per the "clients hold only weak references" ownership rule,
// every outbound AgentState must be copied, never aliased into the graph).
func (a AgentState) Clone() AgentState {
	extra := make(map[string]Value, len(a.Extra))
	for k, v := range a.Extra {
		extra[k] = v
	}
	return AgentState{
		AgentType:      a.AgentType,
		Activity:       a.Activity,
		AgentSessionID: a.AgentSessionID,
		Extra:          extra,
		Confidence:     a.Confidence,
	}
}

// PaneState is a tagged variant: Normal, Agent(AgentState), or Exited{code}.
// Exited is terminal — once set it never transitions back (invariant 7).
type PaneState struct {
	Kind      PaneStateKind
	Agent     AgentState // valid iff Kind == PaneAgent
	ExitCode  *int32     // valid iff Kind == PaneExited; nil means unknown
}

func NormalState() PaneState { return PaneState{Kind: PaneNormal} }

func AgentStateOf(a AgentState) PaneState { return PaneState{Kind: PaneAgent, Agent: a} }

func ExitedState(code *int32) PaneState { return PaneState{Kind: PaneExited, ExitCode: code} }

func (s PaneState) IsTerminal() bool { return s.Kind == PaneExited }

// SessionInfo is a value-copy snapshot of a session's metadata, as returned
// by ListSessions / carried in SessionCreated / Attached events. Clients
// never see a live *Session — only copies like this one.
type SessionInfo struct {
	ID               SessionID
	Name             string
	CreatedAt        time.Time
	WindowCount      int
	AttachedClients  int
}

// WindowInfo is a value-copy snapshot of a window's metadata.
type WindowInfo struct {
	ID          WindowID
	SessionID   SessionID
	Name        string
	Index       int
	PaneCount   int
	FocusedPane *PaneID // nil if no pane is focused
}

// PaneInfo is a value-copy snapshot of a pane's metadata.
type PaneInfo struct {
	ID            PaneID
	WindowID      WindowID
	Index         int
	Cols          uint16
	Rows          uint16
	State         PaneState
	Title         string
	WorkingDir    string
	CreatedAt     time.Time
	LastStateChange time.Time
}

// AttachSnapshot is what Attach returns to a newly-subscribed client: the
// session's own info plus full value-copy lists of every window and pane it
// currently owns.
type AttachSnapshot struct {
	Session SessionInfo
	Windows []WindowInfo
	Panes   []PaneInfo
}

// ErrorCode enumerates every error a request can fail with; every server
// error maps to exactly one of these.
type ErrorCode byte

const (
	ErrSessionNotFound ErrorCode = iota
	ErrWindowNotFound
	ErrPaneNotFound
	ErrInvalidOperation
	ErrProtocolMismatch
	ErrInternalError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrSessionNotFound:
		return "SessionNotFound"
	case ErrWindowNotFound:
		return "WindowNotFound"
	case ErrPaneNotFound:
		return "PaneNotFound"
	case ErrInvalidOperation:
		return "InvalidOperation"
	case ErrProtocolMismatch:
		return "ProtocolMismatch"
	case ErrInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// CCMuxError is the error type every graph and IPC operation fails with;
// it carries one of the codes above plus a human-readable message.
type CCMuxError struct {
	Code    ErrorCode
	Message string
}

func (e *CCMuxError) Error() string { return e.Code.String() + ": " + e.Message }

func NewError(code ErrorCode, message string) *CCMuxError {
	return &CCMuxError{Code: code, Message: message}
}

// ProtocolVersion is the current wire protocol version. A Connect request
// carrying any other value is rejected with ErrProtocolMismatch.
const ProtocolVersion uint32 = 1
