// Package sideband extracts multiplexer commands that processes running
// inside a pane emit in-band in their own output, as a JSON-payload OSC
// frame, and dispatches them against the session graph or PTY I/O.
package sideband

import "github.com/ianremillard/ccmux/internal/ccmux"

// RefKind tags how a PaneRef names its target.
type RefKind byte

const (
	RefActive RefKind = iota
	RefID
	RefIndex
)

// PaneRef identifies a pane relative to the pane that emitted a sideband
// command.
type PaneRef struct {
	Kind  RefKind
	ID    ccmux.PaneID
	Index int
}

// NotifyLevel is the severity of a Notify command.
type NotifyLevel byte

const (
	LevelInfo NotifyLevel = iota
	LevelWarning
	LevelError
)

func parseNotifyLevel(s string) NotifyLevel {
	switch s {
	case "warning":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ControlActionKind tags the variant held by a ControlAction.
type ControlActionKind byte

const (
	ActionClose ControlActionKind = iota
	ActionResize
	ActionPin
	ActionUnpin
)

// ControlAction is the payload of a Control command.
type ControlAction struct {
	Kind ControlActionKind
	Cols uint16 // valid iff Kind == ActionResize
	Rows uint16 // valid iff Kind == ActionResize
}

// Command is implemented by every sideband command variant.
type Command interface {
	isCommand()
}

type SpawnCommand struct {
	Direction ccmux.Direction
	Command   string // empty means "use the default shell"
	HasCmd    bool
	Cwd       string
	HasCwd    bool
}

type FocusCommand struct {
	Pane PaneRef
}

type InputCommand struct {
	Pane PaneRef
	Text string
}

type ScrollCommand struct {
	Pane    *PaneRef // nil means the source pane
	Lines   int32
}

type NotifyCommand struct {
	Title   string
	HasTitle bool
	Message string
	Level   NotifyLevel
}

type ControlCommand struct {
	Pane   PaneRef
	Action ControlAction
}

func (SpawnCommand) isCommand()   {}
func (FocusCommand) isCommand()   {}
func (InputCommand) isCommand()   {}
func (ScrollCommand) isCommand()  {}
func (NotifyCommand) isCommand()  {}
func (ControlCommand) isCommand() {}
