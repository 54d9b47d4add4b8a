package sideband

import (
	"log/slog"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// Mutator is the graph-facing surface the executor dispatches resolved
// commands against. internal/graph.Graph implements it; keeping the
// interface here (rather than importing internal/graph) lets the session
// graph depend on sideband without a cycle.
type Mutator interface {
	// ResolvePaneRef resolves a PaneRef relative to source into a concrete
	// PaneID, following the Active/Id/Index rules.
	ResolvePaneRef(source ccmux.PaneID, ref PaneRef) (ccmux.PaneID, error)

	SpawnPane(source ccmux.PaneID, dir ccmux.Direction, command string, hasCommand bool, cwd string, hasCwd bool) error
	FocusPane(pane ccmux.PaneID) error
	InputText(pane ccmux.PaneID, text string) error
	ScrollPane(pane ccmux.PaneID, lines int32) error
	Notify(title string, hasTitle bool, message string, level NotifyLevel) error
	ClosePane(pane ccmux.PaneID) error
	ResizePane(pane ccmux.PaneID, cols, rows uint16) error
	PinPane(pane ccmux.PaneID, pinned bool) error
}

// Executor dispatches a batch of resolved sideband commands against a
// Mutator. A failed or malformed command is logged and skipped; it never
// aborts the rest of the batch.
type Executor struct {
	log *slog.Logger
}

func NewExecutor(log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{log: log}
}

// Run executes every command in cmds, in order, against mutator. sourcePane
// is the pane that emitted them, used to resolve Active/Index references.
func (e *Executor) Run(sourcePane ccmux.PaneID, cmds []Command, mutator Mutator) {
	for _, cmd := range cmds {
		if err := e.dispatch(sourcePane, cmd, mutator); err != nil {
			e.log.Warn("sideband: command failed", "source_pane", sourcePane.String(), "error", err)
		}
	}
}

func (e *Executor) dispatch(source ccmux.PaneID, cmd Command, m Mutator) error {
	switch c := cmd.(type) {
	case SpawnCommand:
		return m.SpawnPane(source, c.Direction, c.Command, c.HasCmd, c.Cwd, c.HasCwd)

	case FocusCommand:
		target, err := m.ResolvePaneRef(source, c.Pane)
		if err != nil {
			return err
		}
		return m.FocusPane(target)

	case InputCommand:
		target, err := m.ResolvePaneRef(source, c.Pane)
		if err != nil {
			return err
		}
		return m.InputText(target, c.Text)

	case ScrollCommand:
		ref := PaneRef{Kind: RefActive}
		if c.Pane != nil {
			ref = *c.Pane
		}
		target, err := m.ResolvePaneRef(source, ref)
		if err != nil {
			return err
		}
		return m.ScrollPane(target, c.Lines)

	case NotifyCommand:
		return m.Notify(c.Title, c.HasTitle, c.Message, c.Level)

	case ControlCommand:
		target, err := m.ResolvePaneRef(source, c.Pane)
		if err != nil {
			return err
		}
		switch c.Action.Kind {
		case ActionClose:
			return m.ClosePane(target)
		case ActionResize:
			return m.ResizePane(target, c.Action.Cols, c.Action.Rows)
		case ActionPin:
			return m.PinPane(target, true)
		case ActionUnpin:
			return m.PinPane(target, false)
		}
	}
	return nil
}
