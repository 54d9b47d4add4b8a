package sideband

import (
	"encoding/json"
	"fmt"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// wireFrame is the JSON object carried between the OSC introducer and the
// BEL terminator. Every op-specific field is optional; decodeCommand
// validates which ones are required for a given op.
type wireFrame struct {
	Op        string `json:"op"`
	Direction string `json:"direction,omitempty"`
	Command   *string `json:"command,omitempty"`
	Cwd       *string `json:"cwd,omitempty"`
	Pane      json.RawMessage `json:"pane,omitempty"`
	Text      string `json:"text,omitempty"`
	Lines     *int32 `json:"lines,omitempty"`
	Title     *string `json:"title,omitempty"`
	Message   string `json:"message,omitempty"`
	Level     string `json:"level,omitempty"`
	Action    json.RawMessage `json:"action,omitempty"`
}

// decodeCommand parses one JSON sideband frame payload into a Command.
func decodeCommand(payload []byte) (Command, error) {
	var f wireFrame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("sideband: malformed frame json: %w", err)
	}

	switch f.Op {
	case "spawn":
		cmd := SpawnCommand{Direction: parseDirection(f.Direction)}
		if f.Command != nil {
			cmd.Command = *f.Command
			cmd.HasCmd = true
		}
		if f.Cwd != nil {
			cmd.Cwd = *f.Cwd
			cmd.HasCwd = true
		}
		return cmd, nil

	case "focus":
		ref, err := decodePaneRef(f.Pane)
		if err != nil {
			return nil, err
		}
		return FocusCommand{Pane: ref}, nil

	case "input":
		ref, err := decodePaneRef(f.Pane)
		if err != nil {
			return nil, err
		}
		return InputCommand{Pane: ref, Text: f.Text}, nil

	case "scroll":
		var ref *PaneRef
		if len(f.Pane) > 0 {
			r, err := decodePaneRef(f.Pane)
			if err != nil {
				return nil, err
			}
			ref = &r
		}
		lines := int32(0)
		if f.Lines != nil {
			lines = *f.Lines
		}
		return ScrollCommand{Pane: ref, Lines: lines}, nil

	case "notify":
		cmd := NotifyCommand{Message: f.Message, Level: parseNotifyLevel(f.Level)}
		if f.Title != nil {
			cmd.Title = *f.Title
			cmd.HasTitle = true
		}
		return cmd, nil

	case "control":
		ref, err := decodePaneRef(f.Pane)
		if err != nil {
			return nil, err
		}
		action, err := decodeControlAction(f.Action)
		if err != nil {
			return nil, err
		}
		return ControlCommand{Pane: ref, Action: action}, nil

	default:
		return nil, fmt.Errorf("sideband: unknown op %q", f.Op)
	}
}

func parseDirection(s string) ccmux.Direction {
	if s == "V" || s == "vertical" {
		return ccmux.Vertical
	}
	return ccmux.Horizontal
}

// decodePaneRef accepts "active", an object {"id": "<uuid>"}, or an object
// {"index": n}.
func decodePaneRef(raw json.RawMessage) (PaneRef, error) {
	if len(raw) == 0 {
		return PaneRef{Kind: RefActive}, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "active" || asString == "" {
			return PaneRef{Kind: RefActive}, nil
		}
		if id, err := ccmux.ParsePaneID(asString); err == nil {
			return PaneRef{Kind: RefID, ID: id}, nil
		}
		return PaneRef{}, fmt.Errorf("sideband: invalid pane reference %q", asString)
	}

	var obj struct {
		ID    *string `json:"id"`
		Index *int    `json:"index"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return PaneRef{}, fmt.Errorf("sideband: invalid pane reference: %w", err)
	}
	if obj.ID != nil {
		id, err := ccmux.ParsePaneID(*obj.ID)
		if err != nil {
			return PaneRef{}, fmt.Errorf("sideband: invalid pane id %q", *obj.ID)
		}
		return PaneRef{Kind: RefID, ID: id}, nil
	}
	if obj.Index != nil {
		return PaneRef{Kind: RefIndex, Index: *obj.Index}, nil
	}
	return PaneRef{Kind: RefActive}, nil
}

func decodeControlAction(raw json.RawMessage) (ControlAction, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch asString {
		case "close":
			return ControlAction{Kind: ActionClose}, nil
		case "pin":
			return ControlAction{Kind: ActionPin}, nil
		case "unpin":
			return ControlAction{Kind: ActionUnpin}, nil
		}
		return ControlAction{}, fmt.Errorf("sideband: unknown control action %q", asString)
	}

	var obj struct {
		Resize *struct {
			Cols uint16 `json:"cols"`
			Rows uint16 `json:"rows"`
		} `json:"resize"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ControlAction{}, fmt.Errorf("sideband: invalid control action: %w", err)
	}
	if obj.Resize != nil {
		return ControlAction{Kind: ActionResize, Cols: obj.Resize.Cols, Rows: obj.Resize.Rows}, nil
	}
	return ControlAction{}, fmt.Errorf("sideband: empty control action")
}
