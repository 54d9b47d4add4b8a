// Package store implements the daemon's at-rest persistence: a periodic
// full-graph checkpoint plus a rolling write-ahead log of individual
// mutations, replayed together on startup to reconstruct the session graph
// before the IPC listener opens. The checkpoint is encoded with
// gopkg.in/yaml.v3.
package store

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/graph"
)

const checkpointFileName = "checkpoint.yaml"

// Checkpoint is the on-disk, YAML-serializable form of a full graph
// snapshot. It mirrors ccmux.AttachSnapshot field-for-field but swaps
// AgentState.Extra's Value map for a plain map[string]interface{}, since
// Value's unexported internals don't round-trip through yaml.v3 without
// it (see ccmux.Value.ToAny/ValueFromAny).
type Checkpoint struct {
	Sessions []SessionSnapshot `yaml:"sessions"`
}

type SessionSnapshot struct {
	ID        string           `yaml:"id"`
	Name      string           `yaml:"name"`
	CreatedAt time.Time        `yaml:"created_at"`
	Windows   []WindowSnapshot `yaml:"windows"`
}

type WindowSnapshot struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	HasName bool           `yaml:"has_name"`
	Index   int            `yaml:"index"`
	Panes   []PaneSnapshot `yaml:"panes"`
}

type PaneSnapshot struct {
	ID         string    `yaml:"id"`
	Index      int       `yaml:"index"`
	Cols       uint16    `yaml:"cols"`
	Rows       uint16    `yaml:"rows"`
	WorkingDir string    `yaml:"working_dir"`
	Exited     bool      `yaml:"exited"`
	ExitCode   *int32    `yaml:"exit_code,omitempty"`
	CreatedAt  time.Time `yaml:"created_at"`

	AgentType      string                 `yaml:"agent_type,omitempty"`
	AgentActivity  string                 `yaml:"agent_activity,omitempty"`
	AgentSessionID string                 `yaml:"agent_session_id,omitempty"`
	AgentExtra     map[string]interface{} `yaml:"agent_extra,omitempty"`
}

// BuildCheckpoint converts the graph's current state into its serializable
// form.
func BuildCheckpoint(g *graph.Graph) Checkpoint {
	snaps := g.Export()
	cp := Checkpoint{Sessions: make([]SessionSnapshot, 0, len(snaps))}

	for _, snap := range snaps {
		windowsByID := make(map[ccmux.WindowID]*WindowSnapshot)
		ss := SessionSnapshot{
			ID:        snap.Session.ID.String(),
			Name:      snap.Session.Name,
			CreatedAt: snap.Session.CreatedAt,
		}
		// Sized up front so the &ss.Windows[i] pointers below stay valid.
		ss.Windows = make([]WindowSnapshot, 0, len(snap.Windows))
		for _, w := range snap.Windows {
			ws := WindowSnapshot{ID: w.ID.String(), Name: w.Name, Index: w.Index}
			ss.Windows = append(ss.Windows, ws)
			windowsByID[w.ID] = &ss.Windows[len(ss.Windows)-1]
		}
		for _, p := range snap.Panes {
			ws, ok := windowsByID[p.WindowID]
			if !ok {
				continue
			}
			ps := PaneSnapshot{
				ID:         p.ID.String(),
				Index:      p.Index,
				Cols:       p.Cols,
				Rows:       p.Rows,
				WorkingDir: p.WorkingDir,
				CreatedAt:  p.CreatedAt,
			}
			switch p.State.Kind {
			case ccmux.PaneExited:
				ps.Exited = true
				ps.ExitCode = p.State.ExitCode
			case ccmux.PaneAgent:
				ps.AgentType = p.State.Agent.AgentType
				ps.AgentActivity = p.State.Agent.Activity.String()
				ps.AgentSessionID = p.State.Agent.AgentSessionID
				if len(p.State.Agent.Extra) > 0 {
					ps.AgentExtra = make(map[string]interface{}, len(p.State.Agent.Extra))
					for k, v := range p.State.Agent.Extra {
						ps.AgentExtra[k] = v.ToAny()
					}
				}
			}
			ws.Panes = append(ws.Panes, ps)
		}
		cp.Sessions = append(cp.Sessions, ss)
	}
	return cp
}

// Write atomically writes cp to <dir>/checkpoint.yaml: encode to a temp
// file, then rename over the old one, so a crash mid-write never leaves a
// half-written checkpoint behind.
func Write(dir string, cp Checkpoint) error {
	data, err := yaml.Marshal(cp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	final := filepath.Join(dir, checkpointFileName)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// Load reads <dir>/checkpoint.yaml. A missing file is not an error — it
// returns a zero Checkpoint, the expected state on first run.
func Load(dir string) (Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(dir, checkpointFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, nil
		}
		return Checkpoint{}, err
	}
	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// Restore replays cp into g, minting fresh PTYs for every pane that had
// not exited as of the checkpoint. Session/window/pane identities are
// preserved so a client reconnecting after a restart can still find what
// it remembers attaching to.
func Restore(g *graph.Graph, cp Checkpoint) error {
	for _, ss := range cp.Sessions {
		sid, err := ccmux.ParseSessionID(ss.ID)
		if err != nil {
			continue
		}
		g.RestoreSession(sid, ss.Name, ss.CreatedAt)

		for _, ws := range ss.Windows {
			wid, err := ccmux.ParseWindowID(ws.ID)
			if err != nil {
				continue
			}
			g.RestoreWindow(wid, sid, ws.Name, ws.HasName, ws.Index)

			for _, ps := range ws.Panes {
				pid, err := ccmux.ParsePaneID(ps.ID)
				if err != nil {
					continue
				}
				if err := g.RestorePane(pid, wid, ps.WorkingDir, ps.Cols, ps.Rows, ps.Exited, ps.ExitCode); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
