package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/graph"
)

type fakeHandle struct{}

func (fakeHandle) Write(b []byte) error          { return nil }
func (fakeHandle) Resize(cols, rows uint16) error { return nil }
func (fakeHandle) Kill()                          {}
func (fakeHandle) PID() int                       { return 1 }

type fakeSpawner struct{}

func (fakeSpawner) Spawn(command string, hasCommand bool, cwd string, hasCwd bool, cols, rows uint16,
	onBytes func([]byte), onExit func(int32, bool)) (graph.PTYHandle, error) {
	return fakeHandle{}, nil
}

func newTestGraph() *graph.Graph {
	return graph.New(fakeSpawner{}, graph.DefaultRegistryFactory, nil, nil)
}

func TestBuildCheckpointRoundTripsThroughWriteLoad(t *testing.T) {
	g := newTestGraph()
	sess := g.CreateSession("dev")
	win, err := g.CreateWindow(sess.ID, "work", true)
	require.NoError(t, err)
	pane, err := g.CreatePane(win.ID, ccmux.Horizontal)
	require.NoError(t, err)

	cp := BuildCheckpoint(g)
	require.Len(t, cp.Sessions, 1)
	require.Len(t, cp.Sessions[0].Windows, 1)
	require.Len(t, cp.Sessions[0].Windows[0].Panes, 1)
	assert.Equal(t, pane.ID.String(), cp.Sessions[0].Windows[0].Panes[0].ID)

	dir := t.TempDir()
	require.NoError(t, Write(dir, cp))

	loaded, err := Load(dir)
	require.NoError(t, err)
	// Compare field-by-field rather than via reflect.DeepEqual on the whole
	// struct: time.Time carries a monotonic reading that YAML round-tripping
	// strips, so two semantically-identical timestamps can still differ
	// under a naive deep comparison.
	require.Len(t, loaded.Sessions, 1)
	assert.Equal(t, cp.Sessions[0].ID, loaded.Sessions[0].ID)
	assert.Equal(t, cp.Sessions[0].Name, loaded.Sessions[0].Name)
	assert.WithinDuration(t, cp.Sessions[0].CreatedAt, loaded.Sessions[0].CreatedAt, 0)
	require.Len(t, loaded.Sessions[0].Windows, 1)
	assert.Equal(t, cp.Sessions[0].Windows[0].ID, loaded.Sessions[0].Windows[0].ID)
	require.Len(t, loaded.Sessions[0].Windows[0].Panes, 1)
	assert.Equal(t, cp.Sessions[0].Windows[0].Panes[0].ID, loaded.Sessions[0].Windows[0].Panes[0].ID)
}

func TestLoadMissingCheckpointIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cp, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cp.Sessions)
}

func TestRestoreRebuildsGraphStructure(t *testing.T) {
	src := newTestGraph()
	sess := src.CreateSession("dev")
	win, _ := src.CreateWindow(sess.ID, "", false)
	_, err := src.CreatePane(win.ID, ccmux.Horizontal)
	require.NoError(t, err)
	cp := BuildCheckpoint(src)

	dst := newTestGraph()
	require.NoError(t, Restore(dst, cp))

	sessions := dst.ListSessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, sess.ID, sessions[0].ID)
	assert.Equal(t, 1, sessions[0].WindowCount)
}

func TestRestoreSkipsSpawningExitedPanes(t *testing.T) {
	dst := newTestGraph()
	code := int32(1)
	cp := Checkpoint{Sessions: []SessionSnapshot{{
		ID:   ccmux.NewSessionID().String(),
		Name: "dev",
		Windows: []WindowSnapshot{{
			ID:    ccmux.NewWindowID().String(),
			Index: 0,
			Panes: []PaneSnapshot{{
				ID:     ccmux.NewPaneID().String(),
				Index:  0,
				Exited: true,
				ExitCode: &code,
			}},
		}},
	}}}

	require.NoError(t, Restore(dst, cp))
	sessions := dst.ListSessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].WindowCount)
}
