package ipc

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/ccmux/codec"
	"github.com/ianremillard/ccmux/internal/graph"
)

// fakeHandle/fakeSpawner mirror the in-memory PTY stand-ins in
// internal/graph's own tests, duplicated here so this package's tests don't
// need to import graph's unexported test helpers.
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

func newTestServer(t *testing.T) (*Server, net.Conn) {
	t.Helper()
	hub := NewHub()
	g := graph.New(fakeSpawner{}, graph.DefaultRegistryFactory, hub.Dispatch, nil)
	s := NewServer("", g, hub, "test", nil)

	clientConn, serverConn := net.Pipe()
	go s.handleConn(serverConn)
	t.Cleanup(func() { clientConn.Close() })
	return s, clientConn
}

func connect(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, codec.WriteMessage(conn, ccmux.Connect{ClientID: ccmux.NewClientID(), ProtocolVersion: ccmux.ProtocolVersion}))
	reply, err := codec.ReadMessage(conn)
	require.NoError(t, err)
	_, ok := reply.(ccmux.Connected)
	require.True(t, ok, "expected Connected, got %T", reply)
}

func recvWithin(t *testing.T, conn net.Conn, d time.Duration) ccmux.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(d))
	msg, err := codec.ReadMessage(conn)
	require.NoError(t, err)
	return msg
}

func TestHandshakeAcceptsMatchingVersion(t *testing.T) {
	_, conn := newTestServer(t)
	connect(t, conn)
}

func TestHandshakeRejectsMismatchedVersion(t *testing.T) {
	_, conn := newTestServer(t)
	require.NoError(t, codec.WriteMessage(conn, ccmux.Connect{ClientID: ccmux.NewClientID(), ProtocolVersion: ccmux.ProtocolVersion + 1}))
	reply := recvWithin(t, conn, time.Second)
	em, ok := reply.(ccmux.ErrorMessage)
	require.True(t, ok, "expected ErrorMessage, got %T", reply)
	assert.Equal(t, ccmux.ErrProtocolMismatch, em.Code)
}

func TestCreateSessionGetsDirectReply(t *testing.T) {
	_, conn := newTestServer(t)
	connect(t, conn)

	require.NoError(t, codec.WriteMessage(conn, ccmux.CreateSession{Name: "dev"}))
	reply := recvWithin(t, conn, time.Second)
	sc, ok := reply.(ccmux.SessionCreated)
	require.True(t, ok, "expected SessionCreated, got %T", reply)
	assert.Equal(t, "dev", sc.Session.Name)
}

func TestAttachThenCreateWindowAndPaneBroadcastsToRequester(t *testing.T) {
	_, conn := newTestServer(t)
	connect(t, conn)

	require.NoError(t, codec.WriteMessage(conn, ccmux.CreateSession{Name: "dev"}))
	sc := recvWithin(t, conn, time.Second).(ccmux.SessionCreated)

	require.NoError(t, codec.WriteMessage(conn, ccmux.AttachSession{SessionID: sc.Session.ID}))
	attached := recvWithin(t, conn, time.Second).(ccmux.Attached)
	assert.Equal(t, sc.Session.ID, attached.Session.Session.ID)

	require.NoError(t, codec.WriteMessage(conn, ccmux.CreateWindow{SessionID: sc.Session.ID}))
	wc := recvWithin(t, conn, time.Second).(ccmux.WindowCreated)
	assert.Equal(t, 0, wc.Window.Index)

	require.NoError(t, codec.WriteMessage(conn, ccmux.CreatePane{WindowID: wc.Window.ID, Direction: ccmux.Horizontal}))
	pc := recvWithin(t, conn, time.Second).(ccmux.PaneCreated)
	assert.Equal(t, wc.Window.ID, pc.Pane.WindowID)
}

func TestListSessionsReturnsCurrentSessions(t *testing.T) {
	_, conn := newTestServer(t)
	connect(t, conn)

	require.NoError(t, codec.WriteMessage(conn, ccmux.CreateSession{Name: "one"}))
	recvWithin(t, conn, time.Second)

	require.NoError(t, codec.WriteMessage(conn, ccmux.ListSessions{}))
	reply := recvWithin(t, conn, time.Second)
	list, ok := reply.(ccmux.SessionList)
	require.True(t, ok, "expected SessionList, got %T", reply)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "one", list.Sessions[0].Name)
}

func TestPingGetsPong(t *testing.T) {
	_, conn := newTestServer(t)
	connect(t, conn)

	require.NoError(t, codec.WriteMessage(conn, ccmux.Ping{}))
	reply := recvWithin(t, conn, time.Second)
	_, ok := reply.(ccmux.Pong)
	assert.True(t, ok, "expected Pong, got %T", reply)
}

func TestUnknownSessionAttachReturnsError(t *testing.T) {
	_, conn := newTestServer(t)
	connect(t, conn)

	require.NoError(t, codec.WriteMessage(conn, ccmux.AttachSession{SessionID: ccmux.NewSessionID()}))
	reply := recvWithin(t, conn, time.Second)
	em, ok := reply.(ccmux.ErrorMessage)
	require.True(t, ok, "expected ErrorMessage, got %T", reply)
	assert.Equal(t, ccmux.ErrSessionNotFound, em.Code)
}

func TestOutboundDataQueueDropsUnderBackpressureAndFlagsResync(t *testing.T) {
	c := newClient(ccmux.NewClientID())
	paneID := ccmux.NewPaneID()

	for i := 0; i < outboundDataCap; i++ {
		c.sendOutput(ccmux.Output{PaneID: paneID, Bytes: []byte("x")})
	}
	// Queue is now full; this one must be dropped and latch resyncPending.
	c.sendOutput(ccmux.Output{PaneID: paneID, Bytes: []byte("overflow")})

	c.mu.Lock()
	pending := c.resyncPending
	c.mu.Unlock()
	assert.True(t, pending, "queue overflow must latch a pending resync flag")

	// Drain one slot, then the next send should succeed and carry Resync.
	<-c.data
	c.sendOutput(ccmux.Output{PaneID: paneID, Bytes: []byte("after-drain")})

	var lastAfter ccmux.Output
	for i := 0; i < outboundDataCap-1; i++ {
		<-c.data
	}
	lastAfter = (<-c.data).(ccmux.Output)
	assert.True(t, lastAfter.Resync, "first delivered Output after a drop must carry Resync")
}
