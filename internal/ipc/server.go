package ipc

import (
	"errors"
	"log/slog"
	"net"
	"os"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/ccmux/codec"
	"github.com/ianremillard/ccmux/internal/graph"
)

// Server owns the Unix domain socket listener and one goroutine per
// connection, each running a long-lived duplex message stream rather than
// a one-shot request/response exchange.
type Server struct {
	socketPath string
	graph      *graph.Graph
	hub        *Hub
	version    string
	log        *slog.Logger

	listener net.Listener
}

// NewServer builds a server bound to socketPath but does not yet listen.
func NewServer(socketPath string, g *graph.Graph, hub *Hub, serverVersion string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{socketPath: socketPath, graph: g, hub: hub, version: serverVersion, log: log}
}

// ListenAndServe binds the socket at mode 0600 and accepts connections
// until the listener is closed. It blocks; run it in its own goroutine.
func (s *Server) ListenAndServe() error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	l, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		l.Close()
		return err
	}
	s.listener = l
	s.log.Info("ipc: listening", "socket", s.socketPath)

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections. In-flight connections are left to
// drain on their own.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// handleConn runs the handshake, then the duplex read/write loops, for one
// connection. It never returns until the connection is done.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	first, err := codec.ReadMessage(conn)
	if err != nil {
		s.log.Debug("ipc: handshake read failed", "error", err)
		return
	}
	connect, ok := first.(ccmux.Connect)
	if !ok || connect.ProtocolVersion != ccmux.ProtocolVersion {
		_ = codec.WriteMessage(conn, ccmux.ErrorMessage{
			Code:    ccmux.ErrProtocolMismatch,
			Message: "unsupported protocol version",
		})
		return
	}

	c := newClient(connect.ClientID)
	id := s.hub.register(c)
	defer func() {
		s.graph.DetachClientFromAll(c.id)
		s.hub.unregister(c)
		c.close()
	}()

	if err := codec.WriteMessage(conn, ccmux.Connected{ServerVersion: s.version, ProtocolVersion: ccmux.ProtocolVersion, ClientID: id}); err != nil {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(conn, c)
	}()
	go s.heartbeat(c)

	for {
		msg, err := codec.ReadMessage(conn)
		if err != nil {
			c.close()
			break
		}
		s.dispatch(c, msg)
	}
	<-writerDone
}

// writeLoop is the single writer for conn: it drains c.priority ahead of
// c.data so control traffic (replies, heartbeats, state-change events) is
// never stuck behind a backlog of pane Output.
func (s *Server) writeLoop(conn net.Conn, c *client) {
	for {
		select {
		case msg := <-c.priority:
			if err := codec.WriteMessage(conn, msg); err != nil {
				c.close()
				return
			}
			continue
		default:
		}

		select {
		case msg := <-c.priority:
			if err := codec.WriteMessage(conn, msg); err != nil {
				c.close()
				return
			}
		case msg := <-c.data:
			if err := codec.WriteMessage(conn, msg); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}
