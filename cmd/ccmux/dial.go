package main

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/ccmux/codec"
	"github.com/ianremillard/ccmux/internal/xdgpaths"
)

// conn wraps a handshaken connection to ccmuxd, communicating over
// length-prefixed ccmux.Message frames.
type conn struct {
	net.Conn
	clientID ccmux.ClientID
}

// dial connects to socketPath, starting ccmuxd first if it isn't already
// listening, then performs the Connect/Connected handshake.
func dial(socketPath string) (*conn, error) {
	ensureDaemon(socketPath)

	nc, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to ccmuxd: %w", err)
	}

	if err := codec.WriteMessage(nc, ccmux.Connect{ProtocolVersion: ccmux.ProtocolVersion}); err != nil {
		nc.Close()
		return nil, err
	}
	msg, err := codec.ReadMessage(nc)
	if err != nil {
		nc.Close()
		return nil, err
	}
	connected, ok := msg.(ccmux.Connected)
	if !ok {
		nc.Close()
		return nil, fmt.Errorf("handshake failed: unexpected reply %T", msg)
	}
	return &conn{Conn: nc, clientID: connected.ClientID}, nil
}

// recv reads the next frame and fails loudly on an ErrorMessage, so callers
// can treat every other call's return value as a successful reply.
func (c *conn) recv() (ccmux.Message, error) {
	msg, err := codec.ReadMessage(c.Conn)
	if err != nil {
		return nil, err
	}
	if em, ok := msg.(ccmux.ErrorMessage); ok {
		return nil, fmt.Errorf("%s: %s", em.Code, em.Message)
	}
	return msg, nil
}

func (c *conn) send(msg ccmux.Message) error {
	return codec.WriteMessage(c.Conn, msg)
}

// ensureDaemon starts ccmuxd in the background if the socket isn't
// responding.
func ensureDaemon(socketPath string) {
	if pingDaemon(socketPath) {
		return
	}

	exe, _ := os.Executable()
	daemonBin := ""
	if exe != "" {
		candidate := exe[:len(exe)-len("ccmux")] + "ccmuxd"
		if _, err := os.Stat(candidate); err == nil {
			daemonBin = candidate
		}
	}
	if daemonBin == "" {
		daemonBin = "ccmuxd"
	}

	cmd := exec.Command(daemonBin, "--socket", socketPath)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "ccmux: could not start ccmuxd: %v\n", err)
		return
	}

	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if pingDaemon(socketPath) {
			return
		}
	}
	fmt.Fprintln(os.Stderr, "ccmux: ccmuxd did not start in time")
}

func pingDaemon(socketPath string) bool {
	nc, err := net.DialTimeout("unix", socketPath, 300*time.Millisecond)
	if err != nil {
		return false
	}
	defer nc.Close()
	nc.SetDeadline(time.Now().Add(500 * time.Millisecond))

	if err := codec.WriteMessage(nc, ccmux.Connect{ProtocolVersion: ccmux.ProtocolVersion}); err != nil {
		return false
	}
	msg, err := codec.ReadMessage(nc)
	if err != nil {
		return false
	}
	_, ok := msg.(ccmux.Connected)
	return ok
}

func defaultSocketPath() string {
	if env := os.Getenv("CCMUX_SOCKET"); env != "" {
		return env
	}
	return xdgpaths.SocketPath()
}
