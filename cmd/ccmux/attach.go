package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/ccmux/codec"
)

// newAttachCmd is a raw-mode debug passthrough for a single pane: stdin is
// forwarded as Input, Output events for that pane are written to stdout.
// It is deliberately scoped to one pane rather than rendering a full
// multi-pane layout — ccmux itself does not attempt a terminal UI renderer.
// The connection receives every subscribed session's events; attach
// discards anything not addressed to the target pane.
func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-id> <pane-id>",
		Short: "raw-mode debug passthrough to a single pane (detach: Ctrl-])",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseSessionAndPane(args[0], args[1])
			if err != nil {
				return err
			}
			return runAttach(sid, pid)
		},
	}
}

func runAttach(sid ccmux.SessionID, pid ccmux.PaneID) error {
	c, err := dialAttachedTo(sid)
	if err != nil {
		return err
	}
	defer c.Close()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("cannot set raw mode: %w", err)
	}
	restore := func() { term.Restore(fd, oldState) }
	defer restore()

	fmt.Fprintf(os.Stdout, "\r\n[ccmux] attached to pane %s  (detach: Ctrl-])\r\n", pid)

	done := make(chan struct{}, 1)
	signalDone := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}

	// Server -> stdout.
	go func() {
		for {
			msg, err := codec.ReadMessage(c.Conn)
			if err != nil {
				signalDone()
				return
			}
			out, ok := msg.(ccmux.Output)
			if !ok || out.PaneID != pid {
				continue
			}
			os.Stdout.Write(out.Bytes)
		}
	}()

	// stdin -> server.
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				for i := 0; i < n; i++ {
					if buf[i] == 0x1D { // Ctrl-]
						signalDone()
						return
					}
				}
				if sendErr := c.send(ccmux.Input{PaneID: pid, Bytes: append([]byte(nil), buf[:n]...)}); sendErr != nil {
					signalDone()
					return
				}
			}
			if err != nil {
				signalDone()
				return
			}
		}
	}()

	// Forward terminal resizes.
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	sendSize := func() {
		if cols, rows, err := term.GetSize(fd); err == nil {
			c.send(ccmux.Resize{PaneID: pid, Cols: uint16(cols), Rows: uint16(rows)})
		}
	}
	sendSize()
	go func() {
		for range winch {
			sendSize()
		}
	}()

	<-done
	fmt.Fprintf(os.Stdout, "\r\n[ccmux] detached from pane %s\r\n", pid)
	return nil
}
