package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

func newPaneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pane",
		Short: "manage panes within a window",
	}
	cmd.AddCommand(
		newPaneCreateCmd(),
		newPaneCloseCmd(),
		newPaneResizeCmd(),
		newPaneSelectCmd(),
		newPaneInputCmd(),
	)
	return cmd
}

// dialAttachedTo dials, attaches to sessionID (subscribing this connection
// to its broadcast events), and returns the ready connection. Every pane
// mutation below relies on this subscription for its confirmation, per the
// dispatch policy documented in internal/ipc/dispatch.go.
func dialAttachedTo(sessionID ccmux.SessionID) (*conn, error) {
	c, err := dial(socketPath)
	if err != nil {
		return nil, err
	}
	if err := c.send(ccmux.AttachSession{SessionID: sessionID}); err != nil {
		c.Close()
		return nil, err
	}
	if _, err := c.recv(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func newPaneCreateCmd() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "create <session-id> <window-id>",
		Short: "create a pane in a window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := ccmux.ParseSessionID(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id: %w", err)
			}
			wid, err := ccmux.ParseWindowID(args[1])
			if err != nil {
				return fmt.Errorf("invalid window id: %w", err)
			}
			dir := ccmux.Horizontal
			if direction == "v" || direction == "vertical" {
				dir = ccmux.Vertical
			}

			c, err := dialAttachedTo(sid)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.send(ccmux.CreatePane{WindowID: wid, Direction: dir}); err != nil {
				return err
			}
			msg, err := c.recv()
			if err != nil {
				return err
			}
			pc, ok := msg.(ccmux.PaneCreated)
			if !ok {
				return fmt.Errorf("unexpected reply %T", msg)
			}
			fmt.Printf("pane %s created\n", pc.Pane.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "h", "split direction: h(orizontal) or v(ertical)")
	return cmd
}

func newPaneCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <session-id> <pane-id>",
		Short: "close a pane",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseSessionAndPane(args[0], args[1])
			if err != nil {
				return err
			}
			c, err := dialAttachedTo(sid)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.send(ccmux.ClosePane{PaneID: pid}); err != nil {
				return err
			}
			msg, err := c.recv()
			if err != nil {
				return err
			}
			if _, ok := msg.(ccmux.PaneClosed); !ok {
				return fmt.Errorf("unexpected reply %T", msg)
			}
			fmt.Printf("pane %s closed\n", pid)
			return nil
		},
	}
}

func newPaneResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <session-id> <pane-id> <cols> <rows>",
		Short: "resize a pane",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseSessionAndPane(args[0], args[1])
			if err != nil {
				return err
			}
			cols, err := strconv.ParseUint(args[2], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid cols: %w", err)
			}
			rows, err := strconv.ParseUint(args[3], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid rows: %w", err)
			}

			c, err := dialAttachedTo(sid)
			if err != nil {
				return err
			}
			defer c.Close()

			return c.send(ccmux.Resize{PaneID: pid, Cols: uint16(cols), Rows: uint16(rows)})
		},
	}
}

func newPaneSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <session-id> <pane-id>",
		Short: "focus a pane within its window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseSessionAndPane(args[0], args[1])
			if err != nil {
				return err
			}
			c, err := dialAttachedTo(sid)
			if err != nil {
				return err
			}
			defer c.Close()

			return c.send(ccmux.SelectPane{PaneID: pid})
		},
	}
}

func newPaneInputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "input <session-id> <pane-id> <text>",
		Short: "send keystrokes to a pane",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseSessionAndPane(args[0], args[1])
			if err != nil {
				return err
			}
			c, err := dialAttachedTo(sid)
			if err != nil {
				return err
			}
			defer c.Close()

			return c.send(ccmux.Input{PaneID: pid, Bytes: []byte(args[2])})
		},
	}
}

func parseSessionAndPane(sessionArg, paneArg string) (ccmux.SessionID, ccmux.PaneID, error) {
	sid, err := ccmux.ParseSessionID(sessionArg)
	if err != nil {
		return ccmux.SessionID{}, ccmux.PaneID{}, fmt.Errorf("invalid session id: %w", err)
	}
	pid, err := ccmux.ParsePaneID(paneArg)
	if err != nil {
		return ccmux.SessionID{}, ccmux.PaneID{}, fmt.Errorf("invalid pane id: %w", err)
	}
	return sid, pid, nil
}
