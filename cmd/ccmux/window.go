package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

func newWindowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "manage windows within a session",
	}
	cmd.AddCommand(newWindowCreateCmd())
	return cmd
}

func newWindowCreateCmd() *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "create <session-id>",
		Short: "create a window in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := ccmux.ParseSessionID(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id: %w", err)
			}
			conn, err := dial(socketPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			// Subscribe first: CreateWindow has no direct reply, only the
			// broadcast this attach subscribes us to (dispatch policy,
			// internal/ipc/dispatch.go).
			if err := conn.send(ccmux.AttachSession{SessionID: sid}); err != nil {
				return err
			}
			if _, err := conn.recv(); err != nil {
				return err
			}

			if err := conn.send(ccmux.CreateWindow{Name: name, HasName: name != "", SessionID: sid}); err != nil {
				return err
			}
			msg, err := conn.recv()
			if err != nil {
				return err
			}
			wc, ok := msg.(ccmux.WindowCreated)
			if !ok {
				return fmt.Errorf("unexpected reply %T", msg)
			}
			fmt.Printf("window %s created\n", wc.Window.ID)
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "", "window name")
	return c
}
