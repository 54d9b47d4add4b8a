package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "manage sessions",
	}
	cmd.AddCommand(newSessionCreateCmd(), newSessionListCmd())
	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "create a new session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			c, err := dial(socketPath)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.send(ccmux.CreateSession{Name: name}); err != nil {
				return err
			}
			msg, err := c.recv()
			if err != nil {
				return err
			}
			created, ok := msg.(ccmux.SessionCreated)
			if !ok {
				return fmt.Errorf("unexpected reply %T", msg)
			}
			fmt.Printf("session %s created\n", created.Session.ID)
			return nil
		},
	}
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(socketPath)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.send(ccmux.ListSessions{}); err != nil {
				return err
			}
			msg, err := c.recv()
			if err != nil {
				return err
			}
			list, ok := msg.(ccmux.SessionList)
			if !ok {
				return fmt.Errorf("unexpected reply %T", msg)
			}

			if len(list.Sessions) == 0 {
				fmt.Println(color.New(color.Faint).Sprint("no sessions"))
				return nil
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "NAME", "WINDOWS", "ATTACHED", "CREATED"})
			for _, s := range list.Sessions {
				windows := fmt.Sprintf("%d", s.WindowCount)
				attached := color.New(color.FgHiBlack).Sprintf("%d", s.AttachedClients)
				if s.AttachedClients > 0 {
					attached = color.New(color.FgGreen).Sprintf("%d", s.AttachedClients)
				}
				t.AppendRow(table.Row{s.ID, s.Name, windows, attached, s.CreatedAt.Format("2006-01-02 15:04")})
			}
			fmt.Println(t.Render())
			return nil
		},
	}
}
