package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ianremillard/ccmux/internal/worktree"
)

func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "inspect git worktrees",
	}
	cmd.AddCommand(newWorktreeListCmd())
	return cmd
}

func newWorktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "list worktrees for the repository containing dir (default: cwd)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			infos, err := worktree.ListWorktrees(dir)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("no worktrees")
				return nil
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"PATH", "BRANCH", "HEAD", "MAIN"})
			for _, info := range infos {
				branch := info.Branch
				if info.Detached {
					branch = "(detached)"
				}
				main := ""
				if info.Main {
					main = "*"
				}
				head := info.HeadSHA
				if len(head) > 8 {
					head = head[:8]
				}
				t.AppendRow(table.Row{info.Path, branch, head, main})
			}
			fmt.Println(t.Render())
			return nil
		},
	}
}
