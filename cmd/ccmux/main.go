// ccmux is the CLI client for ccmuxd: create and inspect sessions, windows,
// and panes, list git worktrees, and attach a raw passthrough terminal to a
// single pane for debugging. ccmux starts ccmuxd automatically if it is not
// already running.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var socketPath string

func main() {
	root := &cobra.Command{
		Use:           "ccmux",
		Short:         "ccmux — terminal multiplexer client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", defaultSocketPath(), "ccmuxd unix socket path (env: CCMUX_SOCKET)")

	root.AddCommand(
		newSessionCmd(),
		newWindowCmd(),
		newPaneCmd(),
		newWorktreeCmd(),
		newAttachCmd(),
		newDaemonCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ccmux: %v\n", err)
		os.Exit(1)
	}
}
