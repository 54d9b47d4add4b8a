package main

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
)

// newDaemonCmd groups the subcommands for managing a user-session daemon
// process: start/stop/status against the socket directly, rather than a
// launchd/systemd service install.
func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "manage the ccmuxd background daemon",
	}
	cmd.AddCommand(newDaemonStartCmd(), newDaemonStopCmd(), newDaemonStatusCmd())
	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "start ccmuxd if it is not already running",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pingDaemon(socketPath) {
				fmt.Println("ccmuxd already running")
				return nil
			}
			ensureDaemon(socketPath)
			if pingDaemon(socketPath) {
				fmt.Println("ccmuxd started")
				return nil
			}
			return fmt.Errorf("ccmuxd did not start")
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "stop ccmuxd",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := daemonPID()
			if err != nil {
				return err
			}
			return syscall.Kill(pid, syscall.SIGTERM)
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report whether ccmuxd is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pingDaemon(socketPath) {
				fmt.Println("ccmuxd: running")
				return nil
			}
			fmt.Println("ccmuxd: not running")
			return nil
		},
	}
}

// daemonPID shells out to pgrep rather than tracking a pidfile; ccmuxd
// keeps no state about its own OS pid on disk.
func daemonPID() (int, error) {
	out, err := exec.Command("pgrep", "-f", "ccmuxd").Output()
	if err != nil {
		return 0, fmt.Errorf("ccmuxd is not running")
	}
	var pid int
	if _, err := fmt.Sscanf(string(out), "%d", &pid); err != nil {
		return 0, fmt.Errorf("could not parse ccmuxd pid")
	}
	return pid, nil
}
