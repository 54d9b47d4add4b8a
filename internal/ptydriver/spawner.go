package ptydriver

import "github.com/ianremillard/ccmux/internal/graph"

// ShellSpawner adapts Spawn to internal/graph.Spawner, splitting command on
// whitespace into a program + args pair the way a shell would, and falling
// back to a default shell when the graph passes no command at all (the
// interactive-pane case).
type ShellSpawner struct {
	// DefaultShell returns the shell to spawn for a command-less pane. If
	// nil or it returns "", Spawn falls back to $SHELL then /bin/sh.
	DefaultShell func() string
}

// Spawn implements graph.Spawner.
func (s ShellSpawner) Spawn(command string, hasCommand bool, cwd string, hasCwd bool, cols, rows uint16,
	onBytes func([]byte), onExit func(exitCode int32, hasCode bool)) (graph.PTYHandle, error) {
	dir := ""
	if hasCwd {
		dir = cwd
	}

	prog, args := "", []string(nil)
	if hasCommand && command != "" {
		prog, args = splitCommand(command)
	} else if s.DefaultShell != nil {
		prog = s.DefaultShell()
	}

	return Spawn(prog, args, dir, cols, rows, onBytes, onExit)
}

// splitCommand does a minimal shell-like word split with no quoting
// support. The command it splits is the one carried by a sideband Spawn
// frame, i.e. text written by a process running in a pane; the result is
// executed directly as program plus arguments, without a shell.
func splitCommand(s string) (string, []string) {
	fields := splitFields(s)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

func splitFields(s string) []string {
	var fields []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
	}
	return fields
}
