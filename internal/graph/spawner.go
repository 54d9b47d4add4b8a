package graph

// PTYHandle is the capability set the graph needs from a spawned pane's
// backing process: write/resize/kill, plus the PID detectors need for
// process-tree fallbacks. internal/ptydriver.Pane satisfies this
// structurally.
type PTYHandle interface {
	Write(b []byte) error
	Resize(cols, rows uint16) error
	Kill()
	PID() int
}

// Spawner opens a new controlling terminal and starts a child process in
// it. onBytes is called with every chunk of output the PTY produces;
// onExit is called exactly once when the child exits.
type Spawner interface {
	Spawn(command string, hasCommand bool, cwd string, hasCwd bool, cols, rows uint16,
		onBytes func([]byte), onExit func(exitCode int32, hasCode bool)) (PTYHandle, error)
}
