// Package ptydriver is the PTY I/O collaborator the session graph drives:
// it owns controlling-terminal allocation, the child process, and the byte
// pump between the PTY master and a caller-supplied output sink.
package ptydriver

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// Pane is a single spawned PTY-backed process. The zero value is not usable;
// construct with Spawn.
type Pane struct {
	mu      sync.Mutex
	ptm     *os.File
	cmd     *exec.Cmd
	pid     int
	killed  bool
	onExit  func(exitCode int32, hasCode bool)
	onBytes func(chunk []byte)
}

// Spawn allocates a PTY, starts command (with args, in cwd, at cols×rows),
// and launches the background reader goroutine that forwards every chunk of
// output to onBytes and the terminal exit code to onExit.
//
// The child is placed in its own session via pty.Start's Setsid, giving
// Kill a whole-process-group target; Setpgid must not also be set after
// Setsid.
func Spawn(command string, args []string, cwd string, cols, rows uint16, onBytes func([]byte), onExit func(int32, bool)) (*Pane, error) {
	if command == "" {
		command = defaultShell()
	}
	cmd := exec.Command(command, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("pty.Start: %w", err)
	}

	p := &Pane{
		ptm:     ptm,
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		onExit:  onExit,
		onBytes: onBytes,
	}
	go p.readLoop()
	return p, nil
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func (p *Pane) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := p.ptm.Read(buf)
		if n > 0 && p.onBytes != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.onBytes(chunk)
		}
		if err != nil {
			break
		}
	}

	waitErr := p.cmd.Wait()

	p.mu.Lock()
	p.ptm.Close()
	p.ptm = nil
	p.mu.Unlock()

	var code int32
	hasCode := false
	if waitErr == nil {
		code, hasCode = 0, true
	} else if exitErr, ok := waitErr.(*exec.ExitError); ok {
		code, hasCode = int32(exitErr.ExitCode()), true
	}
	if p.onExit != nil {
		p.onExit(code, hasCode)
	}
}

// Write sends bytes to the PTY master, i.e. into the child's stdin.
func (p *Pane) Write(b []byte) error {
	p.mu.Lock()
	ptm := p.ptm
	p.mu.Unlock()
	if ptm == nil {
		return fmt.Errorf("ptydriver: write to exited pane")
	}
	_, err := ptm.Write(b)
	return err
}

// Resize updates the PTY's reported terminal size.
func (p *Pane) Resize(cols, rows uint16) error {
	p.mu.Lock()
	ptm := p.ptm
	p.mu.Unlock()
	if ptm == nil {
		return fmt.Errorf("ptydriver: resize on exited pane")
	}
	return pty.Setsize(ptm, &pty.Winsize{Cols: cols, Rows: rows})
}

// Kill terminates the whole process group, then closes the PTY master.
func (p *Pane) Kill() {
	p.mu.Lock()
	ptm := p.ptm
	pid := p.pid
	p.killed = true
	p.mu.Unlock()

	if pid > 0 {
		pgid, err := syscall.Getpgid(pid)
		if err == nil && pgid > 0 {
			syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	if ptm != nil {
		ptm.Close()
	}
}

// WasKilled reports whether Kill was called on this pane, which tells a
// deliberate close apart from a process that exited on its own.
func (p *Pane) WasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// PID returns the child process's PID, the value a process-tree walk such
// as internal/detect.ClaudeDetector.SetShellPID takes.
func (p *Pane) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}
