//go:build integration

// Integration tests for ccmux + ccmuxd.
//
// Each test builds the binaries once (via TestMain), creates an isolated
// state/socket directory, and then runs actual `ccmux` / `ccmuxd` processes
// end to end over a real Unix socket.
//
// Run with:
//
//	go test -tags=integration -v ./test/
//	go test -tags=integration -run TestFullLifecycle -v ./test/

package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ccmuxBin  string
	ccmuxdBin string
)

func TestMain(m *testing.M) {
	root := moduleRoot()

	tmpBin, err := os.MkdirTemp("", "ccmux-inttest-bin-*")
	if err != nil {
		panic("MkdirTemp: " + err.Error())
	}
	defer os.RemoveAll(tmpBin)

	ccmuxBin = filepath.Join(tmpBin, "ccmux")
	ccmuxdBin = filepath.Join(tmpBin, "ccmuxd")

	for _, b := range []struct{ out, pkg string }{
		{ccmuxBin, "./cmd/ccmux"},
		{ccmuxdBin, "./cmd/ccmuxd"},
	} {
		cmd := exec.Command("go", "build", "-o", b.out, b.pkg)
		cmd.Dir = root
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			panic("build " + b.pkg + ": " + err.Error())
		}
	}

	os.Exit(m.Run())
}

func moduleRoot() string {
	abs, err := filepath.Abs("..")
	if err != nil {
		panic(err)
	}
	return abs
}

// ── Test environment ────────────────────────────────────────────────────────

type testEnv struct {
	t        *testing.T
	stateDir string
	sockPath string
	daemon   *exec.Cmd
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stateDir := t.TempDir()

	env := &testEnv{
		t:        t,
		stateDir: stateDir,
		sockPath: filepath.Join(stateDir, "ccmux.sock"),
	}
	t.Cleanup(env.cleanup)
	return env
}

// startDaemon starts ccmuxd and blocks until its Unix socket appears.
func (e *testEnv) startDaemon() {
	e.t.Helper()
	cmd := exec.Command(ccmuxdBin,
		"--state-dir", e.stateDir,
		"--socket", e.sockPath,
		"--config", filepath.Join(e.stateDir, "config.toml"),
	)
	cmd.Env = e.envVars()
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	require.NoError(e.t, cmd.Start(), "start ccmuxd")
	e.daemon = cmd

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(e.sockPath); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	e.t.Fatal("ccmuxd socket did not appear within 5s")
}

func (e *testEnv) envVars() []string {
	return append(os.Environ(), "CCMUX_SOCKET="+e.sockPath)
}

// ccmux runs a ccmux subcommand and returns (trimmed output, error).
func (e *testEnv) ccmux(args ...string) (string, error) {
	cmd := exec.Command(ccmuxBin, append([]string{"--socket", e.sockPath}, args...)...)
	cmd.Env = e.envVars()
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// ccmuxOK runs a ccmux subcommand and fatals if it returns an error.
func (e *testEnv) ccmuxOK(args ...string) string {
	e.t.Helper()
	out, err := e.ccmux(args...)
	require.NoError(e.t, err, "ccmux %v\n%s", args, out)
	return out
}

func (e *testEnv) cleanup() {
	if e.daemon != nil && e.daemon.Process != nil {
		_ = e.daemon.Process.Signal(syscall.SIGTERM)
		_ = e.daemon.Wait()
	}
}

// ── Tests ───────────────────────────────────────────────────────────────────

func TestSessionListEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon()

	out := env.ccmuxOK("session", "list")
	assert.Contains(t, out, "no sessions")
}

func TestFullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon()

	created := env.ccmuxOK("session", "create", "work")
	assert.Contains(t, created, "session")
	assert.Contains(t, created, "created")

	sessionID := idWord(created)

	list := env.ccmuxOK("session", "list")
	assert.Contains(t, list, "work")

	windowOut := env.ccmuxOK("window", "create", sessionID)
	assert.Contains(t, windowOut, "window")
	assert.Contains(t, windowOut, "created")
	windowID := idWord(windowOut)

	paneOut := env.ccmuxOK("pane", "create", sessionID, windowID)
	assert.Contains(t, paneOut, "pane")
	assert.Contains(t, paneOut, "created")
	paneID := idWord(paneOut)

	_, err := env.ccmux("pane", "input", sessionID, paneID, "echo hi\n")
	assert.NoError(t, err)

	closed := env.ccmuxOK("pane", "close", sessionID, paneID)
	assert.Contains(t, closed, "closed")
}

func TestMultipleSessionsAreIndependentlyListed(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon()

	env.ccmuxOK("session", "create", "alpha")
	env.ccmuxOK("session", "create", "beta")

	list := env.ccmuxOK("session", "list")
	assert.Contains(t, list, "alpha")
	assert.Contains(t, list, "beta")
}

func TestDaemonStatusReportsRunning(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon()

	out := env.ccmuxOK("daemon", "status")
	assert.Contains(t, out, "running")
}

// idWord returns the second whitespace-separated token of s, used to pull
// an ID out of ccmux's "<noun> <id> <verb>" confirmation lines.
func idWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
