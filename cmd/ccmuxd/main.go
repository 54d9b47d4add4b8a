// ccmuxd is the background daemon that owns the session/window/pane graph
// and every pane's PTY. Clients (ccmux attach, ccmux session list, ...) talk to it
// over a Unix domain socket.
//
// Usage:
//
//	ccmuxd [--config <path>] [--state-dir <dir>] [--socket <path>]
//
// ccmuxd is normally started automatically by ccmux; you do not need to run
// it by hand. It keeps its config, state dir, and runtime socket in three
// separate XDG locations rather than one flat root directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ianremillard/ccmux/internal/config"
	"github.com/ianremillard/ccmux/internal/detect"
	"github.com/ianremillard/ccmux/internal/graph"
	"github.com/ianremillard/ccmux/internal/ipc"
	"github.com/ianremillard/ccmux/internal/ptydriver"
	"github.com/ianremillard/ccmux/internal/store"
	"github.com/ianremillard/ccmux/internal/xdgpaths"
)

// daemonVersion is compared against a connecting client's ProtocolVersion,
// not this string directly; it is reported in Connected purely for
// diagnostics.
const daemonVersion = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", xdgpaths.ConfigFile(), "path to config.toml (env: CCMUX_CONFIG)")
	stateDir := flag.String("state-dir", xdgpaths.StateDir(), "checkpoint + WAL directory (env: CCMUX_STATE_DIR)")
	socketPath := flag.String("socket", xdgpaths.SocketPath(), "unix socket path (env: CCMUX_SOCKET)")
	flag.Parse()

	if env := os.Getenv("CCMUX_CONFIG"); env != "" {
		*configPath = env
	}
	if env := os.Getenv("CCMUX_STATE_DIR"); env != "" {
		*stateDir = env
	}
	if env := os.Getenv("CCMUX_SOCKET"); env != "" {
		*socketPath = env
	}

	log := newLogger()

	cfg, err := config.Load(*configPath, log)
	if err != nil {
		log.Error("config load failed", "path", *configPath, "error", err)
		return 2
	}

	if err := os.MkdirAll(*stateDir, 0o700); err != nil {
		log.Error("cannot create state dir", "dir", *stateDir, "error", err)
		return 1
	}

	// live holds the most recently loaded config so the fsnotify and
	// SIGHUP reload paths below can publish a new value that the graph
	// and detector registry actually read, instead of one fixed at
	// startup.
	live := &atomic.Pointer[config.Config]{}
	live.Store(&cfg)

	hub := ipc.NewHub()
	registryFactory := func() *detect.Registry {
		agent := live.Load().Agent
		if !agent.DetectionEnabled {
			return detect.NewRegistry()
		}
		switch agent.DetectionMethod {
		case "", "pty":
			return detect.NewRegistry(detect.NewClaudeDetector(), detect.NewGenericAgentDetector())
		default:
			log.Warn("unsupported agent.detection_method, falling back to pty", "method", agent.DetectionMethod)
			return detect.NewRegistry(detect.NewClaudeDetector(), detect.NewGenericAgentDetector())
		}
	}
	spawner := ptydriver.ShellSpawner{
		DefaultShell: func() string { return live.Load().General.DefaultShell },
	}
	wal, err := store.OpenWAL(*stateDir, cfg.Persistence.MaxWALSizeMB)
	if err != nil {
		log.Error("cannot open WAL", "error", err)
		return 1
	}
	defer wal.Close()

	sink := func(e graph.Event) {
		hub.Dispatch(e)
		if err := wal.Append(e); err != nil {
			log.Warn("WAL append failed", "error", err)
		}
	}
	g := graph.New(spawner, registryFactory, sink, log)

	if cp, err := store.Load(*stateDir); err != nil {
		log.Warn("checkpoint load failed, starting with an empty graph", "error", err)
	} else if len(cp.Sessions) > 0 {
		if err := store.Restore(g, cp); err != nil {
			log.Warn("checkpoint restore failed, starting with an empty graph", "error", err)
		} else if err := store.ReplayWAL(*stateDir, g); err != nil {
			log.Warn("WAL replay failed", "error", err)
		} else {
			log.Info("restored graph from checkpoint", "sessions", len(cp.Sessions))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checkpointInterval := time.Duration(cfg.Persistence.CheckpointIntervalSecs) * time.Second
	checkpointer := store.NewCheckpointer(*stateDir, g, wal, checkpointInterval, log)
	cpDone := make(chan struct{})
	go func() {
		defer close(cpDone)
		checkpointer.Run(ctx)
	}()
	defer func() {
		cancel()
		<-cpDone
	}()

	watcher, err := config.Watch(*configPath, log, func(c config.Config) {
		live.Store(&c)
		log.Info("config reloaded; new values apply to new panes/connections")
	})
	if err != nil {
		log.Warn("config hot-reload disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	srv := ipc.NewServer(*socketPath, g, hub, daemonVersion, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				if c, err := config.Load(*configPath, log); err != nil {
					log.Warn("SIGHUP: config reload failed", "error", err)
				} else {
					live.Store(&c)
					log.Info("config reloaded; new values apply to new panes/connections")
				}
				continue
			}
			log.Info("shutting down", "signal", sig.String())
			cancel()
			srv.Close()
			return
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Error("ipc server exited with error", "error", err)
		return 1
	}
	return 0
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if v := os.Getenv("CCMUX_LOG_LEVEL"); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			level = l
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if os.Getenv("CCMUX_LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
