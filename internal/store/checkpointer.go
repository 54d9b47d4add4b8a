package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/ianremillard/ccmux/internal/graph"
)

// Checkpointer periodically snapshots a graph to disk and truncates the
// WAL once each snapshot lands. It runs on a ticker rather than after
// every mutation, since a whole-graph YAML encode on every pane write
// would be far more expensive than appending one WAL record.
type Checkpointer struct {
	dir      string
	graph    *graph.Graph
	wal      *WAL
	interval time.Duration
	log      *slog.Logger
}

// NewCheckpointer builds a checkpointer; it does not start running until
// Run is called.
func NewCheckpointer(dir string, g *graph.Graph, wal *WAL, interval time.Duration, log *slog.Logger) *Checkpointer {
	if log == nil {
		log = slog.Default()
	}
	return &Checkpointer{dir: dir, graph: g, wal: wal, interval: interval, log: log}
}

// Run blocks, writing a checkpoint every c.interval until ctx is canceled.
// It writes one final checkpoint on the way out so a clean shutdown never
// loses the last interval's worth of mutations to WAL replay alone.
func (c *Checkpointer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.checkpointOnce()
			return
		case <-ticker.C:
			c.checkpointOnce()
		}
	}
}

func (c *Checkpointer) checkpointOnce() {
	cp := BuildCheckpoint(c.graph)
	if err := Write(c.dir, cp); err != nil {
		c.log.Warn("store: checkpoint write failed", "error", err)
		return
	}
	if c.wal != nil {
		if err := c.wal.Truncate(); err != nil {
			c.log.Warn("store: wal truncate failed", "error", err)
		}
	}
}
