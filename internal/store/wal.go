package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ianremillard/ccmux/internal/ccmux"
	"github.com/ianremillard/ccmux/internal/graph"
)

const walFileName = "wal.log"

// walRecord is one JSON-line entry in the write-ahead log: the structural
// event that occurred, tagged by its wire MessageType so Replay can decode
// the right concrete type. Output events are never logged — they're high
// volume and the checkpoint/restore path only needs to reconstruct graph
// structure, not replay terminal history.
type walRecord struct {
	SessionID ccmux.SessionID    `json:"session_id"`
	Type      ccmux.MessageType  `json:"type"`
	Payload   json.RawMessage    `json:"payload"`
}

// loggable reports whether a message type is worth appending to the WAL.
func loggable(t ccmux.MessageType) bool {
	switch t {
	case ccmux.MsgWindowCreated, ccmux.MsgPaneCreated, ccmux.MsgPaneClosed,
		ccmux.MsgWindowClosed, ccmux.MsgSessionEnded, ccmux.MsgPaneStateChanged,
		ccmux.MsgAgentStateChanged:
		return true
	default:
		return false
	}
}

// WAL is an append-only log of structural graph mutations since the last
// checkpoint. Size-capped rotation is the safety net; Truncate (called
// after every successful checkpoint) is the normal path, since a fresh
// checkpoint already covers everything the WAL would otherwise replay.
type WAL struct {
	path       string
	maxBytes   int64

	mu   sync.Mutex
	file *os.File
	size int64
}

// OpenWAL opens (creating if necessary) <dir>/wal.log for appending.
func OpenWAL(dir string, maxWALSizeMB int) (*WAL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, walFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &WAL{
		path:     path,
		maxBytes: int64(maxWALSizeMB) << 20,
		file:     f,
		size:     info.Size(),
	}, nil
}

// Append writes e to the log as one JSON line, if its message type is
// structural (see loggable). Non-structural events (Output) are a no-op.
func (w *WAL) Append(e graph.Event) error {
	if !loggable(e.Message.Type()) {
		return nil
	}
	payload, err := json.Marshal(e.Message)
	if err != nil {
		return err
	}
	rec := walRecord{SessionID: e.SessionID, Type: e.Message.Type(), Payload: payload}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.file.Write(line)
	if err != nil {
		return err
	}
	w.size += int64(n)
	if w.maxBytes > 0 && w.size >= w.maxBytes {
		return w.rotateLocked()
	}
	return nil
}

// rotateLocked replaces the current log with an empty one, discarding the
// old contents. Caller must hold w.mu. Used both when the size cap is hit
// and (via Truncate) right after a checkpoint makes the log's contents
// redundant.
func (w *WAL) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

// Truncate empties the log. Call after every successful checkpoint write —
// the checkpoint now covers everything the log recorded.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rotateLocked()
}

// Close flushes and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ReplayWAL reads <dir>/wal.log, if present, and applies each structural
// record to g. Called after Restore loads the checkpoint, so only the
// mutations that happened after that checkpoint was taken need replaying.
func ReplayWAL(dir string, g *graph.Graph) error {
	f, err := os.Open(filepath.Join(dir, walFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		var rec walRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue // a corrupt trailing line is tolerated, not fatal
		}
		applyWALRecord(g, rec)
	}
	return scanner.Err()
}

// applyWALRecord best-effort re-applies one structural event to g. Only
// PaneClosed records are acted on: Restore rebuilt the window/pane tree
// from the checkpoint alone, and a pane closed after that checkpoint is the
// change it cannot already reflect. Every other record type is ignored, for
// the reasons given in the default case.
func applyWALRecord(g *graph.Graph, rec walRecord) {
	switch rec.Type {
	case ccmux.MsgPaneClosed:
		var m ccmux.PaneClosed
		if json.Unmarshal(rec.Payload, &m) == nil {
			g.ClosePane(m.PaneID)
		}
	default:
		// Creation records need no replay action: a window/pane created
		// after the checkpoint but before a clean shutdown was either
		// checkpointed on the next cycle or is gone along with the process
		// that held its PTY, so there is nothing live to reattach to.
		// PaneStateChanged/AgentStateChanged are derived from live PTY
		// output and get re-derived the moment the restored pane produces
		// its next chunk, so replaying a stale copy would add nothing.
	}
}
