package sideband

import (
	"bytes"
	"log/slog"
)

// frameIntro and frameTerm delimit a sideband frame on the wire:
// ESC ] 1337;ccmux:<json> BEL.
var frameIntro = []byte("\x1b]1337;ccmux:")

const frameTerm = 0x07 // BEL

// maxFrameBytes is the cap on a single sideband frame; a frame that grows
// past this without a terminator is stripped and logged rather than
// allowed to buffer unbounded memory from a misbehaving pane.
const maxFrameBytes = 64 << 10

// Scanner extracts sideband frames from a byte stream that may split a
// frame arbitrarily across chunks. It strips matched frames from the bytes
// it returns for delivery to clients.
type Scanner struct {
	pending []byte // bytes from an as-yet-unresolved ESC introducer
	log     *slog.Logger
}

func NewScanner(log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{log: log}
}

// Process consumes one chunk of PTY output, returning the bytes that should
// still be delivered to clients (with any matched sideband frames removed)
// and the commands those frames decoded into. Malformed frame JSON is
// logged and the frame is still stripped — it must not reach clients, and
// it must not abort the rest of the chunk.
func (s *Scanner) Process(chunk []byte) ([]byte, []Command) {
	buf := append(s.pending, chunk...)
	s.pending = nil

	var out []byte
	var cmds []Command

	for {
		idx := bytes.Index(buf, frameIntro)
		if idx < 0 {
			// No introducer present. But the tail of buf might be a prefix
			// of the introducer spanning into the next chunk.
			keep := longestIntroSuffix(buf)
			out = append(out, buf[:len(buf)-keep]...)
			s.pending = append(s.pending, buf[len(buf)-keep:]...)
			return out, cmds
		}

		// Everything before the introducer passes through untouched.
		out = append(out, buf[:idx]...)
		rest := buf[idx+len(frameIntro):]

		termIdx := bytes.IndexByte(rest, frameTerm)
		if termIdx < 0 {
			if len(rest) >= maxFrameBytes {
				// Overlong frame: strip what we have and resume scanning past it.
				s.log.Warn("sideband: frame exceeds size cap, stripping", "bytes", len(rest))
				buf = rest[maxFrameBytes:]
				continue
			}
			// Frame may still be arriving; hold the introducer and partial
			// payload for the next chunk.
			s.pending = append([]byte{}, buf[idx:]...)
			return out, cmds
		}

		payload := rest[:termIdx]
		if len(payload) > maxFrameBytes {
			s.log.Warn("sideband: frame exceeds size cap, stripping", "bytes", len(payload))
		} else if cmd, err := decodeCommand(payload); err != nil {
			s.log.Warn("sideband: dropping malformed frame", "error", err)
		} else {
			cmds = append(cmds, cmd)
		}

		buf = rest[termIdx+1:]
	}
}

// longestIntroSuffix returns the length of the longest suffix of buf that
// is a proper, non-empty prefix of frameIntro — i.e. the tail that might be
// the start of an introducer split across a chunk boundary.
func longestIntroSuffix(buf []byte) int {
	max := len(frameIntro) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for l := max; l > 0; l-- {
		if bytes.Equal(buf[len(buf)-l:], frameIntro[:l]) {
			return l
		}
	}
	return 0
}
