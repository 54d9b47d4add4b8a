// Package codec implements the framed, deterministic binary wire encoding
// used between ccmuxd and its clients: a 4-byte big-endian length prefix
// followed by a tagged message payload.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

// MaxFrameSize is the largest payload (excluding the 4-byte length prefix)
// the codec will accept. Frames above this are a protocol error that closes
// the connection.
const MaxFrameSize = 16 << 20 // 16 MiB

// ErrFrameTooLarge is returned by Decoder.Next, ReadMessage and
// WriteMessage when a frame's length exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")

// errTruncated is returned by Decode for an empty payload: a zero-length
// frame has no type tag. Decoder.Next reports it as a DecodeError.
var errTruncated = errors.New("codec: truncated frame")

// WriteMessage frames and writes a single message to w.
func WriteMessage(w io.Writer, m ccmux.Message) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	hdr := make([]byte, 4)
	binary.BigEndian.PutUint32(hdr, uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadMessage reads a single framed message from r. It is the blocking,
// whole-connection counterpart to Decoder for call sites (like the IPC
// server's per-connection read loop) that always want a full message before
// proceeding.
func ReadMessage(r io.Reader) (ccmux.Message, error) {
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr)
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return Decode(payload)
}

// DecodeResult is the outcome of feeding Decoder more bytes.
type DecodeResult int

const (
	NeedMore DecodeResult = iota
	Decoded
	DecodeError
)

// Decoder incrementally assembles frames from a growing buffer, for
// callers (like a non-blocking event loop) that receive bytes in arbitrary
// chunks rather than one read per frame.
type Decoder struct {
	buf []byte
}

// Feed appends bytes read from the connection to the decoder's buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next attempts to decode one complete frame from the buffered bytes.
// It returns (NeedMore, nil, nil) if no complete frame is buffered yet,
// (Decoded, msg, nil) on success, or (DecodeError, nil, err) on a malformed
// or oversized frame — the caller must close the connection in that case.
func (d *Decoder) Next() (DecodeResult, ccmux.Message, error) {
	if len(d.buf) < 4 {
		return NeedMore, nil, nil
	}
	n := binary.BigEndian.Uint32(d.buf[:4])
	if n > MaxFrameSize {
		return DecodeError, nil, ErrFrameTooLarge
	}
	total := 4 + int(n)
	if len(d.buf) < total {
		return NeedMore, nil, nil
	}
	payload := d.buf[4:total]
	msg, err := Decode(payload)
	// Advance the buffer regardless of decode outcome; a bad payload still
	// consumed exactly n bytes of framing.
	remaining := make([]byte, len(d.buf)-total)
	copy(remaining, d.buf[total:])
	d.buf = remaining
	if err != nil {
		return DecodeError, nil, err
	}
	return Decoded, msg, nil
}

func fmtUnknownTag(tag byte) error {
	return fmt.Errorf("codec: unknown message tag %d", tag)
}
