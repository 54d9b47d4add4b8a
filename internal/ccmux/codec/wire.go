package codec

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/ianremillard/ccmux/internal/ccmux"
)

var errShortBuffer = errors.New("codec: buffer too short")

// writer accumulates a deterministic binary encoding field by field, in a
// fixed order per message type, so that two distinct values never collide.
type writer struct {
	buf []byte
}

func (w *writer) byte(b byte)   { w.buf = append(w.buf, b) }
func (w *writer) bool(b bool) {
	if b {
		w.byte(1)
	} else {
		w.byte(0)
	}
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) i64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) str(s string) { w.bytes([]byte(s)) }

func (w *writer) time(t time.Time) { w.i64(t.UTC().UnixNano()) }

func (w *writer) optInt32(p *int32) {
	w.bool(p != nil)
	if p != nil {
		w.i32(*p)
	}
}

func (w *writer) sessionID(id ccmux.SessionID) { w.buf = append(w.buf, id.Bytes()...) }
func (w *writer) windowID(id ccmux.WindowID)   { w.buf = append(w.buf, id.Bytes()...) }
func (w *writer) paneID(id ccmux.PaneID)       { w.buf = append(w.buf, id.Bytes()...) }
func (w *writer) clientID(id ccmux.ClientID)   { w.buf = append(w.buf, id.Bytes()...) }

func (w *writer) optPaneID(p *ccmux.PaneID) {
	w.bool(p != nil)
	if p != nil {
		w.paneID(*p)
	}
}

func (w *writer) value(v ccmux.Value) {
	w.byte(byte(v.Kind()))
	switch v.Kind() {
	case ccmux.ValueNull:
	case ccmux.ValueBool:
		b, _ := v.Bool()
		w.bool(b)
	case ccmux.ValueInt:
		i, _ := v.Int()
		w.i64(i)
	case ccmux.ValueFloat:
		f, _ := v.Float()
		w.i64(int64(mathFloat64bits(f)))
	case ccmux.ValueString:
		s, _ := v.String()
		w.str(s)
	case ccmux.ValueArray:
		arr, _ := v.Array()
		w.u32(uint32(len(arr)))
		for _, e := range arr {
			w.value(e)
		}
	case ccmux.ValueObject:
		obj, _ := v.Object()
		w.u32(uint32(len(obj)))
		keys := sortedKeys(obj)
		for _, k := range keys {
			w.str(k)
			w.value(obj[k])
		}
	}
}

func (w *writer) extra(m map[string]ccmux.Value) {
	keys := sortedKeys(m)
	w.u32(uint32(len(keys)))
	for _, k := range keys {
		w.str(k)
		w.value(m[k])
	}
}

func (w *writer) agentState(a ccmux.AgentState) {
	w.str(a.AgentType)
	w.byte(byte(a.Activity))
	w.str(a.AgentSessionID)
	w.extra(a.Extra)
	w.byte(a.Confidence)
}

func (w *writer) paneState(s ccmux.PaneState) {
	w.byte(byte(s.Kind))
	switch s.Kind {
	case ccmux.PaneAgent:
		w.agentState(s.Agent)
	case ccmux.PaneExited:
		w.optInt32(s.ExitCode)
	}
}

func (w *writer) sessionInfo(s ccmux.SessionInfo) {
	w.sessionID(s.ID)
	w.str(s.Name)
	w.time(s.CreatedAt)
	w.u32(uint32(s.WindowCount))
	w.u32(uint32(s.AttachedClients))
}

func (w *writer) windowInfo(win ccmux.WindowInfo) {
	w.windowID(win.ID)
	w.sessionID(win.SessionID)
	w.str(win.Name)
	w.u32(uint32(win.Index))
	w.u32(uint32(win.PaneCount))
	w.optPaneID(win.FocusedPane)
}

func (w *writer) paneInfo(p ccmux.PaneInfo) {
	w.paneID(p.ID)
	w.windowID(p.WindowID)
	w.u32(uint32(p.Index))
	w.u16(p.Cols)
	w.u16(p.Rows)
	w.paneState(p.State)
	w.str(p.Title)
	w.str(p.WorkingDir)
	w.time(p.CreatedAt)
	w.time(p.LastStateChange)
}

// reader is the mirror-image cursor over a decode buffer. Every method
// returns io-style errShortBuffer if the declared length runs past the end
// of the payload, which Decode surfaces as a DecodeError.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errShortBuffer
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) boolV() (bool, error) {
	b, err := r.byte()
	return b != 0, err
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errShortBuffer
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errShortBuffer
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) i64() (int64, error) {
	if r.remaining() < 8 {
		return 0, errShortBuffer
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return int64(v), nil
}

func (r *reader) bytesV() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if r.remaining() < int(n) {
		return nil, errShortBuffer
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

func (r *reader) strV() (string, error) {
	b, err := r.bytesV()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) timeV() (time.Time, error) {
	ns, err := r.i64()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}

func (r *reader) optInt32V() (*int32, error) {
	has, err := r.boolV()
	if err != nil || !has {
		return nil, err
	}
	v, err := r.i32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *reader) sessionIDV() (ccmux.SessionID, error) {
	if r.remaining() < 16 {
		return ccmux.SessionID{}, errShortBuffer
	}
	id := ccmux.SessionIDFromBytes(r.buf[r.pos : r.pos+16])
	r.pos += 16
	return id, nil
}

func (r *reader) windowIDV() (ccmux.WindowID, error) {
	if r.remaining() < 16 {
		return ccmux.WindowID{}, errShortBuffer
	}
	id := ccmux.WindowIDFromBytes(r.buf[r.pos : r.pos+16])
	r.pos += 16
	return id, nil
}

func (r *reader) paneIDV() (ccmux.PaneID, error) {
	if r.remaining() < 16 {
		return ccmux.PaneID{}, errShortBuffer
	}
	id := ccmux.PaneIDFromBytes(r.buf[r.pos : r.pos+16])
	r.pos += 16
	return id, nil
}

func (r *reader) clientIDV() (ccmux.ClientID, error) {
	if r.remaining() < 16 {
		return ccmux.ClientID{}, errShortBuffer
	}
	id := ccmux.ClientIDFromBytes(r.buf[r.pos : r.pos+16])
	r.pos += 16
	return id, nil
}

func (r *reader) optPaneIDV() (*ccmux.PaneID, error) {
	has, err := r.boolV()
	if err != nil || !has {
		return nil, err
	}
	id, err := r.paneIDV()
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *reader) valueV() (ccmux.Value, error) {
	kindB, err := r.byte()
	if err != nil {
		return ccmux.Value{}, err
	}
	switch ccmux.ValueKind(kindB) {
	case ccmux.ValueNull:
		return ccmux.NullValue(), nil
	case ccmux.ValueBool:
		b, err := r.boolV()
		if err != nil {
			return ccmux.Value{}, err
		}
		return ccmux.BoolValue(b), nil
	case ccmux.ValueInt:
		i, err := r.i64()
		if err != nil {
			return ccmux.Value{}, err
		}
		return ccmux.IntValue(i), nil
	case ccmux.ValueFloat:
		bits, err := r.i64()
		if err != nil {
			return ccmux.Value{}, err
		}
		return ccmux.FloatValue(mathFloat64frombits(uint64(bits))), nil
	case ccmux.ValueString:
		s, err := r.strV()
		if err != nil {
			return ccmux.Value{}, err
		}
		return ccmux.StringValue(s), nil
	case ccmux.ValueArray:
		n, err := r.u32()
		if err != nil {
			return ccmux.Value{}, err
		}
		arr := make([]ccmux.Value, n)
		for i := range arr {
			arr[i], err = r.valueV()
			if err != nil {
				return ccmux.Value{}, err
			}
		}
		return ccmux.ArrayValue(arr), nil
	case ccmux.ValueObject:
		n, err := r.u32()
		if err != nil {
			return ccmux.Value{}, err
		}
		obj := make(map[string]ccmux.Value, n)
		for i := uint32(0); i < n; i++ {
			k, err := r.strV()
			if err != nil {
				return ccmux.Value{}, err
			}
			v, err := r.valueV()
			if err != nil {
				return ccmux.Value{}, err
			}
			obj[k] = v
		}
		return ccmux.ObjectValue(obj), nil
	default:
		return ccmux.Value{}, errors.New("codec: unknown value kind")
	}
}

func (r *reader) extraV() (map[string]ccmux.Value, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	m := make(map[string]ccmux.Value, n)
	for i := uint32(0); i < n; i++ {
		k, err := r.strV()
		if err != nil {
			return nil, err
		}
		v, err := r.valueV()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func (r *reader) agentStateV() (ccmux.AgentState, error) {
	var a ccmux.AgentState
	var err error
	if a.AgentType, err = r.strV(); err != nil {
		return a, err
	}
	kindB, err := r.byte()
	if err != nil {
		return a, err
	}
	a.Activity = ccmux.Activity(kindB)
	if a.AgentSessionID, err = r.strV(); err != nil {
		return a, err
	}
	if a.Extra, err = r.extraV(); err != nil {
		return a, err
	}
	if a.Confidence, err = r.byte(); err != nil {
		return a, err
	}
	return a, nil
}

func (r *reader) paneStateV() (ccmux.PaneState, error) {
	kindB, err := r.byte()
	if err != nil {
		return ccmux.PaneState{}, err
	}
	s := ccmux.PaneState{Kind: ccmux.PaneStateKind(kindB)}
	switch s.Kind {
	case ccmux.PaneAgent:
		s.Agent, err = r.agentStateV()
	case ccmux.PaneExited:
		s.ExitCode, err = r.optInt32V()
	}
	return s, err
}

func (r *reader) sessionInfoV() (ccmux.SessionInfo, error) {
	var s ccmux.SessionInfo
	var err error
	if s.ID, err = r.sessionIDV(); err != nil {
		return s, err
	}
	if s.Name, err = r.strV(); err != nil {
		return s, err
	}
	if s.CreatedAt, err = r.timeV(); err != nil {
		return s, err
	}
	n, err := r.u32()
	if err != nil {
		return s, err
	}
	s.WindowCount = int(n)
	n, err = r.u32()
	if err != nil {
		return s, err
	}
	s.AttachedClients = int(n)
	return s, nil
}

func (r *reader) windowInfoV() (ccmux.WindowInfo, error) {
	var w ccmux.WindowInfo
	var err error
	if w.ID, err = r.windowIDV(); err != nil {
		return w, err
	}
	if w.SessionID, err = r.sessionIDV(); err != nil {
		return w, err
	}
	if w.Name, err = r.strV(); err != nil {
		return w, err
	}
	n, err := r.u32()
	if err != nil {
		return w, err
	}
	w.Index = int(n)
	n, err = r.u32()
	if err != nil {
		return w, err
	}
	w.PaneCount = int(n)
	w.FocusedPane, err = r.optPaneIDV()
	return w, err
}

func (r *reader) paneInfoV() (ccmux.PaneInfo, error) {
	var p ccmux.PaneInfo
	var err error
	if p.ID, err = r.paneIDV(); err != nil {
		return p, err
	}
	if p.WindowID, err = r.windowIDV(); err != nil {
		return p, err
	}
	n, err := r.u32()
	if err != nil {
		return p, err
	}
	p.Index = int(n)
	if p.Cols, err = r.u16(); err != nil {
		return p, err
	}
	if p.Rows, err = r.u16(); err != nil {
		return p, err
	}
	if p.State, err = r.paneStateV(); err != nil {
		return p, err
	}
	if p.Title, err = r.strV(); err != nil {
		return p, err
	}
	if p.WorkingDir, err = r.strV(); err != nil {
		return p, err
	}
	if p.CreatedAt, err = r.timeV(); err != nil {
		return p, err
	}
	if p.LastStateChange, err = r.timeV(); err != nil {
		return p, err
	}
	return p, nil
}

func sortedKeys(m map[string]ccmux.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Simple insertion sort: these maps are small (detector metadata), and
	// avoiding a sort.Strings import keeps this file's dependency surface
	// identical to the rest of the codec.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
