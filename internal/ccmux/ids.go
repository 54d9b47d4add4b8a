// Package ccmux holds the identifier, protocol, and error types shared by
// every component of the daemon: the session graph, the codec, the agent
// detectors, and the sideband executor all speak in terms of these types
// rather than raw strings or bytes.
package ccmux

import "github.com/google/uuid"

// SessionID, WindowID, PaneID, and ClientID are opaque 128-bit identifiers,
// globally unique and stable for the lifetime of the object they name.
// They are never reused, even after the object they named is destroyed.
type (
	SessionID uuid.UUID
	WindowID  uuid.UUID
	PaneID    uuid.UUID
	ClientID  uuid.UUID
)

// NewSessionID, NewWindowID, NewPaneID, and NewClientID mint a fresh,
// globally-unique identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewWindowID() WindowID   { return WindowID(uuid.New()) }
func NewPaneID() PaneID       { return PaneID(uuid.New()) }
func NewClientID() ClientID   { return ClientID(uuid.New()) }

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id WindowID) String() string  { return uuid.UUID(id).String() }
func (id PaneID) String() string    { return uuid.UUID(id).String() }
func (id ClientID) String() string  { return uuid.UUID(id).String() }

func (id SessionID) IsZero() bool { return id == SessionID{} }
func (id WindowID) IsZero() bool  { return id == WindowID{} }
func (id PaneID) IsZero() bool    { return id == PaneID{} }
func (id ClientID) IsZero() bool  { return id == ClientID{} }

// ParseSessionID parses the canonical 8-4-4-4-12 hex form produced by String.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// ParsePaneID parses the canonical 8-4-4-4-12 hex form produced by String.
func ParsePaneID(s string) (PaneID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PaneID{}, err
	}
	return PaneID(u), nil
}

// ParseWindowID parses the canonical 8-4-4-4-12 hex form produced by String.
func ParseWindowID(s string) (WindowID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return WindowID{}, err
	}
	return WindowID(u), nil
}

// Bytes returns the raw 16-byte wire form, as the codec package frames it.
func (id SessionID) Bytes() []byte { u := uuid.UUID(id); return u[:] }
func (id WindowID) Bytes() []byte  { u := uuid.UUID(id); return u[:] }
func (id PaneID) Bytes() []byte    { u := uuid.UUID(id); return u[:] }
func (id ClientID) Bytes() []byte  { u := uuid.UUID(id); return u[:] }

// SessionIDFromBytes reconstructs a SessionID from its 16-byte wire form.
func SessionIDFromBytes(b []byte) SessionID {
	var u uuid.UUID
	copy(u[:], b)
	return SessionID(u)
}

// WindowIDFromBytes reconstructs a WindowID from its 16-byte wire form.
func WindowIDFromBytes(b []byte) WindowID {
	var u uuid.UUID
	copy(u[:], b)
	return WindowID(u)
}

// PaneIDFromBytes reconstructs a PaneID from its 16-byte wire form.
func PaneIDFromBytes(b []byte) PaneID {
	var u uuid.UUID
	copy(u[:], b)
	return PaneID(u)
}

// ClientIDFromBytes reconstructs a ClientID from its 16-byte wire form.
func ClientIDFromBytes(b []byte) ClientID {
	var u uuid.UUID
	copy(u[:], b)
	return ClientID(u)
}
