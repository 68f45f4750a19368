// Package gproxy implements the reconnection domain logic (§4.6): the
// per-user replay buffer and the GPS_INIT/GPS_RECONNECT handshake. A
// session records whether the client negotiated Legacy or Extended;
// Reconnect applies no time window for either. This is distinct from
// internal/protocol's gproxy.go, which only encodes/decodes the GPS wire
// frames; this package owns what the server does with them.
package gproxy

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/core"
)

// Variant is the negotiated GProxy flavor (§4.6).
type Variant uint8

const (
	// None means the user never completed a GPS_INIT handshake.
	None Variant = iota
	// Legacy is a client whose GPS_INIT did not advertise Extended.
	Legacy
	// Extended is a client whose GPS_INIT advertised Extended support.
	Extended
)

// replayEntry is one mirrored outbound packet, keyed by its monotonic
// counter.
type replayEntry struct {
	counter uint64
	data    []byte
}

// Session is one user's GProxy state: their reconnect key, the wire
// packets mirrored since the handshake, and how many synthetic empty
// frames to insert per real frame while Disconnected.
type Session struct {
	UID          core.UID
	Variant      Variant
	ReconnectKey core.ReconnectKey
	EmptyActions int

	nextCounter uint64
	replay      []replayEntry
	lastAck     uint64
}

// NewSession starts a GProxy session at handshake time with the reconnect
// key the caller derived and sends back in GPS_INIT's reply.
func NewSession(uid core.UID, variant Variant, key core.ReconnectKey, emptyActions int) *Session {
	return &Session{
		UID:          uid,
		Variant:      variant,
		ReconnectKey: key,
		EmptyActions: emptyActions,
	}
}

// Mirror records one outbound wire packet into the replay buffer,
// assigning it the next monotonic counter; the first packet is counter 1.
func (s *Session) Mirror(data []byte) uint64 {
	s.nextCounter++
	counter := s.nextCounter
	s.replay = append(s.replay, replayEntry{counter: counter, data: data})
	return counter
}

// Trim discards replay entries the client has acknowledged via
// GPS_ACK, keeping the buffer bounded.
func (s *Session) Trim(lastSeenByClient uint64) {
	s.lastAck = lastSeenByClient
	i := 0
	for ; i < len(s.replay); i++ {
		if s.replay[i].counter > lastSeenByClient {
			break
		}
	}
	s.replay = s.replay[i:]
}

// ReplaySince returns the mirrored packets with counter >
// lastReceivedPacket, in order, for resending on reconnect.
func (s *Session) ReplaySince(lastReceivedPacket uint64) [][]byte {
	var out [][]byte
	for _, e := range s.replay {
		if e.counter > lastReceivedPacket {
			out = append(out, e.data)
		}
	}
	return out
}

// RejectReason mirrors protocol.GPSRejectReason values the registry can
// produce on its own (wrong key, freed slot) without importing protocol.
type RejectReason uint8

const (
	RejectWrongKey RejectReason = iota
	RejectUIDMismatch
)

// Registry tracks every live GProxy session for one game, keyed by uid.
type Registry struct {
	sessions map[core.UID]*Session
	freed    map[core.UID]bool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.UID]*Session),
		freed:    make(map[core.UID]bool),
	}
}

// Begin registers a freshly negotiated session.
func (r *Registry) Begin(s *Session) {
	r.sessions[s.UID] = s
	delete(r.freed, s.UID)
}

// Free marks uid's slot as no longer reconnectable (the slot was given
// away, e.g. to another join): a later reconnect attempt gets
// RejectUIDMismatch per §4.6.
func (r *Registry) Free(uid core.UID) {
	delete(r.sessions, uid)
	r.freed[uid] = true
}

// Reconnect validates a GPS_RECONNECT(uid, key, lastReceivedPacket) and,
// on success, returns the packets to replay.
func (r *Registry) Reconnect(uid core.UID, key core.ReconnectKey, lastReceivedPacket uint64) ([][]byte, RejectReason, error) {
	if r.freed[uid] {
		return nil, RejectUIDMismatch, fmt.Errorf("gproxy: reconnect uid=%d: slot freed", uid)
	}
	s, ok := r.sessions[uid]
	if !ok {
		return nil, RejectUIDMismatch, fmt.Errorf("gproxy: reconnect uid=%d: no session", uid)
	}
	if s.ReconnectKey != key {
		return nil, RejectWrongKey, fmt.Errorf("gproxy: reconnect uid=%d: wrong key", uid)
	}
	return s.ReplaySince(lastReceivedPacket), 0, nil
}

// Session returns uid's session, if any.
func (r *Registry) Session(uid core.UID) (*Session, bool) {
	s, ok := r.sessions[uid]
	return s, ok
}
