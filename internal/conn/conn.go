// Package conn implements the per-socket state machine (§5): every
// accepted TCP connection starts Seeking and is classified into a full
// user, a spectator, or a GProxy reconnect attempt by its first message;
// there is no separate LAN-searcher role. This replaces the original's inheritance hierarchy
// (CConnection -> GameSeeker/GameUser/AsyncObserver/TCPProxy) with a
// single tagged-variant value that transitions in place, reusing the
// same socket and read loop regardless of what the connection becomes.
package conn

import (
	"net"
	"time"

	"github.com/wc3hostbot/core/internal/core"
)

// Role is the tag of the Connection variant.
type Role uint8

const (
	// RoleSeeking is the initial state: classification pending.
	RoleSeeking Role = iota
	RoleUser
	RoleSpectator
	RoleProxy
)

func (r Role) String() string {
	switch r {
	case RoleSeeking:
		return "seeking"
	case RoleUser:
		return "user"
	case RoleSpectator:
		return "spectator"
	case RoleProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// Phase is a Joined connection's lifecycle sub-state, mirroring the
// owning Game's own Lobby/Loading/Playing phases. A Seeking connection
// has no Phase.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseLoading
	PhasePlaying
	PhaseLeaving
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhaseLeaving:
		return "leaving"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connection is the tagged-variant state for one accepted socket. Only
// the fields relevant to Role are meaningful; callers gate on Role before
// reading Phase/UID/etc., the same discipline a sum type would enforce
// at compile time.
type Connection struct {
	RemoteAddr net.Addr
	Role       Role
	Phase      Phase

	// Seeking state.
	SeekingSince time.Time

	// User/Spectator state.
	UID  core.UID
	Name string

	// Proxy (GProxy) state.
	ReconnectKey core.ReconnectKey
}

// NewSeeking starts a connection in the Seeking role, stamped with the
// time seeking began; IsSeekerExpired measures the timeout from it.
func NewSeeking(remote net.Addr, now time.Time) *Connection {
	return &Connection{
		RemoteAddr:   remote,
		Role:         RoleSeeking,
		SeekingSince: now,
	}
}

// DefaultSeekerTimeout is the default classification deadline (§5).
const DefaultSeekerTimeout = 5 * time.Second

// IsSeekerExpired reports whether a Seeking connection has outlived
// timeout without being classified.
func (c *Connection) IsSeekerExpired(now time.Time, timeout time.Duration) bool {
	if c.Role != RoleSeeking {
		return false
	}
	return now.Sub(c.SeekingSince) >= timeout
}

// PromoteToUser transitions a Seeking connection into a full lobby user.
func (c *Connection) PromoteToUser(uid core.UID, name string) {
	c.Role = RoleUser
	c.Phase = PhaseLobby
	c.UID = uid
	c.Name = name
}

// PromoteToSpectator transitions a Seeking connection into a spectator.
func (c *Connection) PromoteToSpectator(name string) {
	c.Role = RoleSpectator
	c.Phase = PhaseLobby
	c.Name = name
}

// PromoteToProxy transitions a Seeking connection into a GProxy
// reconnect attempt; the caller resolves ReconnectKey against the
// registry before calling this.
func (c *Connection) PromoteToProxy(key core.ReconnectKey) {
	c.Role = RoleProxy
	c.ReconnectKey = key
}

// AdvancePhase moves a Joined connection's phase forward, e.g. when its
// Game transitions Lobby -> Loading -> Playing.
func (c *Connection) AdvancePhase(phase Phase) {
	if c.Role == RoleUser || c.Role == RoleSpectator {
		c.Phase = phase
	}
}

// Disconnect marks the socket dead without a graceful LEAVEGAME: the
// slot may survive pending a GProxy reconnect (§5.1 Disconnected, not
// Leaving).
func (c *Connection) Disconnect() {
	c.Phase = PhaseDisconnected
}

// Leave marks a graceful departure.
func (c *Connection) Leave() {
	c.Phase = PhaseLeaving
}
