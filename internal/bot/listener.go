package bot

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/wc3hostbot/core/internal/conn"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/netio"
	"github.com/wc3hostbot/core/internal/protocol"
)

// joinHandshakeTimeout bounds how long a freshly accepted connection has
// to send its REQJOIN before this side gives up on it.
const joinHandshakeTimeout = 10 * time.Second

// Acceptor turns raw accepted TCP connections into joined game users: it
// waits for the first REQJOIN or GProxy frame (discarding any other
// frame before it), resolves the target game by host_counter (or, for a
// GPS_RECONNECT, by reconnect key), runs admission, and registers the
// connection in conns so future Tick/command output reaches it.
type Acceptor struct {
	registry *game.Registry
	conns    *ConnTable
	policy   conn.Policy
}

// NewAcceptor builds an Acceptor serving games in reg, tracking
// connections in conns under policy.
func NewAcceptor(reg *game.Registry, conns *ConnTable, policy conn.Policy) *Acceptor {
	return &Acceptor{registry: reg, conns: conns, policy: policy}
}

// Serve runs netio.AcceptLoop on ln until ctx is canceled, handing every
// accepted connection to the REQJOIN handshake.
func (a *Acceptor) Serve(ctx context.Context, ln *net.TCPListener) error {
	return netio.AcceptLoop(ctx, ln, func(c *netio.Conn) {
		go a.handshake(c)
	})
}

func (a *Acceptor) handshake(c *netio.Conn) {
	deadline := time.Now().Add(joinHandshakeTimeout)
	var frame protocol.Frame
	for {
		frames := c.Drain()
		for _, f := range frames {
			if f.Opcode == protocol.OpReqJoin || f.Opcode == protocol.OpGProxy {
				frame = f
				break
			}
		}
		if frame.Opcode == protocol.OpReqJoin || frame.Opcode == protocol.OpGProxy {
			break
		}
		if c.Closed() || time.Now().After(deadline) {
			c.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}

	if frame.Opcode == protocol.OpGProxy {
		a.handshakeGPSReconnect(c, frame)
		return
	}

	req, err := protocol.DecodeReqJoin(frame.Payload)
	if err != nil {
		slog.Warn("malformed REQJOIN, closing connection", "remote", c.RemoteAddr(), "err", err)
		c.Close()
		return
	}

	g, err := a.registry.ByHostCounter(req.HostCounter)
	if err != nil {
		slog.Warn("REQJOIN for unknown game", "host_counter", req.HostCounter, "remote", c.RemoteAddr())
		c.Close()
		return
	}

	remoteIP, externalIP, externalPort := addrParts(c.RemoteAddr())
	result, err := g.Join(req, remoteIP, externalIP, externalPort, true, a.policy)
	if err != nil {
		slog.Error("join failed", "game", g.Handle.String(), "err", err)
		c.Close()
		return
	}
	if !result.Accepted {
		for _, msg := range result.Messages {
			c.Write(msg.Payload)
		}
		c.Close()
		return
	}

	a.conns.Register(g.Handle, result.UID, c)
	a.conns.Deliver(g.Handle, result.Messages)
}

// handshakeGPSReconnect handles a bare GPS_RECONNECT arriving on a fresh
// TCP connection (§4.6): the client has no host_counter to resolve the
// game by, so every registered game is searched for a matching
// reconnect key before the connection is re-registered in its place.
func (a *Acceptor) handshakeGPSReconnect(c *netio.Conn, frame protocol.Frame) {
	op, body, err := protocol.DecodeGPSFrame(frame.Payload)
	if err != nil || op != protocol.GPSReconnect {
		slog.Warn("unexpected GProxy sub-opcode on a fresh connection", "remote", c.RemoteAddr())
		c.Close()
		return
	}
	req, err := protocol.DecodeGPSReconnect(body)
	if err != nil {
		slog.Warn("malformed GPS_RECONNECT, closing connection", "remote", c.RemoteAddr(), "err", err)
		c.Close()
		return
	}

	var candidate *game.Game
	for _, g := range a.registry.All() {
		if g.MatchesGProxyReconnect(req.UID, req.ReconnectKey) {
			candidate = g
			break
		}
	}
	if candidate == nil {
		slog.Warn("GPS_RECONNECT matched no hosted game", "uid", req.UID, "remote", c.RemoteAddr())
		c.Close()
		return
	}

	replay, err := candidate.HandleGPSReconnect(req)
	if err != nil {
		slog.Error("GPS_RECONNECT failed", "game", candidate.Handle.String(), "err", err)
		c.Close()
		return
	}

	a.conns.Register(candidate.Handle, req.UID, c)
	for _, wire := range replay {
		c.Write(wire)
	}
}

func addrParts(addr net.Addr) (remoteIP net.IP, externalIP [4]byte, externalPort uint16) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, externalIP, 0
	}
	remoteIP = tcpAddr.IP
	if v4 := tcpAddr.IP.To4(); v4 != nil {
		copy(externalIP[:], v4)
	}
	return remoteIP, externalIP, uint16(tcpAddr.Port)
}
