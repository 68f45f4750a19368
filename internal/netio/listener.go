// Package netio is the non-blocking socket layer the single-threaded
// tick loop sits on top of (§5's "readiness-selection primitive" and
// "ancillary worker tasks"): one reader goroutine per TCP connection
// (and one for the shared UDP discovery socket) does the blocking
// syscalls, handing decoded frames to the tick loop through a channel
// inbox it drains without blocking.
package netio

import (
	"context"
	"fmt"
	"net"
)

// ListenTCP opens the game's TCP listener on addr (":6112" style),
// tuned with SO_REUSEADDR so a restarted bot can rebind immediately.
func ListenTCP(ctx context.Context, addr string) (*net.TCPListener, error) {
	lc := net.ListenConfig{Control: controlReuseAddr}
	ln, err := lc.Listen(ctx, "tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("netio: listen tcp %s: %w", addr, err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("netio: listener for %s is not a TCP listener", addr)
	}
	return tcpLn, nil
}

// ListenUDP opens the LAN discovery UDP socket on addr (":6112" style),
// also with SO_REUSEADDR so multiple bot instances on the same host can
// share the discovery broadcast port.
func ListenUDP(ctx context.Context, addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: controlReuseAddr}
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("netio: listen udp %s: %w", addr, err)
	}
	udpConn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("netio: packet conn for %s is not UDP", addr)
	}
	return udpConn, nil
}
