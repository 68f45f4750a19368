package netio

import (
	"context"
	"fmt"
	"net"
)

// AcceptLoop accepts connections on ln until ctx is cancelled, tunes
// each with TCP_NODELAY (W3GS packets are small and latency-sensitive,
// the way gowarcraft3's own listener is configured), wraps it in a Conn
// and hands it to onAccept. Runs until ctx is done or Accept fails.
func AcceptLoop(ctx context.Context, ln *net.TCPListener, onAccept func(*Conn)) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		raw, err := ln.AcceptTCP()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("netio: accept: %w", err)
		}
		if err := raw.SetNoDelay(true); err != nil {
			raw.Close()
			continue
		}
		onAccept(NewConn(raw))
	}
}
