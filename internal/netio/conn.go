package netio

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/wc3hostbot/core/internal/protocol"
)

// inboxSize bounds how many decoded frames a stalled tick loop lets pile
// up before the reader goroutine starts blocking on delivery (at which
// point the peer's own TCP receive window backs up, which is the
// correct pushback).
const inboxSize = 256

// Conn wraps one game TCP connection: a reader goroutine performs the
// blocking Read syscalls and decodes W3GS frames, handing them to the
// tick loop through inbox. Writes go straight through to the socket —
// the tick loop is the only writer, so no buffering is needed there.
type Conn struct {
	raw   *net.TCPConn
	inbox chan protocol.Frame

	closed atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an accepted TCP connection and starts its reader
// goroutine. Callers should set TCP_NODELAY on raw before wrapping it
// (via raw.SetNoDelay(true)) since W3GS is a small-message protocol
// where Nagle's algorithm only adds latency.
func NewConn(raw *net.TCPConn) *Conn {
	c := &Conn{raw: raw, inbox: make(chan protocol.Frame, inboxSize)}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.inbox)
	defer c.closed.Store(true)
	buf := make([]byte, 0, 8192)
	tmp := make([]byte, 4096)
	for {
		n, err := c.raw.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			for {
				frame, consumed, ferr := protocol.DecodeFrame(buf)
				if ferr == protocol.ErrFragWait {
					break
				}
				if ferr != nil {
					return
				}
				c.inbox <- frame
				buf = buf[consumed:]
			}
		}
		if err != nil {
			if err != io.EOF {
				_ = err
			}
			return
		}
	}
}

// Drain returns every frame received since the last call, without
// blocking — this is what the single-threaded tick loop calls each
// cycle to pick up this connection's input.
func (c *Conn) Drain() []protocol.Frame {
	var frames []protocol.Frame
	for {
		select {
		case f, ok := <-c.inbox:
			if !ok {
				return frames
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// Write sends wire bytes to the peer.
func (c *Conn) Write(wire []byte) (int, error) {
	return c.raw.Write(wire)
}

// RemoteAddr returns the peer's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Closed reports whether the reader goroutine has observed the
// connection close (peer EOF, reset, or a malformed frame). Any frames
// still buffered in inbox remain available to Drain after this returns
// true.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// Close closes the underlying socket, unblocking the reader goroutine.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}
