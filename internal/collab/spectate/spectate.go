// Package spectate fans a game's broadcast history out to browser
// observers over WebSocket. It is a second, read-only spectator path
// alongside the native TCP AsyncObserver in internal/game: a browser
// can't speak raw W3GS, but it can hold a WebSocket open and receive
// the same framed bytes as opaque binary messages.
package spectate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
)

const writeTimeout = 5 * time.Second

// Resolver looks a game up by handle, the same seam bot.Host uses.
type Resolver interface {
	Resolve(handle core.GameHandle) (*game.Game, error)
}

// Server serves one HTTP endpoint per spectatable game.
type Server struct {
	registry Resolver
}

// NewServer builds a spectate server backed by registry.
func NewServer(registry Resolver) *Server {
	return &Server{registry: registry}
}

// Handle serves a single WebSocket spectator connection. The caller
// is expected to route a path segment (e.g. /spectate/{handle}) into
// handle before calling this, typically via http.HandlerFunc closure.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request, handle core.GameHandle) {
	g, err := s.registry.Resolve(handle)
	if err != nil {
		http.Error(w, fmt.Sprintf("spectate: %v", err), http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	if err := s.catchUp(ctx, conn, g); err != nil {
		conn.Close(websocket.StatusInternalError, "catch-up failed")
		return
	}

	<-ctx.Done()
	conn.Close(websocket.StatusNormalClosure, "game ended or client disconnected")
}

// catchUp replays everything buffered so far: the lobby exchange, both
// loading buffers, then every action frame recorded since.
func (s *Server) catchUp(ctx context.Context, conn *websocket.Conn, g *game.Game) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	for _, wire := range g.History.LobbyBuffer {
		if err := conn.Write(writeCtx, websocket.MessageBinary, wire); err != nil {
			return err
		}
	}
	for _, wire := range g.History.LoadingRealBuffer {
		if err := conn.Write(writeCtx, websocket.MessageBinary, wire); err != nil {
			return err
		}
	}
	for _, wire := range g.History.LoadingVirtualBuffer {
		if err := conn.Write(writeCtx, websocket.MessageBinary, wire); err != nil {
			return err
		}
	}
	for _, wire := range g.History.Frames {
		if err := conn.Write(writeCtx, websocket.MessageBinary, wire); err != nil {
			return err
		}
	}
	return nil
}

// Cursor tracks a spectator's replay position across polling cycles
// (an HTTP-polled alternative for environments where a single
// long-lived goroutine per spectator isn't wanted).
type Cursor struct {
	pos int
}

// Next returns every frame from the cursor's last position onward and
// advances it.
func (c *Cursor) Next(g *game.Game) [][]byte {
	frames := g.History.ReplayFrom(c.pos)
	c.pos += len(frames)
	return frames
}
