package bot

import (
	"log/slog"
	"sync"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/netio"
	"github.com/wc3hostbot/core/internal/protocol"
)

// ConnTable maps each game's connected users back to the netio.Conn
// carrying their traffic, and implements OutboundSink by writing each
// Tick's/command's output straight to those sockets. The Game/Scheduler
// layer never imports netio directly (§5 keeps the tick loop
// socket-agnostic); this is the seam where wire bytes actually leave
// the process.
type ConnTable struct {
	mu    sync.RWMutex
	games map[core.GameHandle]map[core.UID]*netio.Conn
}

// NewConnTable builds an empty connection table.
func NewConnTable() *ConnTable {
	return &ConnTable{games: make(map[core.GameHandle]map[core.UID]*netio.Conn)}
}

// Register associates uid's connection within handle's game, so future
// Deliver calls know where to write.
func (t *ConnTable) Register(handle core.GameHandle, uid core.UID, conn *netio.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns, ok := t.games[handle]
	if !ok {
		conns = make(map[core.UID]*netio.Conn)
		t.games[handle] = conns
	}
	conns[uid] = conn
}

// Unregister drops a single user's connection (they left, or their
// connection reset).
func (t *ConnTable) Unregister(handle core.GameHandle, uid core.UID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conns, ok := t.games[handle]; ok {
		delete(conns, uid)
	}
}

// DropGame removes every tracked connection for a finished game.
func (t *ConnTable) DropGame(handle core.GameHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.games, handle)
}

// DrainGame non-blockingly drains every joined connection's buffered
// inbound frames for one game, and reports which connections have since
// closed. Implements Scheduler's InboundSource (§5): this is the only
// place the tick loop reads off a live socket.
func (t *ConnTable) DrainGame(handle core.GameHandle) InboundBatch {
	t.mu.Lock()
	defer t.mu.Unlock()

	conns := t.games[handle]
	var batch InboundBatch
	for uid, c := range conns {
		if frames := c.Drain(); len(frames) > 0 {
			if batch.Frames == nil {
				batch.Frames = make(map[core.UID][]protocol.Frame)
			}
			batch.Frames[uid] = frames
		}
		if c.Closed() {
			batch.Closed = append(batch.Closed, uid)
			delete(conns, uid)
		}
	}
	return batch
}

// Deliver writes every message to its addressee: ToUID zero broadcasts
// to every tracked connection in the game, otherwise it unicasts.
// Satisfies bot.OutboundSink.
func (t *ConnTable) Deliver(handle core.GameHandle, msgs []game.OutboundMessage) {
	t.mu.RLock()
	conns := t.games[handle]
	t.mu.RUnlock()
	if len(conns) == 0 {
		return
	}
	for _, msg := range msgs {
		if msg.ToUID == core.NoUID {
			for uid, c := range conns {
				if _, err := c.Write(msg.Payload); err != nil {
					slog.Warn("write failed, dropping connection", "game", handle.String(), "uid", uid, "err", err)
				}
			}
			continue
		}
		if c, ok := conns[msg.ToUID]; ok {
			if _, err := c.Write(msg.Payload); err != nil {
				slog.Warn("write failed, dropping connection", "game", handle.String(), "uid", msg.ToUID, "err", err)
			}
		}
	}
}
