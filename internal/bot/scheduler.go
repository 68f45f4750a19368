// Package bot implements the single-threaded cooperative scheduler (§5)
// that ticks every hosted game on a fixed interval, plus the owner
// command surface (§6) dispatched into internal/game.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/protocol"
)

// OutboundSink is how the scheduler hands wire messages off to whatever
// owns the actual sockets (internal/netio). The scheduler itself never
// touches a net.Conn.
type OutboundSink interface {
	Deliver(handle core.GameHandle, msgs []game.OutboundMessage)
}

// InboundBatch is one game's worth of frames drained off its joined
// connections in a single tick, plus the uids whose sockets have closed
// since the last drain.
type InboundBatch struct {
	Frames map[core.UID][]protocol.Frame
	Closed []core.UID
}

// InboundSource lets the scheduler pull buffered inbound frames for a
// game without importing netio (§5 keeps the tick loop socket-agnostic).
// Implemented by *ConnTable; checked via type assertion on sink so
// tests can supply an OutboundSink-only fake without also wiring this.
type InboundSource interface {
	DrainGame(handle core.GameHandle) InboundBatch
}

// Scheduler ticks every registered game once per interval, mirroring the
// teacher's AI TickManager: a ticker loop, a stop channel, and a Start
// that blocks until the context is canceled.
type Scheduler struct {
	registry *game.Registry
	sink     OutboundSink
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	epoch    time.Time
}

// NewScheduler builds a scheduler over reg, delivering Tick output to
// sink every interval.
func NewScheduler(reg *game.Registry, sink OutboundSink, interval time.Duration) *Scheduler {
	return &Scheduler{
		registry: reg,
		sink:     sink,
		interval: interval,
		stopCh:   make(chan struct{}),
		epoch:    time.Now(),
	}
}

// Start runs the tick loop until ctx is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ticker = time.NewTicker(s.interval)
	defer s.ticker.Stop()

	slog.Info("game scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("game scheduler stopping")
			return ctx.Err()
		case <-s.stopCh:
			slog.Info("game scheduler stopped")
			return nil
		case <-s.ticker.C:
			s.tickAll()
		}
	}
}

// Stop ends the tick loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) now() core.Tick {
	return core.Tick(time.Since(s.epoch).Milliseconds())
}

// tickAll drains buffered inbound frames into each game, advances every
// live game by one tick, forwards the combined output, and removes any
// game that asked to be deleted (§5 Cancellation).
func (s *Scheduler) tickAll() {
	now := s.now()
	src, _ := s.sink.(InboundSource)
	for _, g := range s.registry.All() {
		var msgs []game.OutboundMessage

		if src != nil {
			s.dispatchInbound(g, src, now, &msgs)
		}

		tickMsgs, err := g.Tick(now)
		if err != nil {
			slog.Error("game tick failed", "game", g.Handle.String(), "err", err)
			continue
		}
		msgs = append(msgs, tickMsgs...)

		if len(msgs) > 0 && s.sink != nil {
			s.sink.Deliver(g.Handle, msgs)
		}
		if g.DeleteMe() {
			slog.Info("removing finished game", "game", g.Handle.String())
			s.registry.Remove(g.Handle)
		}
	}
}

// dispatchInbound drains g's connections and routes every buffered
// frame, plus every closed connection, into the matching game handler,
// appending the resulting wire output onto msgs.
func (s *Scheduler) dispatchInbound(g *game.Game, src InboundSource, now core.Tick, msgs *[]game.OutboundMessage) {
	batch := src.DrainGame(g.Handle)

	for uid, frames := range batch.Frames {
		for _, f := range frames {
			out, err := g.HandleInbound(uid, f, now)
			if err != nil {
				slog.Warn("inbound frame rejected", "game", g.Handle.String(), "uid", uid, "err", err)
				continue
			}
			*msgs = append(*msgs, out...)
		}
	}
	for _, uid := range batch.Closed {
		out, err := g.HandleDisconnect(uid)
		if err != nil {
			slog.Warn("disconnect handling failed", "game", g.Handle.String(), "uid", uid, "err", err)
			continue
		}
		*msgs = append(*msgs, out...)
	}
}
