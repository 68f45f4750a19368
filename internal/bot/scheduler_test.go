package bot

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/slot"
)

type recordingSink struct {
	delivered int
}

func (s *recordingSink) Deliver(handle core.GameHandle, msgs []game.OutboundMessage) {
	s.delivered += len(msgs)
}

func testMap() game.Map {
	return game.Map{
		Path:   "Maps\\Download\\test.w3x",
		Data:   make([]byte, 100),
		Layout: slot.Layout{ModernVersion: true, NumTeams: 2},
	}
}

func TestSchedulerTicksRegisteredGames(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		reg := game.NewRegistry()
		sink := &recordingSink{}
		host := NewHost(reg, sink)
		g := host.HostGame(1, 0xC0FFEE, testMap(), game.DefaultConfig(), "creator", "", 0)
		g.Config.LobbyTimeoutMS = 50

		sched := NewScheduler(reg, sink, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Start(ctx)
		}()

		time.Sleep(150 * time.Millisecond)
		cancel()

		if err := <-done; err != context.Canceled && err != context.DeadlineExceeded {
			t.Fatalf("Start() error = %v", err)
		}

		if _, err := reg.Resolve(g.Handle); err == nil {
			t.Fatalf("expected the timed-out lobby to have been removed from the registry")
		}
	})
}

func TestHostStartRejectsUnknownGame(t *testing.T) {
	reg := game.NewRegistry()
	host := NewHost(reg, nil)
	if err := host.Start(core.GameHandle{}, 0, true); err == nil {
		t.Fatalf("expected an error resolving an unregistered game handle")
	}
}
