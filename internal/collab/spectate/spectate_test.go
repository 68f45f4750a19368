package spectate

import (
	"testing"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/slot"
)

func newTestGame() *game.Game {
	m := game.Map{
		Path:           "Maps\\Download\\test.w3x",
		Data:           make([]byte, 4000),
		CRC32:          0xdeadbeef,
		BlizzHash:      0xcafef00d,
		Layout:         slot.Layout{ModernVersion: true, NumTeams: 2},
		MinGameVersion: 110,
	}
	cfg := game.DefaultConfig()
	return game.New(1, 0xC0FFEE, m, cfg, "host", "", 0)
}

func TestServerRegistryRejectsUnknownGameHandle(t *testing.T) {
	reg := game.NewRegistry()
	s := NewServer(reg)
	if _, err := s.registry.Resolve(core.NewGameHandle()); err == nil {
		t.Fatalf("expected resolving an unregistered handle to fail")
	}
}

func TestCursorNextReturnsOnlyNewFramesAndAdvances(t *testing.T) {
	g := newTestGame()
	g.History.AppendFrame([]byte("frame-1"))
	g.History.AppendFrame([]byte("frame-2"))

	var c Cursor
	first := c.Next(g)
	if len(first) != 2 {
		t.Fatalf("expected 2 frames on first poll, got %d", len(first))
	}

	g.History.AppendFrame([]byte("frame-3"))
	second := c.Next(g)
	if len(second) != 1 || string(second[0]) != "frame-3" {
		t.Fatalf("expected only the new frame on second poll, got %v", second)
	}

	if third := c.Next(g); len(third) != 0 {
		t.Fatalf("expected no frames when nothing new has been appended, got %v", third)
	}
}

func TestServerResolvesRegisteredGame(t *testing.T) {
	reg := game.NewRegistry()
	g := newTestGame()
	reg.Add(g)
	s := NewServer(reg)

	resolved, err := s.registry.Resolve(g.Handle)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != g {
		t.Fatalf("expected to resolve the same game instance")
	}
}
