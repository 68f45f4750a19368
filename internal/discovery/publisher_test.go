package discovery

import (
	"testing"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

func snap() GameSnapshot {
	return GameSnapshot{
		GameVersion: 30,
		HostCounter: core.HostCounter(1),
		EntryKey:    core.EntryKey(0x1234),
		GameName:    "Test Game",
		SlotsTotal:  12,
		Players:     2,
		Port:        6112,
	}
}

func TestOpenEmitsCreateGame(t *testing.T) {
	p := New(nil)
	wire, err := p.Open(snap(), core.Tick(0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	frame, _, err := protocol.DecodeFrame(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Opcode != protocol.OpCreateGame {
		t.Fatalf("expected OpCreateGame, got 0x%02X", frame.Opcode)
	}
	if !p.IsOpen() {
		t.Fatal("expected publisher to report open")
	}
}

func TestTickDoesNotRefreshBeforeInterval(t *testing.T) {
	p := New(nil)
	p.Open(snap(), core.Tick(0))
	wire, err := p.Tick(snap(), core.Tick(1000))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if wire != nil {
		t.Fatal("expected no refresh before the 5s interval elapses")
	}
}

func TestTickRefreshesAfterInterval(t *testing.T) {
	p := New(nil)
	p.Open(snap(), core.Tick(0))
	wire, err := p.Tick(snap(), core.Tick(5000))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if wire == nil {
		t.Fatal("expected a REFRESHGAME once the interval elapses")
	}
	frame, _, err := protocol.DecodeFrame(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Opcode != protocol.OpRefreshGame {
		t.Fatalf("expected OpRefreshGame, got 0x%02X", frame.Opcode)
	}
}

func TestHandleSearchGameMatchesVersion(t *testing.T) {
	p := New(nil)
	p.Open(snap(), core.Tick(0))
	wire, matched, err := p.HandleSearchGame(snap(), protocol.SearchGame{GameVersion: 30})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !matched || wire == nil {
		t.Fatal("expected a GAMEINFO match for the same game version")
	}
}

func TestHandleSearchGameRejectsVersionMismatch(t *testing.T) {
	p := New(nil)
	p.Open(snap(), core.Tick(0))
	_, matched, err := p.HandleSearchGame(snap(), protocol.SearchGame{GameVersion: 99})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if matched {
		t.Fatal("expected no match for a differing game version")
	}
}

func TestCloseEmitsDeCreateGameAndClosesPublisher(t *testing.T) {
	p := New(nil)
	p.Open(snap(), core.Tick(0))
	wire, err := p.Close(snap())
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	frame, _, err := protocol.DecodeFrame(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Opcode != protocol.OpDeCreateGame {
		t.Fatalf("expected OpDeCreateGame, got 0x%02X", frame.Opcode)
	}
	if p.IsOpen() {
		t.Fatal("expected publisher closed")
	}
	if wire2, matched, _ := p.HandleSearchGame(snap(), protocol.SearchGame{GameVersion: 30}); matched || wire2 != nil {
		t.Fatal("a closed publisher must not reply to SEARCHGAME")
	}
}
