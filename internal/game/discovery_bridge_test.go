package game

import "testing"

func TestDiscoveryAnnounceOpensThenTickWaitsForInterval(t *testing.T) {
	g := newTestGame()

	wire, err := g.DiscoveryAnnounce(0)
	if err != nil {
		t.Fatalf("DiscoveryAnnounce: %v", err)
	}
	if len(wire) == 0 {
		t.Fatalf("expected a non-empty CREATEGAME announcement")
	}
	if !g.Discovery.IsOpen() {
		t.Fatalf("expected discovery to be marked open")
	}

	if wire, err := g.DiscoveryTick(100); err != nil || wire != nil {
		t.Fatalf("expected no refresh before the interval elapses, got wire=%v err=%v", wire, err)
	}
}

func TestDiscoveryTickClosesOnceLobbyEnds(t *testing.T) {
	g := newTestGame()
	if _, err := g.DiscoveryAnnounce(0); err != nil {
		t.Fatalf("DiscoveryAnnounce: %v", err)
	}

	g.Phase = PhaseCountingDown

	wire, err := g.DiscoveryTick(1000)
	if err != nil {
		t.Fatalf("DiscoveryTick: %v", err)
	}
	if len(wire) == 0 {
		t.Fatalf("expected a DECREATEGAME withdrawal on the first post-lobby tick")
	}
	if g.Discovery.IsOpen() {
		t.Fatalf("expected discovery to be marked closed")
	}

	wire, err = g.DiscoveryTick(2000)
	if err != nil {
		t.Fatalf("DiscoveryTick: %v", err)
	}
	if wire != nil {
		t.Fatalf("expected DiscoveryClose to be idempotent, got %v", wire)
	}
}
