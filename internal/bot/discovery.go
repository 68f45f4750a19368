package bot

import (
	"log/slog"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/netio"
	"github.com/wc3hostbot/core/internal/protocol"
)

// DiscoveryDispatcher drives every registered game's LAN/UDP discovery
// announcements (§4.8) over a shared socket: it answers SEARCHGAME
// probes, and its Tick emits each game's REFRESHGAME/DECREATEGAME
// broadcasts. cmd/hostbot drives both from its own one-second ticker,
// separate from the game Scheduler.
type DiscoveryDispatcher struct {
	registry *game.Registry
	sock     *netio.UDPSocket
	port     int
}

// NewDiscoveryDispatcher builds a dispatcher over sock, broadcasting on
// the LAN broadcast address at port.
func NewDiscoveryDispatcher(reg *game.Registry, sock *netio.UDPSocket, port int) *DiscoveryDispatcher {
	return &DiscoveryDispatcher{registry: reg, sock: sock, port: port}
}

// PollIncoming drains SEARCHGAME probes received since the last call
// and answers each with every matching registered game's GAMEINFO, sent
// back only to the address the probe came from.
func (d *DiscoveryDispatcher) PollIncoming(now core.Tick) {
	for _, pkt := range d.sock.Drain() {
		frame, _, err := protocol.DecodeFrame(pkt.Data)
		if err != nil || frame.Opcode != protocol.OpSearchGame {
			continue
		}
		search, err := protocol.DecodeSearchGame(frame.Payload)
		if err != nil {
			continue
		}
		for _, g := range d.registry.All() {
			wire, matched, err := g.DiscoverySearch(now, search)
			if err != nil || !matched {
				continue
			}
			if _, err := d.sock.WriteTo(wire, pkt.From); err != nil {
				slog.Warn("discovery: reply to SEARCHGAME failed", "game", g.Handle.String(), "err", err)
			}
		}
	}
}

// Tick emits every registered game's due discovery broadcast (the
// REFRESHGAME cadence, or the one-time DECREATEGAME once a lobby
// closes), broadcasting it on the LAN and unicasting it to each game's
// configured extra-discovery peers.
func (d *DiscoveryDispatcher) Tick(now core.Tick) {
	for _, g := range d.registry.All() {
		wire, err := g.DiscoveryTick(now)
		if err != nil {
			slog.Error("discovery tick failed", "game", g.Handle.String(), "err", err)
			continue
		}
		if wire == nil {
			continue
		}
		d.send(g, wire)
	}
}

// Announce emits the initial CREATEGAME broadcast for a freshly hosted
// game. Call once right after registering it.
func (d *DiscoveryDispatcher) Announce(g *game.Game, now core.Tick) {
	wire, err := g.DiscoveryAnnounce(now)
	if err != nil {
		slog.Error("discovery announce failed", "game", g.Handle.String(), "err", err)
		return
	}
	d.send(g, wire)
}

func (d *DiscoveryDispatcher) send(g *game.Game, wire []byte) {
	if _, err := d.sock.WriteToBroadcast(wire, d.port); err != nil {
		slog.Warn("discovery: LAN broadcast failed", "game", g.Handle.String(), "err", err)
	}
	for _, addr := range g.Discovery.ExtraAddrs() {
		if _, err := d.sock.WriteTo(wire, addr); err != nil {
			slog.Warn("discovery: extra-peer unicast failed", "game", g.Handle.String(), "peer", addr.String(), "err", err)
		}
	}
}
