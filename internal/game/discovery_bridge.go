package game

import (
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// Discovery UDP announcements are broadcast/unicast datagrams, not the
// per-connection TCP OutboundMessages Tick returns, so the bot layer's
// discovery dispatcher calls these directly on its own ticker instead
// of finding them folded into Tick's return value.

func (g *Game) upTimeSec(now core.Tick) uint32 {
	elapsed := now.Since(g.createdAt)
	if elapsed < 0 {
		return 0
	}
	return uint32(elapsed / 1000)
}

// DiscoveryAnnounce returns the CREATEGAME broadcast opening this game's
// lobby to LAN discovery (§4.8). The bot layer calls this once right
// after registering a newly hosted game.
func (g *Game) DiscoveryAnnounce(now core.Tick) ([]byte, error) {
	return g.Discovery.Open(g.snapshot(g.upTimeSec(now)), now)
}

// DiscoveryTick returns a REFRESHGAME broadcast when the publisher's
// refresh interval has elapsed while the lobby is open. Once the lobby
// has left Phase Lobby (countdown started, or the owner unhosted), it
// instead returns the one-time DECREATEGAME withdrawal via
// DiscoveryClose, which is idempotent: it returns nil on every call
// after the first.
func (g *Game) DiscoveryTick(now core.Tick) ([]byte, error) {
	if g.Phase != PhaseLobby {
		return g.DiscoveryClose()
	}
	return g.Discovery.Tick(g.snapshot(g.upTimeSec(now)), now)
}

// DiscoveryClose returns the DECREATEGAME broadcast withdrawing the game
// from LAN discovery, or nil if it is not open (never opened, or
// already closed).
func (g *Game) DiscoveryClose() ([]byte, error) {
	if !g.Discovery.IsOpen() {
		return nil, nil
	}
	return g.Discovery.Close(g.snapshot(0))
}

// DiscoverySearch answers a SEARCHGAME probe with a GAMEINFO reply, or
// reports no match (different game version, or lobby already closed).
func (g *Game) DiscoverySearch(now core.Tick, search protocol.SearchGame) ([]byte, bool, error) {
	return g.Discovery.HandleSearchGame(g.snapshot(g.upTimeSec(now)), search)
}
