// Package discovery implements the LAN/UDP game-announcement publisher
// (§4.8): CREATEGAME/REFRESHGAME/DECREATEGAME broadcasts and GAMEINFO
// replies to SEARCHGAME, plus unicast replication to extra-discovery
// peers. The actual socket send/receive loop lives in internal/netio;
// this package only decides what to send and when, so it is testable
// without a live UDP socket.
package discovery

import (
	"net"
	"time"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// RefreshInterval is the REFRESHGAME cadence while the lobby is open.
const RefreshInterval = 5 * time.Second

// GameSnapshot is the subset of Game state the publisher needs to build
// GAMEINFO/REFRESHGAME, read fresh at send time.
type GameSnapshot struct {
	GameVersion uint32
	HostCounter core.HostCounter
	EntryKey    core.EntryKey
	GameName    string
	Stat        protocol.GameStatInfo
	SlotsTotal  uint32
	Players     uint32
	Port        uint16
	UpTimeSec   uint32
}

// Publisher tracks one game's discovery announcements.
type Publisher struct {
	extraAddrs   []net.Addr
	open         bool
	lastRefresh  core.Tick
	hasRefreshed bool
}

// New builds a publisher with a fixed list of extra-discovery unicast
// peers (remote, non-LAN listeners configured by the operator).
func New(extraAddrs []net.Addr) *Publisher {
	return &Publisher{extraAddrs: extraAddrs}
}

// ExtraAddrs returns the configured unicast replication targets.
func (p *Publisher) ExtraAddrs() []net.Addr {
	return p.extraAddrs
}

// Open marks the lobby open and returns the CREATEGAME announcement to
// broadcast.
func (p *Publisher) Open(snap GameSnapshot, now core.Tick) ([]byte, error) {
	p.open = true
	p.lastRefresh = now
	p.hasRefreshed = true
	return protocol.EncodeCreateGame(protocol.CreateGame{
		GameVersion: snap.GameVersion,
		HostCounter: snap.HostCounter,
	})
}

// Tick returns a REFRESHGAME broadcast when RefreshInterval has elapsed
// since the last one, or nil otherwise.
func (p *Publisher) Tick(snap GameSnapshot, now core.Tick) ([]byte, error) {
	if !p.open {
		return nil, nil
	}
	if p.hasRefreshed && now.Since(p.lastRefresh) < int64(RefreshInterval/time.Millisecond) {
		return nil, nil
	}
	p.lastRefresh = now
	p.hasRefreshed = true
	return protocol.EncodeRefreshGame(protocol.RefreshGame{
		HostCounter: snap.HostCounter,
		Players:     snap.Players,
		SlotsTotal:  snap.SlotsTotal,
	})
}

// HandleSearchGame builds the GAMEINFO reply to a SEARCHGAME probe, or
// reports no match when the probing client's game version differs.
func (p *Publisher) HandleSearchGame(snap GameSnapshot, search protocol.SearchGame) ([]byte, bool, error) {
	if !p.open || search.GameVersion != snap.GameVersion {
		return nil, false, nil
	}
	wire, err := protocol.EncodeGameInfo(protocol.GameInfo{
		GameVersion: snap.GameVersion,
		HostCounter: snap.HostCounter,
		EntryKey:    snap.EntryKey,
		GameName:    snap.GameName,
		Stat:        snap.Stat,
		SlotsTotal:  snap.SlotsTotal,
		Port:        snap.Port,
		UpTimeSec:   snap.UpTimeSec,
	})
	if err != nil {
		return nil, false, err
	}
	return wire, true, nil
}

// Close marks the lobby closed (either it closed, or the game started)
// and returns the DECREATEGAME announcement.
func (p *Publisher) Close(snap GameSnapshot) ([]byte, error) {
	p.open = false
	return protocol.EncodeDeCreateGame(protocol.DeCreateGame{HostCounter: snap.HostCounter})
}

// IsOpen reports whether the publisher currently considers the lobby
// open for discovery.
func (p *Publisher) IsOpen() bool {
	return p.open
}
