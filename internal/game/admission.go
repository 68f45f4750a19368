package game

import (
	"net"

	"github.com/wc3hostbot/core/internal/conn"
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
	"github.com/wc3hostbot/core/internal/slot"
)

// HasName implements conn.LobbyView.
func (g *Game) HasName(name string) bool {
	for _, u := range g.Users {
		if u.Name == name {
			return true
		}
	}
	return false
}

// CountFromIP implements conn.LobbyView.
func (g *Game) CountFromIP(ip net.IP) int {
	count := 0
	for _, u := range g.Users {
		if net.IP(u.ExternalIP[:]).Equal(ip) {
			count++
		}
	}
	return count
}

// IsFull implements conn.LobbyView.
func (g *Game) IsFull() bool {
	for _, s := range g.Slots.Slots() {
		if s.Status == slot.Open {
			return false
		}
	}
	return true
}

// IsOpen implements conn.LobbyView: joins are only accepted in Lobby.
func (g *Game) IsOpen() bool {
	return g.Phase == PhaseLobby
}

// IsBanned implements conn.LobbyView. The core carries no ban list of
// its own; a collaborator enforces bans and would reject the connection
// before REQJOIN ever reaches the game, so this always returns false.
func (g *Game) IsBanned(name string, ip net.IP) bool {
	return false
}

// firstFreeColor picks the lowest color not already held by an occupied,
// non-observer slot, defaulting new joiners to a collision-free seat.
func (g *Game) firstFreeColor() uint8 {
	taken := make(map[uint8]bool)
	for _, s := range g.Slots.Slots() {
		if s.Status == slot.Occupied && !s.IsObserver() {
			taken[s.Color] = true
		}
	}
	for c := uint8(0); c < uint8(len(g.Slots.Slots())); c++ {
		if !taken[c] {
			return c
		}
	}
	return 0
}

// JoinResult is what the caller (the connection's read loop) must send
// back in response to a REQJOIN.
type JoinResult struct {
	Accepted bool
	UID      core.UID
	Messages []OutboundMessage
}

// Join runs the full REQJOIN admission pipeline (§4.2): policy check,
// slot assignment, and the SLOTINFOJOIN/PLAYERINFO/MAPCHECK sequence.
func (g *Game) Join(req protocol.ReqJoin, remoteIP net.IP, externalIP [4]byte, externalPort uint16, clientVersionOK bool, policy conn.Policy) (JoinResult, error) {
	decision := conn.Admit(req, remoteIP, g.HostCounter, g.EntryKey, clientVersionOK, g, policy)
	if !decision.Allow {
		wire, err := protocol.EncodeRejectJoin(decision.Reason)
		if err != nil {
			return JoinResult{}, err
		}
		return JoinResult{Accepted: false, Messages: []OutboundMessage{broadcast(wire)}}, nil
	}

	idx, uid, err := g.Slots.Join(decision.SanitizedName, 0, g.firstFreeColor(), slot.RaceRandom|slot.RaceSelectable)
	if err != nil {
		wire, encErr := protocol.EncodeRejectJoin(protocol.RejectGameFull)
		if encErr != nil {
			return JoinResult{}, encErr
		}
		return JoinResult{Accepted: false, Messages: []OutboundMessage{broadcast(wire)}}, nil
	}

	u := &User{
		UID:         uid,
		Name:        decision.SanitizedName,
		SlotIndex:   idx,
		JoinCounter: uint32(req.HostCounter),
		ExternalIP:  externalIP,
		InternalIP:  req.InternalIP,
		GameVersion: 0,
	}
	g.Users[uid] = u
	g.Lag.Register(uid)

	var msgs []OutboundMessage

	// SLOTINFOJOIN carries the full current layout to the new joiner
	// directly; the table's dirty flag stays set so the next Tick still
	// broadcasts an ordinary SLOTINFO telling every existing peer about
	// this join (§4.2).
	slotInfoJoin, err := protocol.EncodeSlotInfoJoin(toSlotWire(g.Slots.Slots()), 0, g.Map.Layout.ByteValue(), uid, externalIP, externalPort)
	if err != nil {
		return JoinResult{}, err
	}
	msgs = append(msgs, unicast(uid, slotInfoJoin))

	for peerUID, peer := range g.Users {
		if peerUID == uid {
			continue
		}
		toNew, err := protocol.EncodePlayerInfo(peer.JoinCounter, peer.UID, peer.Name, peer.ExternalIP, peer.InternalIP)
		if err != nil {
			return JoinResult{}, err
		}
		msgs = append(msgs, unicast(uid, toNew))

		toPeer, err := protocol.EncodePlayerInfo(u.JoinCounter, u.UID, u.Name, u.ExternalIP, u.InternalIP)
		if err != nil {
			return JoinResult{}, err
		}
		msgs = append(msgs, unicast(peerUID, toPeer))
	}

	mapCheck, err := protocol.EncodeMapCheck(protocol.MapCheck{
		Path:      g.Map.Path,
		Size:      uint32(len(g.Map.Data)),
		CRC32:     g.Map.CRC32,
		BlizzHash: g.Map.BlizzHash,
		ScriptsSHA1: func() []byte {
			if g.Map.MinGameVersion >= 123 {
				return g.Map.ScriptsSHA1[:]
			}
			return nil
		}(),
	})
	if err != nil {
		return JoinResult{}, err
	}
	msgs = append(msgs, unicast(uid, mapCheck))

	return JoinResult{Accepted: true, UID: uid, Messages: msgs}, nil
}
