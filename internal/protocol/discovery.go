package protocol

import "github.com/wc3hostbot/core/internal/core"

// SlotLayoutByte is the melee/custom-forces/fixed-settings byte carried in
// discovery and slot-info packets. 0 = melee, 1 = custom-forces,
// 3 = custom-forces + fixed-player-settings. All other values are invalid.
type SlotLayoutByte uint8

const (
	LayoutMelee                   SlotLayoutByte = 0
	LayoutCustomForces            SlotLayoutByte = 1
	LayoutCustomForcesFixedPlayer SlotLayoutByte = 3
)

// IsValid reports whether b is one of the three defined layout values.
func (b SlotLayoutByte) IsValid() bool {
	return b == LayoutMelee || b == LayoutCustomForces || b == LayoutCustomForcesFixedPlayer
}

// SearchGame is a LAN client's broadcast probe for hosted games.
type SearchGame struct {
	GameVersion uint32
}

func DecodeSearchGame(payload []byte) (SearchGame, error) {
	if len(payload) < 4 {
		return SearchGame{}, &FrameError{Reason: "SEARCHGAME payload too short"}
	}
	v := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
	return SearchGame{GameVersion: v}, nil
}

// GameInfo is the unicast/broadcast reply to SEARCHGAME describing one
// hosted game.
type GameInfo struct {
	GameVersion uint32
	HostCounter core.HostCounter
	EntryKey    core.EntryKey
	GameName    string
	Stat        GameStatInfo
	SlotsTotal  uint32
	Port        uint16
	UpTimeSec   uint32
}

// EncodeGameInfo builds GAMEINFO (0x30).
func EncodeGameInfo(g GameInfo) ([]byte, error) {
	e := NewEncoder(OpGameInfo)
	e.WriteUint32(g.GameVersion)
	e.WriteUint32(uint32(g.HostCounter))
	e.WriteUint32(uint32(g.EntryKey))
	e.WriteCString(g.GameName)
	e.WriteUint8(0) // empty password field, unused by this core
	e.WriteBytes(g.Stat.Encode())
	e.WriteUint32(g.SlotsTotal)
	e.WriteUint32(0) // game type / flags, not modeled further
	e.WriteUint32(g.UpTimeSec)
	e.WriteUint16(g.Port)
	return e.Bytes()
}

// CreateGame announces a newly opened lobby.
type CreateGame struct {
	GameVersion uint32
	HostCounter core.HostCounter
}

func EncodeCreateGame(g CreateGame) ([]byte, error) {
	e := NewEncoder(OpCreateGame)
	e.WriteUint32(g.GameVersion)
	e.WriteUint32(uint32(g.HostCounter))
	return e.Bytes()
}

// RefreshGame is the periodic (5s) lobby heartbeat.
type RefreshGame struct {
	HostCounter core.HostCounter
	Players     uint32
	SlotsTotal  uint32
}

func EncodeRefreshGame(g RefreshGame) ([]byte, error) {
	e := NewEncoder(OpRefreshGame)
	e.WriteUint32(uint32(g.HostCounter))
	e.WriteUint32(g.Players)
	e.WriteUint32(g.SlotsTotal)
	return e.Bytes()
}

// DeCreateGame announces a lobby closing or starting.
type DeCreateGame struct {
	HostCounter core.HostCounter
}

func EncodeDeCreateGame(g DeCreateGame) ([]byte, error) {
	e := NewEncoder(OpDeCreateGame)
	e.WriteUint32(uint32(g.HostCounter))
	return e.Bytes()
}
