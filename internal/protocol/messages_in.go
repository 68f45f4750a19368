package protocol

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol/packet"
)

// ReqJoin is the client's join request (opcode 0x1E).
type ReqJoin struct {
	HostCounter core.HostCounter
	EntryKey    core.EntryKey
	Name        string
	InternalIP  [4]byte
}

// DecodeReqJoin parses a REQJOIN payload.
func DecodeReqJoin(payload []byte) (ReqJoin, error) {
	r := packet.NewReader(payload)
	hc, err := r.ReadUint32()
	if err != nil {
		return ReqJoin{}, fmt.Errorf("decode REQJOIN: %w", err)
	}
	ek, err := r.ReadUint32()
	if err != nil {
		return ReqJoin{}, fmt.Errorf("decode REQJOIN: %w", err)
	}
	name, err := r.ReadCString()
	if err != nil {
		return ReqJoin{}, fmt.Errorf("decode REQJOIN: %w", err)
	}
	ip, err := r.ReadBytes(4)
	if err != nil {
		return ReqJoin{}, fmt.Errorf("decode REQJOIN: %w", err)
	}
	var out ReqJoin
	out.HostCounter = core.HostCounter(hc)
	out.EntryKey = core.EntryKey(ek)
	out.Name = name
	copy(out.InternalIP[:], ip)
	return out, nil
}

// LeaveGame is a client's graceful departure (opcode 0x21).
type LeaveGame struct {
	Reason uint32
}

func DecodeLeaveGame(payload []byte) (LeaveGame, error) {
	r := packet.NewReader(payload)
	reason, err := r.ReadUint32()
	if err != nil {
		return LeaveGame{}, fmt.Errorf("decode LEAVEGAME: %w", err)
	}
	return LeaveGame{Reason: reason}, nil
}

// GameLoadedSelf carries no payload: the client has finished loading
// (opcode 0x23).
type GameLoadedSelf struct{}

func DecodeGameLoadedSelf(payload []byte) (GameLoadedSelf, error) {
	return GameLoadedSelf{}, nil
}

// OutgoingAction is one opaque action payload from a client (opcode 0x26).
// CRC is the 16-bit checksum the client computed over Data; the action
// engine does not trust it (it recomputes its own frame checksums) but
// the field is kept for protocol symmetry with the wire format.
type OutgoingAction struct {
	CRC  uint16
	Data []byte
}

func DecodeOutgoingAction(payload []byte) (OutgoingAction, error) {
	r := packet.NewReader(payload)
	crc, err := r.ReadUint16()
	if err != nil {
		return OutgoingAction{}, fmt.Errorf("decode OUTGOING_ACTION: %w", err)
	}
	data := r.ReadRemaining()
	return OutgoingAction{CRC: crc, Data: append([]byte(nil), data...)}, nil
}

// OutgoingKeepAlive carries a 32-bit checksum over the client's current
// game-state frame, used both for sync tracking and desync detection
// (opcode 0x27).
type OutgoingKeepAlive struct {
	Checksum uint32
}

func DecodeOutgoingKeepAlive(payload []byte) (OutgoingKeepAlive, error) {
	r := packet.NewReader(payload)
	cs, err := r.ReadUint32()
	if err != nil {
		return OutgoingKeepAlive{}, fmt.Errorf("decode OUTGOING_KEEPALIVE: %w", err)
	}
	return OutgoingKeepAlive{Checksum: cs}, nil
}

// ChatToHost message sub-types. W3GS overloads this single opcode for
// in-lobby/in-game chat and for a user's own team/color/race/handicap
// change requests.
const (
	ChatTypeMessage    uint8 = 0x10
	ChatTypeTeamChange uint8 = 0x11
	ChatTypeColorChange uint8 = 0x12
	ChatTypeRaceChange uint8 = 0x13
	ChatTypeHandicapChange uint8 = 0x14
)

// ChatToHost is an in-lobby/in-game chat message, or a slot-change
// request piggybacked on the same opcode (opcode 0x28).
type ChatToHost struct {
	ToUIDs  []core.UID
	FromUID core.UID
	Type    uint8
	Message string // valid when Type == ChatTypeMessage
	Value   uint8  // valid otherwise: new team/color/race/handicap
}

func DecodeChatToHost(payload []byte) (ChatToHost, error) {
	r := packet.NewReader(payload)
	count, err := r.ReadUint8()
	if err != nil {
		return ChatToHost{}, fmt.Errorf("decode CHAT_TO_HOST: %w", err)
	}
	to := make([]core.UID, 0, count)
	for i := uint8(0); i < count; i++ {
		uid, err := r.ReadUint8()
		if err != nil {
			return ChatToHost{}, fmt.Errorf("decode CHAT_TO_HOST: %w", err)
		}
		to = append(to, core.UID(uid))
	}
	from, err := r.ReadUint8()
	if err != nil {
		return ChatToHost{}, fmt.Errorf("decode CHAT_TO_HOST: %w", err)
	}
	typ, err := r.ReadUint8()
	if err != nil {
		return ChatToHost{}, fmt.Errorf("decode CHAT_TO_HOST: %w", err)
	}
	out := ChatToHost{ToUIDs: to, FromUID: core.UID(from), Type: typ}
	if typ == ChatTypeMessage {
		msg, err := r.ReadCString()
		if err != nil {
			return ChatToHost{}, fmt.Errorf("decode CHAT_TO_HOST: %w", err)
		}
		out.Message = msg
	} else {
		v, err := r.ReadUint8()
		if err != nil {
			return ChatToHost{}, fmt.Errorf("decode CHAT_TO_HOST: %w", err)
		}
		out.Value = v
	}
	return out, nil
}

// MapSize flags.
const (
	MapSizeFlagOK       uint8 = 1
	MapSizeFlagContinue uint8 = 3
)

// MapSize reports the client's local map file status (opcode 0x42).
type MapSize struct {
	Flag uint8
	Size uint32
}

func DecodeMapSize(payload []byte) (MapSize, error) {
	r := packet.NewReader(payload)
	flag, err := r.ReadUint8()
	if err != nil {
		return MapSize{}, fmt.Errorf("decode MAPSIZE: %w", err)
	}
	size, err := r.ReadUint32()
	if err != nil {
		return MapSize{}, fmt.Errorf("decode MAPSIZE: %w", err)
	}
	return MapSize{Flag: flag, Size: size}, nil
}

// PongToHost is the client's reply to a PING_FROM_HOST, echoing the ping
// tag so the host can compute a round-trip sample (opcode 0x46).
type PongToHost struct {
	Tag uint32
}

func DecodePongToHost(payload []byte) (PongToHost, error) {
	r := packet.NewReader(payload)
	tag, err := r.ReadUint32()
	if err != nil {
		return PongToHost{}, fmt.Errorf("decode PONG_TO_HOST: %w", err)
	}
	return PongToHost{Tag: tag}, nil
}

// MapPartOK is the client's acknowledgement of a received MAPPART chunk.
type MapPartOK struct {
	Offset uint32
}

func DecodeMapPartOK(payload []byte) (MapPartOK, error) {
	r := packet.NewReader(payload)
	off, err := r.ReadUint32()
	if err != nil {
		return MapPartOK{}, fmt.Errorf("decode MAPPART_OK: %w", err)
	}
	return MapPartOK{Offset: off}, nil
}

// MapPartErr asks the host to resend from the client's last good offset.
type MapPartErr struct{}

func DecodeMapPartErr(payload []byte) (MapPartErr, error) {
	return MapPartErr{}, nil
}
