package protocol

// Opcode identifies a W3GS message. The wire format is
// [magic 0xF7][opcode 1B][length LE 2B][payload], where length counts the
// whole frame including the 4-byte header.
type Opcode byte

const (
	// Client -> host.
	OpReqJoin           Opcode = 0x1E
	OpLeaveGame         Opcode = 0x21
	OpGameLoadedSelf    Opcode = 0x23
	OpOutgoingAction    Opcode = 0x26
	OpOutgoingKeepAlive Opcode = 0x27
	OpChatToHost        Opcode = 0x28
	OpMapSize           Opcode = 0x42
	OpPongToHost        Opcode = 0x46

	// Host -> client.
	OpSlotInfoJoin      Opcode = 0x04
	OpRejectJoin        Opcode = 0x05
	OpPlayerInfo        Opcode = 0x06
	OpPlayerLeaveOthers Opcode = 0x07
	OpGameLoadedOthers  Opcode = 0x08
	OpSlotInfo          Opcode = 0x09
	OpCountdownStart    Opcode = 0x0A
	OpCountdownEnd      Opcode = 0x0B
	OpIncomingAction    Opcode = 0x0C
	OpChatFromHost      Opcode = 0x0F
	OpStartLag          Opcode = 0x10
	OpStopLag           Opcode = 0x11
	OpPingFromHost      Opcode = 0x01
	OpMapCheck          Opcode = 0x3D
	OpStartDownload     Opcode = 0x3F
	OpMapPart           Opcode = 0x43
	OpMapPartOK         Opcode = 0x44
	OpMapPartErr        Opcode = 0x45
	OpIncomingAction2   Opcode = 0x48

	// UDP LAN discovery, unchanged opcodes shared with the TCP set.
	OpSearchGame   Opcode = 0x2F
	OpGameInfo     Opcode = 0x30
	OpCreateGame   Opcode = 0x31
	OpRefreshGame  Opcode = 0x32
	OpDeCreateGame Opcode = 0x33

	// GProxy reconnection framing reuses the W3GS header with a single
	// dedicated opcode and its own sub-opcode byte (see gproxy.go).
	OpGProxy Opcode = 0x59
)

var knownOpcodes = map[Opcode]struct{}{
	OpReqJoin: {}, OpLeaveGame: {}, OpGameLoadedSelf: {}, OpOutgoingAction: {},
	OpOutgoingKeepAlive: {}, OpChatToHost: {}, OpMapSize: {}, OpPongToHost: {},
	OpSlotInfoJoin: {}, OpRejectJoin: {}, OpPlayerInfo: {}, OpPlayerLeaveOthers: {},
	OpGameLoadedOthers: {}, OpSlotInfo: {}, OpCountdownStart: {}, OpCountdownEnd: {},
	OpIncomingAction: {}, OpChatFromHost: {}, OpStartLag: {}, OpStopLag: {},
	OpPingFromHost: {}, OpMapCheck: {}, OpStartDownload: {}, OpMapPart: {},
	OpMapPartOK: {}, OpMapPartErr: {}, OpIncomingAction2: {},
	OpSearchGame: {}, OpGameInfo: {}, OpCreateGame: {}, OpRefreshGame: {}, OpDeCreateGame: {},
	OpGProxy: {},
}

func isKnownOpcode(op Opcode) bool {
	_, ok := knownOpcodes[op]
	return ok
}
