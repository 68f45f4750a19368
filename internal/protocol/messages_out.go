package protocol

import (
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol/packet"
)

// EncodeSlotInfoJoin builds SLOTINFOJOIN (0x04): the full current slot
// array plus the newly assigned uid and the host's external IP, sent once
// on join admission.
func EncodeSlotInfoJoin(slots []SlotWire, randomSeed uint32, layout uint8, uid core.UID, externalIP [4]byte, externalPort uint16) ([]byte, error) {
	e := NewEncoder(OpSlotInfoJoin)
	// slot-info sub-block: length-prefixed like SLOTINFO.
	slotInfo := encodeSlotInfoBody(slots, randomSeed, layout)
	e.WriteUint16(uint16(len(slotInfo)))
	e.WriteBytes(slotInfo)
	e.WriteUint8(uint8(uid))
	e.WriteUint16(2) // address family, AF_INET
	e.WriteUint16(externalPort)
	e.WriteBytes(externalIP[:])
	e.WriteUint32(0) // padding, matches W3GS SOCKADDR tail
	return e.Bytes()
}

func encodeSlotInfoBody(slots []SlotWire, randomSeed uint32, layout uint8) []byte {
	w := newBodyWriter()
	w.WriteUint8(uint8(len(slots)))
	for _, s := range slots {
		s.encode(w)
	}
	w.WriteUint32(randomSeed)
	w.WriteUint8(layout)
	w.WriteUint8(uint8(len(slots)))
	return w.Bytes()
}

// AdmissionRejectReason enumerates REJECTJOIN codes (§7 AdmissionError).
type AdmissionRejectReason uint32

const (
	RejectGameFull            AdmissionRejectReason = 9
	RejectWrongGameVersion    AdmissionRejectReason = 10
	RejectLobbyClosed         AdmissionRejectReason = 11
	RejectWrongHostCounter    AdmissionRejectReason = 12
	RejectWrongEntryKey       AdmissionRejectReason = 27
	RejectNameTaken           AdmissionRejectReason = 28
	RejectBanned              AdmissionRejectReason = 29
	RejectUIDMismatch         AdmissionRejectReason = 30
	// RejectIPFlood is not a standard W3GS wire code; the reference
	// protocol has no dedicated reason for this case, so it reuses
	// RejectGameFull's value 9 and compares equal to RejectGameFull.
	RejectIPFlood AdmissionRejectReason = 9
)

// EncodeRejectJoin builds REJECTJOIN (0x05).
func EncodeRejectJoin(reason AdmissionRejectReason) ([]byte, error) {
	e := NewEncoder(OpRejectJoin)
	e.WriteUint32(uint32(reason))
	return e.Bytes()
}

// EncodePlayerInfo builds PLAYERINFO (0x06), describing one peer.
func EncodePlayerInfo(joinCounter uint32, uid core.UID, name string, externalIP [4]byte, internalIP [4]byte) ([]byte, error) {
	e := NewEncoder(OpPlayerInfo)
	e.WriteUint32(joinCounter)
	e.WriteUint8(uint8(uid))
	e.WriteCString(name)
	e.WriteUint16(2)
	e.WriteUint16(0)
	e.WriteBytes(externalIP[:])
	e.WriteUint32(0)
	e.WriteUint16(2)
	e.WriteUint16(0)
	e.WriteBytes(internalIP[:])
	e.WriteUint32(0)
	return e.Bytes()
}

// EncodePlayerLeaveOthers builds PLAYERLEAVE_OTHERS (0x07).
func EncodePlayerLeaveOthers(uid core.UID, reason uint32) ([]byte, error) {
	e := NewEncoder(OpPlayerLeaveOthers)
	e.WriteUint8(uint8(uid))
	e.WriteUint32(reason)
	return e.Bytes()
}

// EncodeGameLoadedOthers builds GAMELOADED_OTHERS (0x08), announcing that
// uid has finished loading.
func EncodeGameLoadedOthers(uid core.UID) ([]byte, error) {
	e := NewEncoder(OpGameLoadedOthers)
	e.WriteUint8(uint8(uid))
	return e.Bytes()
}

// EncodeSlotInfo builds SLOTINFO (0x09): the coalesced slot broadcast.
func EncodeSlotInfo(slots []SlotWire, randomSeed uint32, layout uint8) ([]byte, error) {
	e := NewEncoder(OpSlotInfo)
	body := encodeSlotInfoBody(slots, randomSeed, layout)
	e.WriteUint16(uint16(len(body)))
	e.WriteBytes(body)
	return e.Bytes()
}

// EncodeCountdownStart builds COUNTDOWN_START (0x0A), no payload.
func EncodeCountdownStart() ([]byte, error) {
	return NewEncoder(OpCountdownStart).Bytes()
}

// EncodeCountdownEnd builds COUNTDOWN_END (0x0B), no payload.
func EncodeCountdownEnd() ([]byte, error) {
	return NewEncoder(OpCountdownEnd).Bytes()
}

// ActionSubPacket is one (uid, action bytes) sub-frame ready to serialize.
type ActionSubPacket struct {
	UID  core.UID
	Data []byte
}

// EncodeIncomingAction2 builds an INCOMING_ACTION2 (0x48) overflow
// sub-packet: carries actions but no latency-to-next-frame value.
func EncodeIncomingAction2(subs []ActionSubPacket) ([]byte, error) {
	e := NewEncoder(OpIncomingAction2)
	body := encodeActionBody(subs)
	e.WriteUint16(crc16(body))
	e.WriteBytes(body)
	return e.Bytes()
}

// EncodeIncomingAction builds the terminal INCOMING_ACTION (0x0C)
// sub-packet for a frame, announcing latency until the next frame.
func EncodeIncomingAction(subs []ActionSubPacket, latencyMS uint16) ([]byte, error) {
	e := NewEncoder(OpIncomingAction)
	body := encodeActionBody(subs)
	e.WriteUint16(crc16(body))
	e.WriteUint16(latencyMS)
	e.WriteBytes(body)
	return e.Bytes()
}

func encodeActionBody(subs []ActionSubPacket) []byte {
	w := newBodyWriter()
	for _, s := range subs {
		w.WriteUint8(uint8(s.UID))
		w.WriteUint16(uint16(len(s.Data)))
		w.WriteBytes(s.Data)
	}
	return w.Bytes()
}

// EncodeChatFromHost builds CHAT_FROM_HOST (0x0F).
func EncodeChatFromHost(toUIDs []core.UID, fromUID core.UID, flags uint8, message string) ([]byte, error) {
	e := NewEncoder(OpChatFromHost)
	e.WriteUint8(uint8(len(toUIDs)))
	for _, u := range toUIDs {
		e.WriteUint8(uint8(u))
	}
	e.WriteUint8(uint8(fromUID))
	e.WriteUint8(flags)
	e.WriteCString(message)
	return e.Bytes()
}

// EncodeStartLag builds START_LAG (0x10) for the given lagging uids: a
// count byte followed by one byte per uid, with no per-uid lag value.
func EncodeStartLag(uids []core.UID) ([]byte, error) {
	e := NewEncoder(OpStartLag)
	e.WriteUint8(uint8(len(uids)))
	for _, u := range uids {
		e.WriteUint8(uint8(u))
	}
	return e.Bytes()
}

// EncodeStopLag builds STOP_LAG (0x11) for one user who caught back up.
func EncodeStopLag(uid core.UID, durationMS uint32) ([]byte, error) {
	e := NewEncoder(OpStopLag)
	e.WriteUint8(uint8(uid))
	e.WriteUint32(durationMS)
	return e.Bytes()
}

// EncodePingFromHost builds PING_FROM_HOST (0x01), the RTT probe.
func EncodePingFromHost(tag uint32) ([]byte, error) {
	e := NewEncoder(OpPingFromHost)
	e.WriteUint32(tag)
	return e.Bytes()
}

// MapCheck carries the hashes the client must validate against its local
// map file. ScriptsHash/full is only populated for game version 1.23+.
type MapCheck struct {
	Path       string
	Size       uint32
	CRC32      uint32
	BlizzHash  uint32
	ScriptsSHA1 []byte // 20 bytes, nil for version < 1.23
}

// EncodeMapCheck builds MAPCHECK (0x3D) per §6: pre-1.23 sends CRC32 +
// blizz-hash only; 1.23+ appends the 20-byte SHA-1 of the map scripts.
func EncodeMapCheck(m MapCheck) ([]byte, error) {
	e := NewEncoder(OpMapCheck)
	e.WriteUint32(1) // file type flag, always "map"
	e.WriteCString(m.Path)
	e.WriteUint32(m.Size)
	e.WriteUint32(m.CRC32)
	e.WriteUint32(m.BlizzHash)
	if len(m.ScriptsSHA1) == 20 {
		e.WriteBytes(m.ScriptsSHA1)
	}
	return e.Bytes()
}

// EncodeStartDownload builds STARTDOWNLOAD (0x3F).
func EncodeStartDownload(uid core.UID) ([]byte, error) {
	e := NewEncoder(OpStartDownload)
	e.WriteUint8(uint8(uid))
	return e.Bytes()
}

// EncodeMapPart builds a single MAPPART (0x43) chunk. chunk must be at
// most 1442 bytes.
func EncodeMapPart(fromUID, toUID core.UID, startOffset uint32, chunk []byte) ([]byte, error) {
	e := NewEncoder(OpMapPart)
	e.WriteUint8(uint8(fromUID))
	e.WriteUint8(uint8(toUID))
	e.WriteUint32(startOffset)
	e.WriteUint32(crc32Of(chunk))
	e.WriteBytes(chunk)
	return e.Bytes()
}

// newBodyWriter returns a plain packet.Writer for building sub-bodies that
// get embedded (and length/CRC-prefixed) inside an outer frame.
func newBodyWriter() *packet.Writer {
	return packet.NewWriter(128)
}
