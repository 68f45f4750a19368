package protocol

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol/packet"
)

// GPSOpcode is the sub-opcode carried inside a GProxy frame
// (0xF7 0x59 LEN_LO LEN_HI <sub-opcode> ...).
type GPSOpcode uint8

const (
	GPSInit            GPSOpcode = 1
	GPSReconnect       GPSOpcode = 2
	GPSAck             GPSOpcode = 3
	GPSReject          GPSOpcode = 4
	GPSSupportExtended GPSOpcode = 5
	GPSChangeGame      GPSOpcode = 6
	GPSUDPAck          GPSOpcode = 7
)

// GPSInitMsg is a new connection's proposal to speak GProxy, prior to the
// W3GS REQJOIN handshake.
type GPSInitMsg struct {
	Version       uint32
	SupportsExtended bool
}

// GPSReconnectMsg asks the host to resume a paused stream for uid,
// presenting the secret issued at the original GPS_INIT and the last
// packet counter value the client actually received.
type GPSReconnectMsg struct {
	UID               core.UID
	ReconnectKey      core.ReconnectKey
	LastReceivedPacket uint32
}

// GPSAckMsg lets either side trim its replay buffer up to the acked
// packet counter.
type GPSAckMsg struct {
	LastSeenPacket uint32
}

// GPSRejectReason enumerates GPS_REJECT causes.
type GPSRejectReason uint32

const (
	GPSRejectKeyMismatch GPSRejectReason = 1
	GPSRejectUIDMismatch GPSRejectReason = 2
	GPSRejectWindowExpired GPSRejectReason = 3
)

// DecodeGPSFrame splits a GProxy frame's payload into its sub-opcode and
// remaining body.
func DecodeGPSFrame(payload []byte) (GPSOpcode, []byte, error) {
	if len(payload) < 1 {
		return 0, nil, &FrameError{Reason: "empty GProxy payload"}
	}
	return GPSOpcode(payload[0]), payload[1:], nil
}

func DecodeGPSInit(body []byte) (GPSInitMsg, error) {
	r := packet.NewReader(body)
	v, err := r.ReadUint32()
	if err != nil {
		return GPSInitMsg{}, fmt.Errorf("decode GPS_INIT: %w", err)
	}
	ext := uint8(0)
	if r.Remaining() > 0 {
		ext, _ = r.ReadUint8()
	}
	return GPSInitMsg{Version: v, SupportsExtended: ext != 0}, nil
}

func DecodeGPSReconnect(body []byte) (GPSReconnectMsg, error) {
	r := packet.NewReader(body)
	uid, err := r.ReadUint8()
	if err != nil {
		return GPSReconnectMsg{}, fmt.Errorf("decode GPS_RECONNECT: %w", err)
	}
	key, err := r.ReadUint32()
	if err != nil {
		return GPSReconnectMsg{}, fmt.Errorf("decode GPS_RECONNECT: %w", err)
	}
	last, err := r.ReadUint32()
	if err != nil {
		return GPSReconnectMsg{}, fmt.Errorf("decode GPS_RECONNECT: %w", err)
	}
	return GPSReconnectMsg{UID: core.UID(uid), ReconnectKey: core.ReconnectKey(key), LastReceivedPacket: last}, nil
}

func gpsEncoder(op GPSOpcode) *Encoder {
	e := NewEncoder(OpGProxy)
	e.WriteUint8(uint8(op))
	return e
}

// EncodeGPSInitReply answers GPS_INIT with the freshly issued reconnect
// key and the current gproxy_empty_actions count.
func EncodeGPSInitReply(key core.ReconnectKey, emptyActions uint32) ([]byte, error) {
	e := gpsEncoder(GPSInit)
	e.WriteUint32(uint32(key))
	e.WriteUint32(emptyActions)
	return e.Bytes()
}

// EncodeGPSAck builds GPS_ACK.
func EncodeGPSAck(lastSeen uint32) ([]byte, error) {
	e := gpsEncoder(GPSAck)
	e.WriteUint32(lastSeen)
	return e.Bytes()
}

// EncodeGPSReject builds GPS_REJECT.
func EncodeGPSReject(reason GPSRejectReason) ([]byte, error) {
	e := gpsEncoder(GPSReject)
	e.WriteUint32(uint32(reason))
	return e.Bytes()
}
