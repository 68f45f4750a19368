// Package action implements the ActionFrame sequencing engine (§4.3):
// the component responsible for the system's core invariant, that every
// user perceives the same ordered sequence of actions at every tick of
// game time regardless of arrival order. This replaces the original's
// CQueuedActionsFrame linked list with a fixed-depth ring of *Frame,
// sized 1 (no ping equalizer) or equalizer depth+1.
package action

import (
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// MaxSubPacketBytes is the UDP-safe payload ceiling for one wire
// sub-packet: 1460 bytes minus the 8-byte W3GS header.
const MaxSubPacketBytes = 1452

// CallbackKind tags the post-send action attached to a frame.
type CallbackKind uint8

const (
	CallbackNone CallbackKind = iota
	CallbackPause
	CallbackResume
	CallbackLeaver
)

// Callback is the deferred effect a frame carries once broadcast: a
// pause/resume toggling game time, or a leaver notice that must not be
// sent until the last frame carrying that uid's actions has gone out.
type Callback struct {
	Kind CallbackKind
	UID  core.UID
}

// Frame is one ActionFrame: an ordered list of wire sub-packets, the
// last of which is "terminal" (carries the latency-to-next-frame value;
// every preceding sub-packet is an INCOMING_ACTION2 overflow).
type Frame struct {
	SubPackets [][]protocol.ActionSubPacket
	Callback   Callback
}

func subPacketSize(entries []protocol.ActionSubPacket) int {
	total := 0
	for _, e := range entries {
		total += 3 + len(e.Data) // 1-byte uid + 2-byte length prefix
	}
	return total
}

// Append adds one (uid, data) entry to the frame, opening a new
// sub-packet when the current one would exceed MaxSubPacketBytes (§4.3
// rule 2; an oversized single action gets its own sub-packet per the
// edge case in §8.3).
func (f *Frame) Append(entry protocol.ActionSubPacket) {
	entrySize := 3 + len(entry.Data)
	if len(f.SubPackets) == 0 {
		f.SubPackets = append(f.SubPackets, nil)
	}
	last := len(f.SubPackets) - 1
	if len(f.SubPackets[last]) > 0 && subPacketSize(f.SubPackets[last])+entrySize > MaxSubPacketBytes {
		f.SubPackets = append(f.SubPackets, []protocol.ActionSubPacket{entry})
		return
	}
	f.SubPackets[last] = append(f.SubPackets[last], entry)
}

// Encode serializes the frame to wire bytes: one INCOMING_ACTION2 per
// overflow sub-packet, then one terminal INCOMING_ACTION carrying
// latencyMS.
func (f *Frame) Encode(latencyMS uint16) ([][]byte, error) {
	subs := f.SubPackets
	if len(subs) == 0 {
		subs = [][]protocol.ActionSubPacket{nil}
	}
	out := make([][]byte, 0, len(subs))
	for i := 0; i < len(subs)-1; i++ {
		wire, err := protocol.EncodeIncomingAction2(subs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, wire)
	}
	terminal, err := protocol.EncodeIncomingAction(subs[len(subs)-1], latencyMS)
	if err != nil {
		return nil, err
	}
	return append(out, terminal), nil
}
