package action

import (
	"testing"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

func TestFrameAppendStaysInOneSubPacketUntilLimit(t *testing.T) {
	f := &Frame{}
	f.Append(protocol.ActionSubPacket{UID: core.UID(1), Data: make([]byte, 100)})
	f.Append(protocol.ActionSubPacket{UID: core.UID(2), Data: make([]byte, 100)})
	if len(f.SubPackets) != 1 {
		t.Fatalf("expected both entries in one sub-packet, got %d", len(f.SubPackets))
	}
}

func TestFrameAppendOpensNewSubPacketPastLimit(t *testing.T) {
	f := &Frame{}
	f.Append(protocol.ActionSubPacket{UID: core.UID(1), Data: make([]byte, 1450)})
	f.Append(protocol.ActionSubPacket{UID: core.UID(2), Data: make([]byte, 10)})
	if len(f.SubPackets) != 2 {
		t.Fatalf("expected a new sub-packet once the limit is exceeded, got %d", len(f.SubPackets))
	}
}

func TestFrameAppendOversizedActionGetsOwnSubPacket(t *testing.T) {
	f := &Frame{}
	f.Append(protocol.ActionSubPacket{UID: core.UID(1), Data: make([]byte, 10)})
	f.Append(protocol.ActionSubPacket{UID: core.UID(2), Data: make([]byte, 2000)})
	if len(f.SubPackets) != 2 {
		t.Fatalf("expected oversized action in its own sub-packet, got %d", len(f.SubPackets))
	}
	if len(f.SubPackets[1]) != 1 {
		t.Fatalf("expected the oversized sub-packet to hold exactly one entry")
	}
}

func TestFrameEncodeEmitsTerminalIncomingAction(t *testing.T) {
	f := &Frame{}
	f.Append(protocol.ActionSubPacket{UID: core.UID(1), Data: []byte{0xAA}})
	wire, err := f.Encode(100)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("expected exactly one wire packet for a single sub-packet frame, got %d", len(wire))
	}
	frame, _, err := protocol.DecodeFrame(wire[0])
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Opcode != protocol.OpIncomingAction {
		t.Fatalf("expected terminal frame to be OpIncomingAction, got 0x%02X", frame.Opcode)
	}
}

func TestFrameEncodeEmptyFrameStillProducesTerminal(t *testing.T) {
	f := &Frame{}
	wire, err := f.Encode(50)
	if err != nil {
		t.Fatalf("encode empty frame: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("expected one terminal packet even for an empty frame, got %d", len(wire))
	}
}
