package protocol

import (
	"testing"

	"github.com/wc3hostbot/core/internal/core"
)

func TestGProxyReconnectRoundTrip(t *testing.T) {
	e := gpsEncoder(GPSReconnect)
	e.WriteUint8(3)
	e.WriteUint32(0xC0FFEE)
	e.WriteUint32(87)
	raw, err := e.Bytes()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	frame, _, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Opcode != OpGProxy {
		t.Fatalf("expected OpGProxy, got 0x%02X", frame.Opcode)
	}
	sub, body, err := DecodeGPSFrame(frame.Payload)
	if err != nil {
		t.Fatalf("decode gps frame: %v", err)
	}
	if sub != GPSReconnect {
		t.Fatalf("expected GPSReconnect, got %d", sub)
	}
	msg, err := DecodeGPSReconnect(body)
	if err != nil {
		t.Fatalf("decode reconnect: %v", err)
	}
	if msg.UID != core.UID(3) || msg.ReconnectKey != core.ReconnectKey(0xC0FFEE) || msg.LastReceivedPacket != 87 {
		t.Fatalf("unexpected reconnect fields: %+v", msg)
	}
}

func TestEncodeGPSInitReply(t *testing.T) {
	raw, err := EncodeGPSInitReply(core.ReconnectKey(42), 3)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, _, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Opcode != OpGProxy {
		t.Fatalf("expected OpGProxy opcode")
	}
}
