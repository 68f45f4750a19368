package netio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/wc3hostbot/core/internal/protocol"
)

func dialTestPair(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ln, err := ListenTCP(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenTCP: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan *Conn, 1)
	go AcceptLoop(ctx, ln, func(c *Conn) { accepted <- c })

	client, err := net.Dial("tcp4", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-accepted:
		return c, client
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for accept")
	}
	return nil, nil
}

func encodePing(t *testing.T) []byte {
	t.Helper()
	enc := protocol.NewEncoder(protocol.OpPingFromHost)
	enc.WriteUint32(7)
	wire, err := enc.Bytes()
	if err != nil {
		t.Fatalf("encode ping: %v", err)
	}
	return wire
}

func TestConnDrainReceivesFramesSentByPeer(t *testing.T) {
	server, client := dialTestPair(t)

	wire := encodePing(t)
	if _, err := client.Write(wire); err != nil {
		t.Fatalf("client write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		frames := server.Drain()
		if len(frames) == 1 {
			if frames[0].Opcode != protocol.OpPingFromHost {
				t.Fatalf("expected OpPing, got %v", frames[0].Opcode)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for frame to arrive")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnClosedReflectsPeerDisconnect(t *testing.T) {
	server, client := dialTestPair(t)
	client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !server.Closed() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for Closed() to report true")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnWriteDeliversToPeer(t *testing.T) {
	server, client := dialTestPair(t)

	wire := encodePing(t)
	if _, err := server.Write(wire); err != nil {
		t.Fatalf("server write: %v", err)
	}

	buf := make([]byte, len(wire))
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := net.Conn(client).Read(buf); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if buf[0] != protocol.Magic {
		t.Fatalf("expected magic byte 0x%02X, got 0x%02X", protocol.Magic, buf[0])
	}
}
