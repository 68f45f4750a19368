package packet

import (
	"encoding/binary"
	"testing"
)

func TestWriter_WriteUint8(t *testing.T) {
	w := NewWriter(16)
	w.WriteUint8(0x42)

	data := w.Bytes()
	if len(data) != 1 {
		t.Fatalf("expected length 1, got %d", len(data))
	}
	if data[0] != 0x42 {
		t.Errorf("expected byte 0x42, got 0x%02X", data[0])
	}
}

func TestWriter_WriteUint16(t *testing.T) {
	w := NewWriter(16)
	w.WriteUint16(0x1234)

	data := w.Bytes()
	if len(data) != 2 {
		t.Fatalf("expected length 2, got %d", len(data))
	}
	if got := binary.LittleEndian.Uint16(data); got != 0x1234 {
		t.Errorf("expected 0x1234, got 0x%04X", got)
	}
}

func TestWriter_WriteUint32(t *testing.T) {
	w := NewWriter(16)
	w.WriteUint32(0xDEADBEEF)

	data := w.Bytes()
	if len(data) != 4 {
		t.Fatalf("expected length 4, got %d", len(data))
	}
	if got := binary.LittleEndian.Uint32(data); got != 0xDEADBEEF {
		t.Errorf("expected 0xDEADBEEF, got 0x%08X", got)
	}
}

func TestWriter_WriteCString(t *testing.T) {
	w := NewWriter(16)
	w.WriteCString("Alice")

	data := w.Bytes()
	want := append([]byte("Alice"), 0)
	if string(data) != string(want) {
		t.Errorf("expected %q, got %q", want, data)
	}
}

func TestWriter_Reset(t *testing.T) {
	w := NewWriter(16)
	w.WriteUint8(1)
	w.Reset()
	if w.Len() != 0 {
		t.Fatalf("expected empty writer after reset, got len %d", w.Len())
	}
}

func TestWriterPool_RoundTrip(t *testing.T) {
	w := Get()
	w.WriteUint8(7)
	if w.Len() != 1 {
		t.Fatalf("expected len 1, got %d", w.Len())
	}
	w.Put()
}
