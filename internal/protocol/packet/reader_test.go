package packet

import "testing"

func TestReader_RoundTrip(t *testing.T) {
	w := NewWriter(32)
	w.WriteUint8(0x01)
	w.WriteUint16(0x0203)
	w.WriteUint32(0x04050607)
	w.WriteCString("Bob")
	w.WriteBytes([]byte{0xAA, 0xBB})

	r := NewReader(w.Bytes())

	if v, err := r.ReadUint8(); err != nil || v != 0x01 {
		t.Fatalf("ReadUint8: got %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0x0203 {
		t.Fatalf("ReadUint16: got %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0x04050607 {
		t.Fatalf("ReadUint32: got %v, %v", v, err)
	}
	if s, err := r.ReadCString(); err != nil || s != "Bob" {
		t.Fatalf("ReadCString: got %q, %v", s, err)
	}
	tail, err := r.ReadBytes(2)
	if err != nil || tail[0] != 0xAA || tail[1] != 0xBB {
		t.Fatalf("ReadBytes: got %v, %v", tail, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", r.Remaining())
	}
}

func TestReader_ShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUint32(); err == nil {
		t.Fatal("expected error reading uint32 from 1-byte buffer")
	}
}

func TestReader_CStringNoTerminator(t *testing.T) {
	r := NewReader([]byte("no-nul-here"))
	if _, err := r.ReadCString(); err == nil {
		t.Fatal("expected error for missing NUL terminator")
	}
}
