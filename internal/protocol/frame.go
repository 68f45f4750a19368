package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/wc3hostbot/core/internal/protocol/packet"
)

const (
	// Magic is the first byte of every W3GS frame.
	Magic byte = 0xF7
	// HeaderSize is the fixed 4-byte length-prefix header.
	HeaderSize = 4
	// MaxFrameLen bounds a single decoded frame (length field is 16-bit).
	MaxFrameLen = 0xFFFF
)

// ErrFragWait means buf does not yet hold a complete frame; the caller
// should wait for more bytes before retrying decode.
var ErrFragWait = errors.New("protocol: frame incomplete, need more data")

// FrameError is an ERR_INVALID condition: the frame is structurally
// malformed (length < 4) or carries an opcode this codec does not
// recognise. The caller's policy is to close the offending connection.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("protocol: invalid frame: %s", e.Reason)
}

// Frame is a decoded header plus a zero-copy view of the payload.
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

// DecodeFrame decodes the first frame at the front of buf. It returns
// ErrFragWait if buf is shorter than the frame's declared length, and a
// *FrameError for any structurally invalid header. On success it returns
// the number of bytes consumed so the caller can advance its read buffer.
func DecodeFrame(buf []byte) (Frame, int, error) {
	if len(buf) < HeaderSize {
		return Frame{}, 0, ErrFragWait
	}
	if buf[0] != Magic {
		return Frame{}, 0, &FrameError{Reason: fmt.Sprintf("bad magic byte 0x%02X", buf[0])}
	}
	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length < HeaderSize {
		return Frame{}, 0, &FrameError{Reason: fmt.Sprintf("length %d < header size %d", length, HeaderSize)}
	}
	if len(buf) < length {
		return Frame{}, 0, ErrFragWait
	}
	op := Opcode(buf[1])
	if !isKnownOpcode(op) {
		return Frame{}, 0, &FrameError{Reason: fmt.Sprintf("unknown opcode 0x%02X", op)}
	}
	return Frame{Opcode: op, Payload: buf[HeaderSize:length]}, length, nil
}

// Encoder builds a single W3GS frame, back-patching the length field once
// the payload is complete.
type Encoder struct {
	w *packet.Writer
}

// NewEncoder starts a frame for the given opcode.
func NewEncoder(op Opcode) *Encoder {
	w := packet.NewWriter(64)
	w.WriteUint8(Magic)
	w.WriteUint8(byte(op))
	w.WriteUint16(0) // placeholder, patched in Bytes()
	return &Encoder{w: w}
}

func (e *Encoder) WriteUint8(v uint8)   { e.w.WriteUint8(v) }
func (e *Encoder) WriteUint16(v uint16) { e.w.WriteUint16(v) }
func (e *Encoder) WriteUint32(v uint32) { e.w.WriteUint32(v) }
func (e *Encoder) WriteInt32(v int32)   { e.w.WriteInt32(v) }
func (e *Encoder) WriteCString(s string) { e.w.WriteCString(s) }
func (e *Encoder) WriteBytes(b []byte)  { e.w.WriteBytes(b) }

// Bytes finalizes the frame: it back-patches the length field and returns
// the complete wire bytes.
func (e *Encoder) Bytes() ([]byte, error) {
	b := e.w.Bytes()
	if len(b) > MaxFrameLen {
		return nil, fmt.Errorf("protocol: encoded frame %d bytes exceeds max %d", len(b), MaxFrameLen)
	}
	binary.LittleEndian.PutUint16(b[2:4], uint16(len(b)))
	return b, nil
}
