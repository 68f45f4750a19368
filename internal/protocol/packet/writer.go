// Package packet provides low-level little-endian readers and writers for
// the W3GS wire format: fixed-width integers and NUL-terminated ASCII
// strings (unlike la2go's UTF-16LE client strings, W3GS names and paths
// are plain C strings).
package packet

import (
	"bytes"
	"encoding/binary"
	"sync"
)

// Writer accumulates a packet payload. All multi-byte values are
// little-endian, matching the wire format.
type Writer struct {
	buf *bytes.Buffer
}

var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: bytes.NewBuffer(make([]byte, 0, 512))}
	},
}

// Get returns a pooled, reset Writer.
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns w to the pool. w must not be used afterwards.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a writer with the given initial capacity hint.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, capacity))}
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteCString writes s followed by a single NUL terminator.
func (w *Writer) WriteCString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Reset() {
	w.buf.Reset()
}
