// Package maptransfer implements the chunked map-file push engine (§4.5):
// per-user download cursors, CRC-32-per-chunk MAPPART framing, and
// fairness-paced flow control across concurrent downloaders.
package maptransfer

import (
	"fmt"
	"sort"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

// ChunkBytes is the maximum MAPPART payload: 1442 bytes of map data.
const ChunkBytes = 1442

// cursor is one user's upload state. Only one chunk is ever in flight at
// a time per user, matching the MAPPART_OK/MAPPART_ERR ack-to-advance
// protocol (§4.5).
type cursor struct {
	lastSentOffset uint32
	lastPercent    uint8
	inFlight       bool
	pendingOffset  uint32
	pendingLen     uint32
	deadline       core.Tick
	hasDeadline    bool
}

func (c *cursor) complete(fileSize uint32) bool {
	return !c.inFlight && c.lastSentOffset >= fileSize
}

// Chunk is one MAPPART ready to send.
type Chunk struct {
	UID         core.UID
	StartOffset uint32
	Data        []byte
	CRC32       uint32
}

// ProgressStep reports a downloader crossing a new 1% boundary, which
// the caller uses to trigger a coalesced SLOTINFO broadcast (§4.5).
type ProgressStep struct {
	UID     core.UID
	Percent uint8
}

// Transfer is the map-push engine for one game's map file.
type Transfer struct {
	mapData           []byte
	maxBytesPerSecond int
	cursors           map[core.UID]*cursor
}

// New builds a transfer engine over the given immutable map bytes
// (shared read-only across every cursor, per §5's shared-resources
// note) with the operator's upload pacing budget.
func New(mapData []byte, maxBytesPerSecond int) *Transfer {
	return &Transfer{
		mapData:           mapData,
		maxBytesPerSecond: maxBytesPerSecond,
		cursors:           make(map[core.UID]*cursor),
	}
}

// FileSize returns the map file's total length.
func (t *Transfer) FileSize() uint32 {
	return uint32(len(t.mapData))
}

// BeginDownload registers uid as an eligible downloader starting at
// startOffset (the offset reported by MAPSIZE flag=3), and arms the
// lacks_map_kick_delay deadline.
func (t *Transfer) BeginDownload(uid core.UID, startOffset uint32, now core.Tick, kickDelayMS int64) {
	t.cursors[uid] = &cursor{
		lastSentOffset: startOffset,
		lastPercent:    uint8(uint64(startOffset) * 100 / uint64(max1(len(t.mapData)))),
		deadline:       now.Add(kickDelayMS),
		hasDeadline:    true,
	}
}

func max1(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// Forget removes a departed user's cursor.
func (t *Transfer) Forget(uid core.UID) {
	delete(t.cursors, uid)
}

// IsComplete reports whether uid has received the whole file.
func (t *Transfer) IsComplete(uid core.UID) bool {
	c, ok := t.cursors[uid]
	if !ok {
		return false
	}
	return c.complete(t.FileSize())
}

// PendingKickCheck reports whether uid's lacks_map_kick_delay has
// elapsed with no completed transfer (§4.5, §8.3 example 4).
func (t *Transfer) PendingKickCheck(uid core.UID, now core.Tick) bool {
	c, ok := t.cursors[uid]
	if !ok || !c.hasDeadline {
		return false
	}
	if c.complete(t.FileSize()) {
		return false
	}
	return now.Since(c.deadline) >= 0
}

// Advance computes the next round of chunks to send: one per eligible
// (not in-flight, not complete) cursor, ordered slowest-first by
// last_sent_offset to reduce tail latency, bounded by budgetBytes
// (the pacing allowance for this tick).
func (t *Transfer) Advance(budgetBytes int) []Chunk {
	type entry struct {
		uid core.UID
		c   *cursor
	}
	var eligible []entry
	for uid, c := range t.cursors {
		if c.inFlight || c.complete(t.FileSize()) {
			continue
		}
		eligible = append(eligible, entry{uid, c})
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].c.lastSentOffset < eligible[j].c.lastSentOffset
	})

	var chunks []Chunk
	remaining := budgetBytes
	for _, e := range eligible {
		if remaining <= 0 {
			break
		}
		size := ChunkBytes
		if left := int(t.FileSize()) - int(e.c.lastSentOffset); left < size {
			size = left
		}
		if size <= 0 {
			continue
		}
		data := t.mapData[e.c.lastSentOffset : int(e.c.lastSentOffset)+size]
		crc := protocol.CRC32(data)

		e.c.inFlight = true
		e.c.pendingOffset = e.c.lastSentOffset
		e.c.pendingLen = uint32(size)

		chunks = append(chunks, Chunk{
			UID:         e.uid,
			StartOffset: e.c.pendingOffset,
			Data:        data,
			CRC32:       crc,
		})
		remaining -= size
	}
	return chunks
}

// Ack applies a MAPPART_OK(offset): confirms the in-flight chunk and
// advances last_sent_offset. Returns a ProgressStep when a new 1%
// boundary was crossed.
func (t *Transfer) Ack(uid core.UID, offset uint32) (ProgressStep, error) {
	c, ok := t.cursors[uid]
	if !ok || !c.inFlight {
		return ProgressStep{}, fmt.Errorf("maptransfer: ack uid=%d: no chunk in flight", uid)
	}
	want := c.pendingOffset + c.pendingLen
	if offset != want {
		return ProgressStep{}, fmt.Errorf("maptransfer: ack uid=%d: offset %d does not match expected %d", uid, offset, want)
	}
	c.lastSentOffset = offset
	c.inFlight = false

	percent := uint8(uint64(offset) * 100 / uint64(max1(len(t.mapData))))
	if percent > c.lastPercent {
		c.lastPercent = percent
		return ProgressStep{UID: uid, Percent: percent}, nil
	}
	return ProgressStep{}, nil
}

// PendingOffset reports the start offset of uid's in-flight chunk, the
// value to resend from on a MAPPART_ERR (the wire message itself
// carries no offset; the host already knows what it last sent).
func (t *Transfer) PendingOffset(uid core.UID) (uint32, bool) {
	c, ok := t.cursors[uid]
	if !ok || !c.inFlight {
		return 0, false
	}
	return c.pendingOffset, true
}

// Err applies a MAPPART_ERR: the client asks for a resend from offset.
func (t *Transfer) Err(uid core.UID, offset uint32) error {
	c, ok := t.cursors[uid]
	if !ok {
		return fmt.Errorf("maptransfer: err uid=%d: not downloading", uid)
	}
	c.inFlight = false
	c.lastSentOffset = offset
	return nil
}
