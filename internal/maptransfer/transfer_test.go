package maptransfer

import (
	"testing"

	"github.com/wc3hostbot/core/internal/core"
)

func makeMapData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestAdvanceSendsOneChunkPerEligibleDownloader(t *testing.T) {
	tr := New(makeMapData(5000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	tr.BeginDownload(core.UID(2), 2000, core.Tick(0), 60000)

	chunks := tr.Advance(100000)
	if len(chunks) != 2 {
		t.Fatalf("expected one chunk per downloader, got %d", len(chunks))
	}
	// Slowest (offset 0) must be scheduled first.
	if chunks[0].UID != core.UID(1) {
		t.Fatalf("expected uid 1 (offset 0) scheduled first, got %+v", chunks[0])
	}
}

func TestAdvanceSkipsInFlightCursor(t *testing.T) {
	tr := New(makeMapData(5000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)

	first := tr.Advance(100000)
	if len(first) != 1 {
		t.Fatalf("expected one chunk, got %d", len(first))
	}
	second := tr.Advance(100000)
	if len(second) != 0 {
		t.Fatalf("expected no new chunk while the first is still in flight, got %d", len(second))
	}
}

func TestLastChunkIsShortAndCompletesTransfer(t *testing.T) {
	tr := New(makeMapData(ChunkBytes+1), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)

	chunks := tr.Advance(100000)
	if len(chunks[0].Data) != ChunkBytes {
		t.Fatalf("expected first chunk to be full size, got %d", len(chunks[0].Data))
	}
	if _, err := tr.Ack(core.UID(1), uint32(ChunkBytes)); err != nil {
		t.Fatalf("ack: %v", err)
	}

	chunks = tr.Advance(100000)
	if len(chunks) != 1 || len(chunks[0].Data) != 1 {
		t.Fatalf("expected a 1-byte final chunk, got %+v", chunks)
	}
	if _, err := tr.Ack(core.UID(1), uint32(ChunkBytes+1)); err != nil {
		t.Fatalf("final ack: %v", err)
	}
	if !tr.IsComplete(core.UID(1)) {
		t.Fatal("expected transfer complete after the final ack")
	}
}

func TestAckRejectsMismatchedOffset(t *testing.T) {
	tr := New(makeMapData(5000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	tr.Advance(100000)
	if _, err := tr.Ack(core.UID(1), 999); err == nil {
		t.Fatal("expected an error for a mismatched ack offset")
	}
}

func TestErrResendsFromReportedOffset(t *testing.T) {
	tr := New(makeMapData(5000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	tr.Advance(100000)
	if err := tr.Err(core.UID(1), 500); err != nil {
		t.Fatalf("err: %v", err)
	}
	chunks := tr.Advance(100000)
	if len(chunks) != 1 || chunks[0].StartOffset != 500 {
		t.Fatalf("expected resend from offset 500, got %+v", chunks)
	}
}

func TestProgressStepFiresOnNewPercent(t *testing.T) {
	tr := New(makeMapData(10000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	chunks := tr.Advance(100000)
	step, err := tr.Ack(core.UID(1), chunks[0].StartOffset+uint32(len(chunks[0].Data)))
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if step.Percent == 0 {
		t.Fatal("expected a nonzero percent step after advancing past 1% of the file")
	}
}

func TestPendingKickCheckFiresAfterDeadline(t *testing.T) {
	tr := New(makeMapData(5000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	if tr.PendingKickCheck(core.UID(1), core.Tick(30000)) {
		t.Fatal("should not be kickable before the deadline")
	}
	if !tr.PendingKickCheck(core.UID(1), core.Tick(61000)) {
		t.Fatal("expected kickable once the deadline has elapsed without completion")
	}
}

func TestPendingKickCheckFalseOnceComplete(t *testing.T) {
	tr := New(makeMapData(100), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	chunks := tr.Advance(100000)
	tr.Ack(core.UID(1), chunks[0].StartOffset+uint32(len(chunks[0].Data)))
	if tr.PendingKickCheck(core.UID(1), core.Tick(61000)) {
		t.Fatal("a completed transfer must never be flagged for map-missing kick")
	}
}

func TestAdvanceRespectsBudget(t *testing.T) {
	tr := New(makeMapData(10000), 100000)
	tr.BeginDownload(core.UID(1), 0, core.Tick(0), 60000)
	tr.BeginDownload(core.UID(2), 0, core.Tick(0), 60000)
	chunks := tr.Advance(ChunkBytes) // only enough budget for one chunk
	if len(chunks) != 1 {
		t.Fatalf("expected budget to cap at one chunk, got %d", len(chunks))
	}
}
