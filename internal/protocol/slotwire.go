package protocol

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/protocol/packet"
)

// SlotWire is the 9-byte on-the-wire layout of a single slot record, used
// inside SLOTINFOJOIN and SLOTINFO. The slot package owns slot semantics
// and invariants; this is only the serialization shape, kept here so the
// protocol layer has no dependency on the slot model (protocol is a leaf).
type SlotWire struct {
	PID            uint8
	DownloadStatus uint8
	SlotStatus     uint8
	Computer       uint8
	Team           uint8
	Color          uint8
	Race           uint8
	ComputerType   uint8
	Handicap       uint8
}

func (s SlotWire) encode(w *packet.Writer) {
	w.WriteUint8(s.PID)
	w.WriteUint8(s.DownloadStatus)
	w.WriteUint8(s.SlotStatus)
	w.WriteUint8(s.Computer)
	w.WriteUint8(s.Team)
	w.WriteUint8(s.Color)
	w.WriteUint8(s.Race)
	w.WriteUint8(s.ComputerType)
	w.WriteUint8(s.Handicap)
}

func decodeSlotWire(r *packet.Reader) (SlotWire, error) {
	var s SlotWire
	fields := []*uint8{&s.PID, &s.DownloadStatus, &s.SlotStatus, &s.Computer, &s.Team, &s.Color, &s.Race, &s.ComputerType, &s.Handicap}
	for _, f := range fields {
		v, err := r.ReadUint8()
		if err != nil {
			return SlotWire{}, fmt.Errorf("decode slot record: %w", err)
		}
		*f = v
	}
	return s, nil
}
