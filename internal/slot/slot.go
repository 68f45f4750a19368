// Package slot implements the authoritative seat layout (§3, §4.2): a
// fixed-length array of slots whose mutations are invariant-checked and
// coalesced into a single SLOTINFO broadcast per tick.
package slot

import "github.com/wc3hostbot/core/internal/core"

// Status is the slot occupancy state.
type Status uint8

const (
	Open Status = iota
	Closed
	Occupied
)

// Type further classifies an Occupied slot.
type Type uint8

const (
	TypeNone Type = iota
	TypeUser
	TypeComputer
	TypeNeutral
	TypeRescueable
	// TypeVirtual is a slot occupied by neither a live user nor a
	// computer: a placeholder some map configurations require to pad the
	// controller count. GameHistory synthesizes its GAMELOADED message
	// from loading_virtual_buffer.
	TypeVirtual
)

// Difficulty is a computer's play strength.
type Difficulty uint8

const (
	DifficultyEasy Difficulty = iota
	DifficultyNormal
	DifficultyHard
)

// Race is a bitset: one of the four playable races, optionally combined
// with Random, optionally combined with Selectable.
type Race uint8

const (
	RaceHuman      Race = 1 << 0
	RaceOrc        Race = 1 << 1
	RaceNightElf   Race = 1 << 2
	RaceUndead     Race = 1 << 3
	RaceRandom     Race = 1 << 5
	RaceSelectable Race = 1 << 6
)

// Fixed strips the Selectable bit, leaving only the chosen race bits.
func (r Race) Fixed() Race {
	return r &^ RaceSelectable
}

// ObserverTeam is the reserved team value meaning "observer".
const ObserverTeam uint8 = 12

// Slot is one seat in the table.
type Slot struct {
	UID            core.UID
	DownloadPct    uint8
	Status         Status
	Computer       bool
	Team           uint8
	Color          uint8
	Race           Race
	Difficulty     Difficulty
	Handicap       uint8
	Type           Type
}

// IsObserver reports whether the slot's team is the observer team.
func (s Slot) IsObserver() bool {
	return s.Team == ObserverTeam
}

// IsPlayerOrFake mirrors the original's GetIsPlayerOrFake: an occupied,
// non-computer slot (a live human or a virtual/fake placeholder).
func (s Slot) IsPlayerOrFake() bool {
	return s.Status == Occupied && !s.Computer
}

// IsComputer reports an occupied, computer-controlled slot.
func (s Slot) IsComputer() bool {
	return s.Status == Occupied && s.Computer
}
