package slot

import "errors"

// Sentinel reasons a slot mutation can fail, wrapped with context by the
// Table methods above. Callers match these with errors.Is.
var (
	// ErrFull means no Open slot or no free uid was available.
	ErrFull = errors.New("slot: full")
	// ErrConflict means the requested color is already held by another
	// non-observer occupied slot.
	ErrConflict = errors.New("slot: color conflict")
	// ErrViolatesLayout means the map's fixed-player-settings layout
	// forbids the requested mutation.
	ErrViolatesLayout = errors.New("slot: violates fixed layout")
	// ErrInvalid means the slot index or uid does not identify a
	// mutable occupied slot, or the requested value is out of range.
	ErrInvalid = errors.New("slot: invalid")
)
