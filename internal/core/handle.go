package core

import "github.com/google/uuid"

// GameHandle is an opaque token a User holds to refer back to the Game it
// belongs to, instead of an owning pointer. This breaks the cyclic
// ownership the original implementation expressed with shared/weak
// pointers between Game and User: the Game holds its Users in a map keyed
// by uid, and a User never points back at its Game directly. Per-tick dispatch resolves the handle through whatever
// registry the caller holds (see internal/game.Registry), so a User
// operation only ever executes in game context, on the tick goroutine.
type GameHandle struct {
	id uuid.UUID
}

// NewGameHandle mints a fresh handle. Called once per Game at creation.
func NewGameHandle() GameHandle {
	return GameHandle{id: uuid.New()}
}

// String returns the handle's textual form, suitable for a slog field.
func (h GameHandle) String() string {
	return h.id.String()
}

// IsZero reports whether h is the zero value (never resolves to a Game).
func (h GameHandle) IsZero() bool {
	return h.id == uuid.Nil
}

// Equal reports whether two handles refer to the same game.
func (h GameHandle) Equal(other GameHandle) bool {
	return h.id == other.id
}
