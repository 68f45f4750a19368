package slot

import (
	"fmt"

	"github.com/wc3hostbot/core/internal/core"
)

// Table is the authoritative slot array for one game. It is not safe for
// concurrent use: per §5's single-threaded cooperative model, every
// mutation runs on the owning Game's tick goroutine.
type Table struct {
	Layout Layout
	slots  []Slot
	dirty  bool
}

// NewTable creates an all-Open table of layout.MaxSlots() slots.
func NewTable(layout Layout) *Table {
	return &Table{
		Layout: layout,
		slots:  make([]Slot, layout.MaxSlots()),
	}
}

// Slots returns a read-only view of the current slot array.
func (t *Table) Slots() []Slot {
	return t.slots
}

// Dirty reports whether a mutation happened since the last ClearDirty,
// meaning a SLOTINFO broadcast is owed on the next tick.
func (t *Table) Dirty() bool {
	return t.dirty
}

// ClearDirty resets the dirty flag after the coalesced SLOTINFO has been
// sent. Every mutation method below sets it; tick code must call this
// exactly once per tick, after broadcasting, never before.
func (t *Table) ClearDirty() {
	t.dirty = false
}

func (t *Table) markDirty() {
	t.dirty = true
}

// allocateUID returns the lowest unused player uid in [1,15], or NoUID if
// the range is exhausted.
func (t *Table) allocateUID() core.UID {
	used := make(map[core.UID]bool, len(t.slots))
	for _, s := range t.slots {
		if s.Status == Occupied {
			used[s.UID] = true
		}
	}
	for uid := core.UID(1); uid <= 15; uid++ {
		if !used[uid] {
			return uid
		}
	}
	return core.NoUID
}

// colorInUse reports whether color is already taken by a non-observer
// occupied slot other than skipIndex.
func (t *Table) colorInUse(color uint8, skipIndex int) bool {
	for i, s := range t.slots {
		if i == skipIndex {
			continue
		}
		if s.Status == Occupied && !s.IsObserver() && s.Color == color {
			return true
		}
	}
	return false
}

func (t *Table) firstOpen() int {
	for i, s := range t.slots {
		if s.Status == Open {
			return i
		}
	}
	return -1
}

// Join assigns the first Open slot, per §4.2, rejecting the join when the
// requested team/color/race differ from a fixed-player-settings slot or
// the color is already taken. Returns the slot index and assigned uid.
func (t *Table) Join(name string, team, color uint8, race Race) (int, core.UID, error) {
	idx := t.firstOpen()
	if idx < 0 {
		return -1, 0, fmt.Errorf("slot: join %q: %w", name, ErrFull)
	}
	if t.Layout.FixedPlayerSettings {
		// Fixed-player-settings maps dictate team/color/race from the
		// map's own defaults; a join may not override them.
		want := t.slots[idx]
		if team != want.Team || color != want.Color || race != want.Race {
			return -1, 0, fmt.Errorf("slot: join %q: %w", name, ErrViolatesLayout)
		}
	} else if t.colorInUse(color, -1) {
		return -1, 0, fmt.Errorf("slot: join %q color %d: %w", name, color, ErrConflict)
	}

	uid := t.allocateUID()
	if uid == core.NoUID {
		return -1, 0, fmt.Errorf("slot: join %q: %w", name, ErrFull)
	}

	t.slots[idx] = Slot{
		UID:        uid,
		Status:     Occupied,
		Team:       team,
		Color:      color,
		Race:       race,
		Difficulty: DifficultyNormal,
		Handicap:   100,
		Type:       TypeUser,
	}
	t.markDirty()
	return idx, uid, nil
}

func (t *Table) indexOf(uid core.UID) int {
	for i, s := range t.slots {
		if s.Status == Occupied && s.UID == uid {
			return i
		}
	}
	return -1
}

func (t *Table) checkMutable(idx int) error {
	if t.Layout.FixedPlayerSettings {
		return ErrViolatesLayout
	}
	if idx < 0 || idx >= len(t.slots) || t.slots[idx].Status != Occupied {
		return ErrInvalid
	}
	return nil
}

// ChangeTeam sets uid's slot to team, subject to fixed-player-settings.
func (t *Table) ChangeTeam(uid core.UID, team uint8) error {
	idx := t.indexOf(uid)
	if err := t.checkMutable(idx); err != nil {
		return fmt.Errorf("slot: change team uid=%d: %w", uid, err)
	}
	t.slots[idx].Team = team
	t.markDirty()
	return nil
}

// ChangeColor sets uid's slot to color, rejecting a clash with another
// non-observer occupied slot.
func (t *Table) ChangeColor(uid core.UID, color uint8) error {
	idx := t.indexOf(uid)
	if err := t.checkMutable(idx); err != nil {
		return fmt.Errorf("slot: change color uid=%d: %w", uid, err)
	}
	if color > t.Layout.MaxObserverColor() {
		return fmt.Errorf("slot: change color uid=%d: %w", uid, ErrInvalid)
	}
	if !t.slots[idx].IsObserver() && t.colorInUse(color, idx) {
		return fmt.Errorf("slot: change color uid=%d color=%d: %w", uid, color, ErrConflict)
	}
	t.slots[idx].Color = color
	t.markDirty()
	return nil
}

// ChangeRace sets uid's slot race, subject to fixed-player-settings. The
// Selectable bit of the slot's current race is not checked.
func (t *Table) ChangeRace(uid core.UID, race Race) error {
	idx := t.indexOf(uid)
	if err := t.checkMutable(idx); err != nil {
		return fmt.Errorf("slot: change race uid=%d: %w", uid, err)
	}
	t.slots[idx].Race = race
	t.markDirty()
	return nil
}

// ChangeHandicap sets uid's handicap, which must be a multiple of 10 in
// [50,100].
func (t *Table) ChangeHandicap(uid core.UID, handicap uint8) error {
	idx := t.indexOf(uid)
	if err := t.checkMutable(idx); err != nil {
		return fmt.Errorf("slot: change handicap uid=%d: %w", uid, err)
	}
	if handicap < 50 || handicap > 100 || handicap%10 != 0 {
		return fmt.Errorf("slot: change handicap uid=%d value=%d: %w", uid, handicap, ErrInvalid)
	}
	t.slots[idx].Handicap = handicap
	t.markDirty()
	return nil
}

// SetDownloadPct records a downloader's map-transfer progress (§4.5).
// Unlike the other mutators this does not require checkMutable: a user
// can be mid-download in any slot state short of having left entirely.
func (t *Table) SetDownloadPct(uid core.UID, pct uint8) error {
	idx := t.indexOf(uid)
	if idx < 0 {
		return fmt.Errorf("slot: set download pct uid=%d: %w", uid, ErrInvalid)
	}
	t.slots[idx].DownloadPct = pct
	t.markDirty()
	return nil
}

// Swap exchanges two occupied slots wholesale (uid, team, color, race,
// handicap, computer state all move with the slot contents).
func (t *Table) Swap(a, b core.UID) error {
	ia, ib := t.indexOf(a), t.indexOf(b)
	if ia < 0 || ib < 0 {
		return fmt.Errorf("slot: swap uid=%d,%d: %w", a, b, ErrInvalid)
	}
	t.slots[ia], t.slots[ib] = t.slots[ib], t.slots[ia]
	t.markDirty()
	return nil
}

// Open clears a slot to Open.
func (t *Table) Open(idx int) error {
	if idx < 0 || idx >= len(t.slots) {
		return fmt.Errorf("slot: open %d: %w", idx, ErrInvalid)
	}
	t.slots[idx] = Slot{Status: Open}
	t.markDirty()
	return nil
}

// Close marks a slot Closed (no joins accepted).
func (t *Table) Close(idx int) error {
	if idx < 0 || idx >= len(t.slots) {
		return fmt.Errorf("slot: close %d: %w", idx, ErrInvalid)
	}
	t.slots[idx] = Slot{Status: Closed}
	t.markDirty()
	return nil
}

// Computer fills a slot with a computer of the given difficulty.
func (t *Table) Computer(idx int, difficulty Difficulty) error {
	if idx < 0 || idx >= len(t.slots) {
		return fmt.Errorf("slot: computer %d: %w", idx, ErrInvalid)
	}
	t.slots[idx] = Slot{
		UID:        core.NoUID,
		Status:     Occupied,
		Computer:   true,
		Team:       uint8(idx % max(1, t.Layout.NumTeams)),
		Race:       RaceHuman | RaceSelectable,
		Difficulty: difficulty,
		Handicap:   100,
		Type:       TypeComputer,
	}
	t.markDirty()
	return nil
}

// Leave frees uid's slot back to Open, preserving the invariant that the
// uid can be reassigned on a subsequent join.
func (t *Table) Leave(uid core.UID) error {
	idx := t.indexOf(uid)
	if idx < 0 {
		return fmt.Errorf("slot: leave uid=%d: %w", uid, ErrInvalid)
	}
	t.slots[idx] = Slot{Status: Open}
	t.markDirty()
	return nil
}

// Balance fills remaining Open slots with Normal computers. Re-teaming by
// a configurable policy is left to the caller (the Game aggregate decides
// the policy per host command); Balance only guarantees every Open slot
// becomes Occupied so a lobby can start.
func (t *Table) Balance() {
	for i, s := range t.slots {
		if s.Status == Open {
			t.slots[i] = Slot{
				Status:     Occupied,
				Computer:   true,
				Team:       uint8(i % max(1, t.Layout.NumTeams)),
				Race:       RaceHuman | RaceSelectable,
				Difficulty: DifficultyNormal,
				Handicap:   100,
				Type:       TypeComputer,
			}
		}
	}
	t.markDirty()
}

// CheckInvariants validates the two always-true properties from §8.1:
// unique uids across occupied slots, and unique colors across
// non-observer occupied slots.
func (t *Table) CheckInvariants() error {
	seenUID := make(map[core.UID]bool)
	seenColor := make(map[uint8]bool)
	for _, s := range t.slots {
		if s.Status != Occupied {
			continue
		}
		if s.UID != core.NoUID {
			if seenUID[s.UID] {
				return fmt.Errorf("slot: invariant violated: duplicate uid %d", s.UID)
			}
			seenUID[s.UID] = true
		}
		if !s.IsObserver() {
			if seenColor[s.Color] {
				return fmt.Errorf("slot: invariant violated: duplicate color %d", s.Color)
			}
			seenColor[s.Color] = true
		}
	}
	return nil
}
