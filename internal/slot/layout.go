package slot

// Layout is the immutable, map-derived slot layout (§3 SlotLayout).
type Layout struct {
	CustomForces       bool
	FixedPlayerSettings bool
	FixedTeams         bool
	NumControllers     int
	NumTeams           int
	// ModernVersion selects the version-aware color range: modern clients
	// (referees/observers) use colors 12..23; legacy clients only ever
	// had colors 0..11. The original implementation's call sites mixed
	// the two ranges without checking version first (§9 Open Questions);
	// this type makes the choice explicit and applies it uniformly
	// everywhere a color conflict is computed.
	ModernVersion bool
}

// MaxSlots returns the slot table size for this layout's game version:
// 24 for modern clients, 12 for legacy ones.
func (l Layout) MaxSlots() int {
	if l.ModernVersion {
		return 24
	}
	return 12
}

// MaxObserverColor returns the highest valid observer color index.
func (l Layout) MaxObserverColor() uint8 {
	if l.ModernVersion {
		return 23
	}
	return 11
}

// ByteValue encodes the layout's wire byte: 0 melee, 1 custom-forces,
// 3 custom-forces+fixed-player-settings.
func (l Layout) ByteValue() uint8 {
	switch {
	case l.CustomForces && l.FixedPlayerSettings:
		return 3
	case l.CustomForces:
		return 1
	default:
		return 0
	}
}
