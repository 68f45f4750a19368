package game

import (
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/gproxy"
)

// KickReason is a bitset of accumulated reasons a user may be removed
// for (§3 User).
type KickReason uint8

const (
	KickMapMissing KickReason = 1 << iota
	KickHighPing
	KickSpoofer
	KickAbuser
	KickAntishare
)

// User is a human participant (§3). Held by the Game in its Users map,
// keyed by uid; never holds a pointer back to its Game (see
// core.GameHandle).
type User struct {
	UID         core.UID
	Name        string
	SlotIndex   int
	JoinCounter uint32
	ExternalIP  [4]byte
	InternalIP  [4]byte
	GameVersion uint32

	RTTSamples      []int32 // ring of up to 10 round-trip measurements
	DownloadPct     uint8
	MapChecked      bool
	MapReady        bool
	FinishedLoading bool

	StartedLaggingTicks int64
	KickReasons         KickReason

	GProxy *gproxy.Session

	Disconnected             bool
	Leaving                  bool
	disconnectedAtBroadcast  uint64
}

const maxRTTSamples = 10

// RecordRTT appends one round-trip sample, keeping only the most recent
// maxRTTSamples.
func (u *User) RecordRTT(sampleMS int32) {
	u.RTTSamples = append(u.RTTSamples, sampleMS)
	if len(u.RTTSamples) > maxRTTSamples {
		u.RTTSamples = u.RTTSamples[len(u.RTTSamples)-maxRTTSamples:]
	}
}

// HasKickReason reports whether r is set in the user's accumulated
// kick-reason bitset.
func (u *User) HasKickReason(r KickReason) bool {
	return u.KickReasons&r != 0
}

// Spectator (AsyncObserver in the original) receives the live broadcast
// but whose actions, if any arrive, are discarded (§3).
type Spectator struct {
	Name            string
	HistoryCursor   int
	DownloadPct     uint8
	MapChecked      bool
	MapReady        bool
	FinishedLoading bool
}
