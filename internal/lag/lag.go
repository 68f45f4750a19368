// Package lag implements the keep-alive / desync / lag-screen subsystem
// (§4.4): per-user sync-counter tracking that drives the Lagging/Normal
// state machine, and a checksum ring buffer that detects when clients'
// simulations have desynchronized.
package lag

import (
	"github.com/wc3hostbot/core/internal/core"
)

// State is a user's lag-screen state.
type State uint8

const (
	Normal State = iota
	Lagging
)

func (s State) String() string {
	if s == Lagging {
		return "lagging"
	}
	return "normal"
}

// userState is the per-user bookkeeping the manager owns.
type userState struct {
	syncCounter       uint64
	syncCounterOffset int64
	state             State
	startedLaggingAt  core.Tick
	checksums         []uint32
}

// normalSyncCounter applies the gproxy-reconnect forgiveness offset.
func (u *userState) normalSyncCounter() int64 {
	return int64(u.syncCounter) + u.syncCounterOffset
}

// Manager is the lag/desync tracker for one game. Not safe for
// concurrent use; driven from the owning Game's tick loop.
type Manager struct {
	users         map[core.UID]*userState
	syncLimit     uint64
	syncLimitSafe uint64
	checkedUpTo   int
	desynced      bool
}

// NewManager builds a manager with the given sync-limit bounds (§4.4
// latency governance: sync_limit triggers Lagging, sync_limit_safe
// clears it).
func NewManager(syncLimit, syncLimitSafe uint64) *Manager {
	return &Manager{
		users:         make(map[core.UID]*userState),
		syncLimit:     syncLimit,
		syncLimitSafe: syncLimitSafe,
	}
}

// Register starts tracking a new user at sync_counter 0.
func (m *Manager) Register(uid core.UID) {
	m.users[uid] = &userState{}
}

// Forget stops tracking a departed user.
func (m *Manager) Forget(uid core.UID) {
	delete(m.users, uid)
}

// State reports uid's current lag-screen state.
func (m *Manager) State(uid core.UID) State {
	if u, ok := m.users[uid]; ok {
		return u.state
	}
	return Normal
}

// SyncCounter reports uid's raw keep-alive count.
func (m *Manager) SyncCounter(uid core.UID) uint64 {
	if u, ok := m.users[uid]; ok {
		return u.syncCounter
	}
	return 0
}

// ReceiveKeepAlive records one OUTGOING_KEEPALIVE: bumps sync_counter and
// appends the checksum to uid's ring for desync comparison.
func (m *Manager) ReceiveKeepAlive(uid core.UID, checksum uint32) {
	u, ok := m.users[uid]
	if !ok {
		u = &userState{}
		m.users[uid] = u
	}
	u.syncCounter++
	u.checksums = append(u.checksums, checksum)
}

// ForgiveGap widens uid's sync_counter_offset by missedIntervals, called
// when a GProxy user reconnects after a gap (§5.1).
func (m *Manager) ForgiveGap(uid core.UID, missedIntervals int64) {
	if u, ok := m.users[uid]; ok {
		u.syncCounterOffset += missedIntervals
	}
}

// Transition is the result of Evaluate: whether uid's state changed this
// tick, and if so, to what.
type Transition struct {
	Changed bool
	State   State
	// LaggingTicks is set on a Lagging->Normal transition: the duration
	// (in ticks) the user spent lagging, for STOP_LAG(user, duration).
	LaggingTicks int64
}

// Evaluate runs the Normal<->Lagging transition rule for uid at the
// given broadcast counter and current tick (§4.4 transitions).
func (m *Manager) Evaluate(uid core.UID, broadcastCounter uint64, now core.Tick) Transition {
	u, ok := m.users[uid]
	if !ok {
		return Transition{}
	}
	behind := int64(broadcastCounter) - u.normalSyncCounter()

	switch u.state {
	case Normal:
		if behind > int64(m.syncLimit) {
			u.state = Lagging
			u.startedLaggingAt = now
			return Transition{Changed: true, State: Lagging}
		}
	case Lagging:
		if behind <= int64(m.syncLimitSafe) {
			u.state = Normal
			duration := now.Since(u.startedLaggingAt)
			return Transition{Changed: true, State: Normal, LaggingTicks: duration}
		}
	}
	return Transition{}
}

// DesyncResult reports a newly detected desynchronization at one
// checksum position, naming the minority uids (the ones whose checksum
// did not match the majority value).
type DesyncResult struct {
	Desynced  bool
	Position  int
	Minority  []core.UID
}

// CheckDesync compares every registered user's checksum ring at the next
// unverified position once all users have reported a checksum there
// (§4.4 checksum desync detection). Call after every ReceiveKeepAlive;
// it is a no-op until the slowest user catches up.
func (m *Manager) CheckDesync() DesyncResult {
	if m.desynced || len(m.users) == 0 {
		return DesyncResult{}
	}

	minCount := -1
	for _, u := range m.users {
		if minCount == -1 || len(u.checksums) < minCount {
			minCount = len(u.checksums)
		}
	}
	if minCount <= m.checkedUpTo {
		return DesyncResult{}
	}

	pos := m.checkedUpTo
	m.checkedUpTo++

	counts := make(map[uint32][]core.UID)
	for uid, u := range m.users {
		value := u.checksums[pos]
		counts[value] = append(counts[value], uid)
	}
	if len(counts) <= 1 {
		return DesyncResult{}
	}

	var majorityValue uint32
	majoritySize := -1
	for value, uids := range counts {
		if len(uids) > majoritySize {
			majoritySize = len(uids)
			majorityValue = value
		}
	}

	var minority []core.UID
	for value, uids := range counts {
		if value != majorityValue {
			minority = append(minority, uids...)
		}
	}

	m.desynced = true
	return DesyncResult{Desynced: true, Position: pos, Minority: minority}
}

// Desynced reports whether a mismatch has ever been detected.
func (m *Manager) Desynced() bool {
	return m.desynced
}
