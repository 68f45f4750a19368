package action

import (
	"time"

	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/protocol"
)

const (
	pauseOpcode  = 0x01
	resumeOpcode = 0x02
)

// TickResult is what one Engine.Tick call hands back to the caller: the
// wire-ready sub-packets for the frame that just closed, and its
// callback (pause/resume/leaver) for the Game aggregate to act on.
type TickResult struct {
	WirePackets [][]byte
	Callback    Callback
}

// Engine is the ActionFrame sequencing engine (§4.3). Not safe for
// concurrent use: every method runs on the owning Game's tick goroutine.
type Engine struct {
	latencyMS uint16

	// ring holds equalizerDepth+1 live frames; ring[0] is broadcast on
	// the next Tick, new actions for offset d route to ring[d].
	ring []*Frame

	offsets        map[core.UID]int
	remainingPause map[core.UID]int
	defaultPauses  int

	broadcastCounter uint64
	quota            *APMQuota
}

// NewEngine builds an engine with a single live frame (no ping
// equalizer) at the given latency.
func NewEngine(latencyMS uint16, defaultRemainingPauses int) *Engine {
	return &Engine{
		latencyMS:      latencyMS,
		ring:           []*Frame{{}},
		offsets:        make(map[core.UID]int),
		remainingPause: make(map[core.UID]int),
		defaultPauses:  defaultRemainingPauses,
	}
}

// SetAPMQuota installs the optional per-user action rate limiter.
func (e *Engine) SetAPMQuota(q *APMQuota) {
	e.quota = q
}

// EnableEqualizer resizes the ring to hold depth+1 live frames (§4.3
// rule 3). Existing frame contents are preserved at their current
// position; new slots start empty.
func (e *Engine) EnableEqualizer(depth int) {
	if depth < 0 {
		depth = 0
	}
	want := depth + 1
	if want == len(e.ring) {
		return
	}
	next := make([]*Frame, want)
	for i := range next {
		if i < len(e.ring) {
			next[i] = e.ring[i]
		} else {
			next[i] = &Frame{}
		}
	}
	e.ring = next
}

// SetOffset assigns uid's static per-slot equalizer offset; 0 means
// "now" (the default for every user until set otherwise).
func (e *Engine) SetOffset(uid core.UID, offset int) {
	e.offsets[uid] = offset
}

// BroadcastCounter returns the monotonic index of the next frame to be
// sent.
func (e *Engine) BroadcastCounter() uint64 {
	return e.broadcastCounter
}

// PeekCallback reports the callback attached to the head frame (the one
// the next Tick will close and broadcast) without closing it. The Game
// aggregate uses this while paused to detect a queued resume action
// before it actually calls Tick again (§4.4 rule 4: game time must not
// advance between pause and resume).
func (e *Engine) PeekCallback() Callback {
	return e.ring[0].Callback
}

func (e *Engine) ringIndexFor(uid core.UID) int {
	offset := e.offsets[uid]
	if offset < 0 {
		offset = 0
	}
	if offset >= len(e.ring) {
		offset = len(e.ring) - 1
	}
	return offset
}

// QueueResult reports what happened to a queued action, for logging and
// for the Game aggregate to act on (kick) when quota mode is Kick.
type QueueResult struct {
	Queued bool
	Kick   bool
}

// QueueAction appends an outgoing action to the appropriate live frame
// for uid, applying APM quota and pause/resume sniffing (§4.3 rules 4
// and 5). A user's first pause action initializes their pause quota
// from defaultPauses.
func (e *Engine) QueueAction(uid core.UID, data []byte, now time.Time) QueueResult {
	if proceed, kick := e.quota.Allow(uid, now); !proceed {
		return QueueResult{Kick: kick}
	}

	frame := e.ring[e.ringIndexFor(uid)]

	if len(data) > 0 {
		switch data[0] {
		case pauseOpcode:
			if _, seen := e.remainingPause[uid]; !seen {
				e.remainingPause[uid] = e.defaultPauses
			}
			if e.remainingPause[uid] <= 0 {
				// quota exhausted: drop silently, action never enters
				// any frame (§8.3 pause-quota example).
				return QueueResult{}
			}
			e.remainingPause[uid]--
			frame.Callback = Callback{Kind: CallbackPause, UID: uid}
		case resumeOpcode:
			frame.Callback = Callback{Kind: CallbackResume, UID: uid}
		}
	}

	frame.Append(protocol.ActionSubPacket{UID: uid, Data: data})
	return QueueResult{Queued: true}
}

// RemainingPauses reports uid's current pause quota (for tests and
// diagnostics).
func (e *Engine) RemainingPauses(uid core.UID) int {
	if v, ok := e.remainingPause[uid]; ok {
		return v
	}
	return e.defaultPauses
}

// AttachLeaverCallback walks the still-pending frames (newest first)
// looking for the latest one carrying an action from uid, and attaches
// the leaver notice there so PLAYERLEAVE_OTHERS is deferred correctly
// (§4.4, §8.1 invariant 6). Returns false if no pending frame carries
// uid's actions, meaning the caller should notify immediately.
func (e *Engine) AttachLeaverCallback(uid core.UID) bool {
	for i := len(e.ring) - 1; i >= 0; i-- {
		frame := e.ring[i]
		for _, sub := range frame.SubPackets {
			for _, entry := range sub {
				if entry.UID == uid {
					frame.Callback = Callback{Kind: CallbackLeaver, UID: uid}
					return true
				}
			}
		}
	}
	return false
}

// Forget releases per-user bookkeeping (offset, pause quota, APM
// limiter) for a departed uid.
func (e *Engine) Forget(uid core.UID) {
	delete(e.offsets, uid)
	delete(e.remainingPause, uid)
	e.quota.Forget(uid)
}

// Tick closes the head frame (ring[0]), serializes it to wire bytes,
// shifts the ring, and opens a fresh empty frame at the tail. Per §4.3
// rule 6, this runs unconditionally every tick even when nothing was
// queued, so clients' simulation clocks keep advancing.
func (e *Engine) Tick() (TickResult, error) {
	head := e.ring[0]
	wire, err := head.Encode(e.latencyMS)
	if err != nil {
		return TickResult{}, err
	}

	copy(e.ring, e.ring[1:])
	e.ring[len(e.ring)-1] = &Frame{}
	e.broadcastCounter++

	return TickResult{WirePackets: wire, Callback: head.Callback}, nil
}
