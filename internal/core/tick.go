// Package core holds types shared by every game-session subsystem: the
// monotonic tick clock, the opaque game handle, numeric identity newtypes,
// and the error taxonomy.
package core

// Tick is a monotonic millisecond timestamp threaded through every per-tick
// dispatch. Nothing in the core calls a wall-clock function directly;
// callers derive Tick once per outer loop iteration and pass it down, which
// keeps time comparisons explicit and deterministic under test.
type Tick int64

// Since returns the number of milliseconds elapsed from earlier to t.
// Negative if earlier is after t.
func (t Tick) Since(earlier Tick) int64 {
	return int64(t) - int64(earlier)
}

// Add returns the tick ms milliseconds after t.
func (t Tick) Add(ms int64) Tick {
	return Tick(int64(t) + ms)
}
