package game

import (
	"time"

	"github.com/wc3hostbot/core/internal/core"
)

// toStdTime adapts a core.Tick (an opaque monotonic ms counter) to the
// time.Time the golang.org/x/time/rate limiters inside action.APMQuota
// expect. The APM quota only ever compares deltas between successive
// calls, so the epoch is arbitrary as long as it is consistent.
func toStdTime(t core.Tick) time.Time {
	return time.UnixMilli(int64(t))
}
