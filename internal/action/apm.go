package action

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/wc3hostbot/core/internal/core"
)

// QuotaMode selects what happens when a user's APM bucket is empty.
type QuotaMode uint8

const (
	// QuotaRestrict drops the action silently; it never enters a frame.
	QuotaRestrict QuotaMode = iota
	// QuotaKick marks the user for disconnection.
	QuotaKick
)

// APMQuota is the optional per-user token-bucket action limiter (§4.3
// rule 5). actionsPerMinute tokens refill continuously; every countable
// action consumes one.
type APMQuota struct {
	mode     QuotaMode
	limiters map[core.UID]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewAPMQuota builds a quota that allows actionsPerMinute sustained,
// with a burst allowance of burst tokens.
func NewAPMQuota(actionsPerMinute int, burst int, mode QuotaMode) *APMQuota {
	return &APMQuota{
		mode:     mode,
		limiters: make(map[core.UID]*rate.Limiter),
		rate:     rate.Limit(float64(actionsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (q *APMQuota) limiterFor(uid core.UID) *rate.Limiter {
	l, ok := q.limiters[uid]
	if !ok {
		l = rate.NewLimiter(q.rate, q.burst)
		q.limiters[uid] = l
	}
	return l
}

// Allow consumes one token for uid, reporting whether the action may
// proceed and whether the caller should instead kick the user (only
// possible when mode is QuotaKick and the bucket was empty).
func (q *APMQuota) Allow(uid core.UID, now time.Time) (proceed, kick bool) {
	if q == nil {
		return true, false
	}
	if q.limiterFor(uid).AllowN(now, 1) {
		return true, false
	}
	if q.mode == QuotaKick {
		return false, true
	}
	return false, false
}

// Forget releases a departed user's limiter.
func (q *APMQuota) Forget(uid core.UID) {
	if q == nil {
		return
	}
	delete(q.limiters, uid)
}
