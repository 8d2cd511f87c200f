// Package quota tracks daily API usage budgets. The counter resets the first
// time it is consulted on a new calendar day, so it stays correct across
// process restarts without a background timer.
package quota

import (
	"sync"
	"time"

	"github.com/tech2news/technews/internal/logger"
)

// Tracker is a daily usage counter for a unit-metered API.
type Tracker struct {
	mu        sync.Mutex
	used      int
	limit     int
	lastReset time.Time
	now       func() time.Time
}

// New creates a tracker with the given daily unit limit. A limit of 0 denies
// every request.
func New(limit int) *Tracker {
	return &Tracker{
		limit:     limit,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// NewWithClock creates a tracker with an injectable clock, for tests.
func NewWithClock(limit int, now func() time.Time) *Tracker {
	return &Tracker{limit: limit, lastReset: now(), now: now}
}

// Allow reports whether a request of n units fits in today's budget and, if
// so, counts it.
func (t *Tracker) Allow(n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkReset()

	if t.used+n > t.limit {
		logger.Warn("daily quota exceeded", "used", t.used, "requested", n, "limit", t.limit)
		return false
	}
	t.used += n
	logger.Debug("quota consumed", "used", t.used, "limit", t.limit)
	return true
}

// Used returns today's consumed units.
func (t *Tracker) Used() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkReset()
	return t.used
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int {
	return t.limit
}

// checkReset zeroes the counter when the calendar day has changed since the
// last reset. Callers must hold the mutex.
func (t *Tracker) checkReset() {
	now := t.now()
	y1, m1, d1 := t.lastReset.Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		logger.Info("resetting daily quota counter", "previous_used", t.used)
		t.used = 0
		t.lastReset = now
	}
}
