package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	tr := New(300)

	assert.True(t, tr.Allow(100))
	assert.True(t, tr.Allow(100))
	assert.True(t, tr.Allow(100))
	assert.Equal(t, 300, tr.Used())
}

func TestAllowDeniesOverLimit(t *testing.T) {
	tr := New(250)

	assert.True(t, tr.Allow(100))
	assert.True(t, tr.Allow(100))
	assert.False(t, tr.Allow(100), "used+requested exceeds limit")
	assert.Equal(t, 200, tr.Used(), "denied requests do not consume units")
}

func TestZeroLimitDeniesEverything(t *testing.T) {
	tr := New(0)

	assert.False(t, tr.Allow(100))
	assert.False(t, tr.Allow(1))
}

func TestResetsOnNewCalendarDay(t *testing.T) {
	now := time.Date(2025, time.March, 3, 23, 50, 0, 0, time.UTC)
	tr := NewWithClock(200, func() time.Time { return now })

	assert.True(t, tr.Allow(100))
	assert.True(t, tr.Allow(100))
	assert.False(t, tr.Allow(100))

	// Ten minutes later it is a new day; the counter resets on first use.
	now = now.Add(10 * time.Minute)
	assert.True(t, tr.Allow(100))
	assert.Equal(t, 100, tr.Used())
}

func TestNoResetWithinSameDay(t *testing.T) {
	now := time.Date(2025, time.March, 3, 1, 0, 0, 0, time.UTC)
	tr := NewWithClock(100, func() time.Time { return now })

	assert.True(t, tr.Allow(100))
	now = now.Add(12 * time.Hour)
	assert.False(t, tr.Allow(1))
}
