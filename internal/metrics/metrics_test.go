package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersAndStats(t *testing.T) {
	m := New()
	m.IncrementRuns()
	m.IncrementRuns()
	m.IncrementEmptyCycles()
	m.IncrementDuplicatesSkipped()
	m.IncrementStoreWrites()
	m.RecordRunDuration(100 * time.Millisecond)
	m.RecordRunDuration(300 * time.Millisecond)

	stats := m.GetStats()

	assert.EqualValues(t, 2, stats["total_runs"])
	assert.EqualValues(t, 1, stats["empty_cycles"])
	assert.EqualValues(t, 1, stats["duplicates_skipped"])
	assert.EqualValues(t, 1, stats["store_writes"])
	assert.EqualValues(t, 300, stats["last_run_duration_ms"])
	assert.EqualValues(t, 200, stats["average_run_duration_ms"])
	assert.Equal(t, true, stats["is_healthy"])
}

func TestSetErrorMarksUnhealthy(t *testing.T) {
	m := New()
	m.SetError("database unavailable")

	assert.False(t, m.IsHealthy)
	assert.Equal(t, "database unavailable", m.LastError)

	m.SetLastRun()
	assert.True(t, m.IsHealthy)
}

func TestStatusAccessorsSafeUnderConcurrentWrites(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.SetLastRun()
			m.SetError("store unavailable")
		}
	}()
	for i := 0; i < 500; i++ {
		_ = m.Healthy()
		_ = m.LastRun()
	}
	wg.Wait()

	assert.False(t, m.Healthy())
	assert.False(t, m.LastRun().IsZero())
}
