package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	EmptyCycles        int64
	ItemsFiltered      int64
	DuplicatesSkipped  int64
	GenerationFailures int64
	StoreWrites        int64
	StoreErrors        int64

	// Timings
	LastRunDuration    time.Duration
	AverageRunDuration time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) IncrementRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRuns++
}

func (m *Metrics) IncrementEmptyCycles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmptyCycles++
}

func (m *Metrics) IncrementItemsFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFiltered++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementGenerationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerationFailures++
}

func (m *Metrics) IncrementStoreWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreWrites++
}

func (m *Metrics) IncrementStoreErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreErrors++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

// Healthy reports the current health flag under the lock.
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

// LastRun returns when the last cycle completed successfully.
func (m *Metrics) LastRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRunTime
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_runs":              m.TotalRuns,
		"empty_cycles":            m.EmptyCycles,
		"items_filtered":          m.ItemsFiltered,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"generation_failures":     m.GenerationFailures,
		"store_writes":            m.StoreWrites,
		"store_errors":            m.StoreErrors,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
