package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Dataset cache
	CacheReadsTotal  MetricKey = "cache_reads_total"
	CacheMissesTotal MetricKey = "cache_misses_total"
	CacheSwapsTotal  MetricKey = "cache_swaps_total"
	CacheItemsTotal  MetricKey = "cache_items_total"

	// Scheduled refresh
	RefreshRunsTotal    MetricKey = "refresh_runs_total"
	RefreshSuccessTotal MetricKey = "refresh_success_total"
	RefreshFailureTotal MetricKey = "refresh_failure_total"
	RefreshForcedTotal  MetricKey = "refresh_forced_total"

	// Gameweek probing
	ProbeAttemptsTotal  MetricKey = "probe_attempts_total"
	ProbeMissesTotal    MetricKey = "probe_misses_total"
	ProbeExhaustedTotal MetricKey = "probe_exhausted_total"

	// Outbound fetches
	FetchRequestsTotal MetricKey = "fetch_requests_total"
	FetchRetriesTotal  MetricKey = "fetch_retries_total"
	FetchErrorsTotal   MetricKey = "fetch_errors_total"
)

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	var val int64
	r.counters[key] = &val
	atomic.AddInt64(&val, delta)
}

// Get returns the current value of a metric (0 if never recorded).
func (r *Registry) Get(key MetricKey) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ptr, ok := r.counters[key]; ok {
		return atomic.LoadInt64(ptr)
	}
	return 0
}
