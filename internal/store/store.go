package store

import (
	"sort"
	"sync"
	"time"

	"fpl-assistant/internal/metrics"
)

// Store holds the most recent dataset snapshot plus a small keyed
// side-cache for derived items (headlines, rendered fragments).
//
// Design principles:
// - Read-mostly, write-rare: refreshes only hold the lock for the
//   pointer swap, never across a network fetch.
// - The snapshot is replaced atomically; readers never observe a
//   partially written entry.
// - Entries live for the process lifetime; a failed refresh leaves
//   the previous entry in place.
type Store struct {
	mu      sync.RWMutex
	entry   *Entry
	items   map[string]any
	hours   []int // refresh trigger hours, UTC, ascending
	metrics *metrics.Registry
}

// NewStore creates a store that considers itself stale once any of the
// given UTC trigger hours has been crossed since the last refresh.
func NewStore(updateHoursUTC []int, metricsRegistry *metrics.Registry) *Store {
	hours := make([]int, len(updateHoursUTC))
	copy(hours, updateHoursUTC)
	sort.Ints(hours) // NextUpdate scans in ascending order
	return &Store{
		items:   make(map[string]any),
		hours:   hours,
		metrics: metricsRegistry,
	}
}

// Get returns the current entry, if one has ever been published.
func (s *Store) Get() (Entry, bool) {
	s.metrics.Inc(metrics.CacheReadsTotal)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entry == nil {
		s.metrics.Inc(metrics.CacheMissesTotal)
		return Entry{}, false
	}
	return *s.entry, true
}

// Set publishes a new entry, replacing any previous one.
func (s *Store) Set(entry Entry) {
	s.mu.Lock()
	s.entry = &entry
	s.mu.Unlock()

	s.metrics.Inc(metrics.CacheSwapsTotal)
}

// IsEmpty reports whether no snapshot has been published yet.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry == nil
}

// ShouldRefresh reports whether a refresh is due at now: true when the
// store is empty, or when any configured trigger hour fell in the
// window (FetchedAt, now]. Checking today's and yesterday's boundaries
// covers fetch gaps of up to a full day; anything older trips the
// yesterday check anyway because FetchedAt precedes it.
func (s *Store) ShouldRefresh(now time.Time) bool {
	s.mu.RLock()
	entry := s.entry
	s.mu.RUnlock()

	if entry == nil {
		return true
	}

	now = now.UTC()
	fetched := entry.FetchedAt.UTC()

	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		for _, hour := range s.hours {
			boundary := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
			if fetched.Before(boundary) && !now.Before(boundary) {
				return true
			}
		}
	}
	return false
}

// NextUpdate returns the next trigger instant strictly after now.
func (s *Store) NextUpdate(now time.Time) time.Time {
	now = now.UTC()

	for _, hour := range s.hours {
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
		if next.After(now) {
			return next
		}
	}

	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), s.hours[0], 0, 0, 0, time.UTC)
}

// GetItem returns a side-cache item by key.
func (s *Store) GetItem(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok
}

// SetItem stores a side-cache item under key.
func (s *Store) SetItem(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; !exists {
		s.metrics.Inc(metrics.CacheItemsTotal)
	}
	s.items[key] = value
}

// DeleteItem removes a side-cache item, reporting whether it existed.
func (s *Store) DeleteItem(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		delete(s.items, key)
		s.metrics.Add(metrics.CacheItemsTotal, -1)
		return true
	}
	return false
}
