package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-assistant/internal/dataset"
	"fpl-assistant/internal/metrics"
)

func newTestStore() *Store {
	return NewStore([]int{5, 17}, metrics.NewRegistry())
}

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestStoreGetSet(t *testing.T) {
	st := newTestStore()

	t.Run("empty store", func(t *testing.T) {
		_, ok := st.Get()
		assert.False(t, ok)
		assert.True(t, st.IsEmpty())
	})

	t.Run("set then get", func(t *testing.T) {
		entry := Entry{
			Snapshot:  &dataset.Dataset{CurrentGW: 13},
			FetchedAt: utc(2025, 11, 10, 6, 0),
			Gameweek:  13,
		}
		st.Set(entry)

		got, ok := st.Get()
		require.True(t, ok)
		assert.Equal(t, 13, got.Gameweek)
		assert.Equal(t, 13, got.Snapshot.CurrentGW)
		assert.False(t, st.IsEmpty())
	})

	t.Run("set replaces wholesale", func(t *testing.T) {
		st.Set(Entry{
			Snapshot:  &dataset.Dataset{CurrentGW: 14},
			FetchedAt: utc(2025, 11, 17, 6, 0),
			Gameweek:  14,
		})

		got, ok := st.Get()
		require.True(t, ok)
		assert.Equal(t, 14, got.Gameweek)
	})
}

func TestStoreShouldRefresh(t *testing.T) {
	t.Run("empty store always refreshes", func(t *testing.T) {
		st := newTestStore()
		assert.True(t, st.ShouldRefresh(utc(2025, 11, 10, 12, 0)))
	})

	t.Run("boundary crossed today", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 10, 4, 0)})

		// 05:00 fell between fetch and now
		assert.True(t, st.ShouldRefresh(utc(2025, 11, 10, 6, 0)))
	})

	t.Run("no boundary crossed", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 10, 6, 0)})

		assert.False(t, st.ShouldRefresh(utc(2025, 11, 10, 16, 59)))
	})

	t.Run("boundary instant counts as crossed", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 10, 6, 0)})

		assert.True(t, st.ShouldRefresh(utc(2025, 11, 10, 17, 0)))
	})

	t.Run("fetch exactly on the boundary does not retrigger", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 10, 5, 0)})

		assert.False(t, st.ShouldRefresh(utc(2025, 11, 10, 5, 0)))
		assert.False(t, st.ShouldRefresh(utc(2025, 11, 10, 16, 0)))
	})

	t.Run("yesterday boundary crossed overnight", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 9, 16, 0)})

		// 17:00 yesterday passed while the process idled overnight
		assert.True(t, st.ShouldRefresh(utc(2025, 11, 10, 2, 0)))
	})

	t.Run("overnight without boundary stays fresh", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 9, 18, 0)})

		assert.False(t, st.ShouldRefresh(utc(2025, 11, 10, 4, 0)))
	})

	t.Run("multi-day gap refreshes", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 1, 18, 0)})

		assert.True(t, st.ShouldRefresh(utc(2025, 11, 10, 2, 0)))
	})

	t.Run("true exactly once per crossed boundary", func(t *testing.T) {
		st := newTestStore()
		st.Set(Entry{FetchedAt: utc(2025, 11, 10, 4, 0)})

		now := utc(2025, 11, 10, 6, 0)
		require.True(t, st.ShouldRefresh(now))

		// A successful refresh resets the window.
		st.Set(Entry{FetchedAt: now})
		assert.False(t, st.ShouldRefresh(now))
		assert.False(t, st.ShouldRefresh(utc(2025, 11, 10, 16, 0)))

		// Next boundary trips again.
		assert.True(t, st.ShouldRefresh(utc(2025, 11, 10, 17, 30)))
	})
}

func TestStoreNextUpdate(t *testing.T) {
	st := newTestStore()

	t.Run("before first trigger", func(t *testing.T) {
		next := st.NextUpdate(utc(2025, 11, 10, 3, 0))
		assert.Equal(t, utc(2025, 11, 10, 5, 0), next)
	})

	t.Run("between triggers", func(t *testing.T) {
		next := st.NextUpdate(utc(2025, 11, 10, 6, 0))
		assert.Equal(t, utc(2025, 11, 10, 17, 0), next)
	})

	t.Run("after last trigger rolls to tomorrow", func(t *testing.T) {
		next := st.NextUpdate(utc(2025, 11, 10, 18, 0))
		assert.Equal(t, utc(2025, 11, 11, 5, 0), next)
	})

	t.Run("unsorted trigger hours", func(t *testing.T) {
		unsorted := NewStore([]int{17, 5}, metrics.NewRegistry())

		next := unsorted.NextUpdate(utc(2025, 11, 10, 3, 0))
		assert.Equal(t, utc(2025, 11, 10, 5, 0), next)

		next = unsorted.NextUpdate(utc(2025, 11, 10, 18, 0))
		assert.Equal(t, utc(2025, 11, 11, 5, 0), next)
	})
}

func TestStoreItems(t *testing.T) {
	st := newTestStore()

	t.Run("set and get", func(t *testing.T) {
		st.SetItem("headline", "Haaland hat-trick reshapes captaincy picks")

		v, ok := st.GetItem("headline")
		require.True(t, ok)
		assert.Equal(t, "Haaland hat-trick reshapes captaincy picks", v)
	})

	t.Run("missing key", func(t *testing.T) {
		_, ok := st.GetItem("missing")
		assert.False(t, ok)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		assert.True(t, st.DeleteItem("headline"))
		assert.False(t, st.DeleteItem("headline"))

		_, ok := st.GetItem("headline")
		assert.False(t, ok)
	})
}

func TestStoreConcurrentReadersDuringSwap(t *testing.T) {
	st := newTestStore()
	st.Set(Entry{Snapshot: &dataset.Dataset{CurrentGW: 1}, Gameweek: 1})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers must always observe a complete entry.
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				entry, ok := st.Get()
				if ok {
					assert.Equal(t, entry.Gameweek, entry.Snapshot.CurrentGW)
				}
			}
		}()
	}

	for gw := 2; gw <= 50; gw++ {
		st.Set(Entry{Snapshot: &dataset.Dataset{CurrentGW: gw}, Gameweek: gw})
	}
	close(stop)
	wg.Wait()
}
