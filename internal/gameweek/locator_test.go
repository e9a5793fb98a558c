package gameweek

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
)

/* ---------------- Mock Prober ---------------- */

type mockProber struct {
	available map[int]bool
	probed    []int
	err       error
}

func (m *mockProber) GameweekExists(ctx context.Context, gw int) (bool, error) {
	m.probed = append(m.probed, gw)
	if m.err != nil {
		return false, m.err
	}
	return m.available[gw], nil
}

func newTestLocator(p Prober) *Locator {
	return NewLocator(
		p,
		time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC),
		10,
		logs.NewLogger(100, logs.DEBUG),
		metrics.NewRegistry(),
	)
}

/* ---------------- Tests ---------------- */

func TestEstimate(t *testing.T) {
	seasonStart := time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC)

	t.Run("mid-season", func(t *testing.T) {
		// 86 days in: floor(86/7)+1 = 13
		now := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 13, Estimate(seasonStart, now))
	})

	t.Run("season opening day", func(t *testing.T) {
		assert.Equal(t, 1, Estimate(seasonStart, seasonStart))
	})

	t.Run("before season clamps to 1", func(t *testing.T) {
		now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 1, Estimate(seasonStart, now))
	})

	t.Run("far future clamps to 38", func(t *testing.T) {
		now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 38, Estimate(seasonStart, now))
	})
}

func TestSearchOrder(t *testing.T) {
	t.Run("alternates outward from estimate", func(t *testing.T) {
		order := SearchOrder(10, 4)
		assert.Equal(t, []int{10, 11, 9, 12, 8, 13, 7}, order)
	})

	t.Run("clips at season start", func(t *testing.T) {
		order := SearchOrder(1, 3)
		assert.Equal(t, []int{1, 2, 3}, order)
	})

	t.Run("clips at season end", func(t *testing.T) {
		order := SearchOrder(38, 3)
		assert.Equal(t, []int{38, 37, 36}, order)
	})
}

func TestLocate(t *testing.T) {
	// now chosen so the estimate is 13
	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)

	t.Run("probes in outward order", func(t *testing.T) {
		prober := &mockProber{available: map[int]bool{}}
		loc := newTestLocator(prober)

		loc.Locate(context.Background(), now)

		require.GreaterOrEqual(t, len(prober.probed), 5)
		assert.Equal(t, []int{13, 14, 12, 15, 11}, prober.probed[:5])
	})

	t.Run("highest available round wins", func(t *testing.T) {
		// both 12 and 14 published; 14 must win even though 12 is
		// probed earlier in some orders
		prober := &mockProber{available: map[int]bool{12: true, 14: true}}
		loc := newTestLocator(prober)

		assert.Equal(t, 14, loc.Locate(context.Background(), now))
	})

	t.Run("hit below estimate", func(t *testing.T) {
		prober := &mockProber{available: map[int]bool{12: true}}
		loc := newTestLocator(prober)

		assert.Equal(t, 12, loc.Locate(context.Background(), now))
	})

	t.Run("reverse scan fallback", func(t *testing.T) {
		// only GW2 published, well outside the probe budget around 13
		prober := &mockProber{available: map[int]bool{2: true}}
		reg := metrics.NewRegistry()
		loc := NewLocator(prober, time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC), 10,
			logs.NewLogger(100, logs.DEBUG), reg)

		assert.Equal(t, 2, loc.Locate(context.Background(), now))
		assert.Equal(t, int64(1), reg.Get(metrics.ProbeExhaustedTotal))
	})

	t.Run("falls back to last known-good", func(t *testing.T) {
		prober := &mockProber{available: map[int]bool{13: true}}
		loc := newTestLocator(prober)

		require.Equal(t, 13, loc.Locate(context.Background(), now))

		// upstream disappears entirely; keep serving the last answer
		prober.available = map[int]bool{}
		assert.Equal(t, 13, loc.Locate(context.Background(), now))
	})

	t.Run("defaults to gameweek 1 with no history", func(t *testing.T) {
		prober := &mockProber{available: map[int]bool{}}
		loc := newTestLocator(prober)

		assert.Equal(t, 1, loc.Locate(context.Background(), now))
	})

	t.Run("probe errors are treated as misses", func(t *testing.T) {
		prober := &mockProber{err: assert.AnError}
		loc := newTestLocator(prober)

		assert.Equal(t, 1, loc.Locate(context.Background(), now))
	})
}
