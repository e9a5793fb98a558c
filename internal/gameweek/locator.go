package gameweek

import (
	"context"
	"time"

	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
)

// Season bounds: gameweeks run 1 through 38.
const (
	MinGameweek = 1
	MaxGameweek = 38
)

// Prober checks whether a gameweek has a published, non-placeholder
// data file. A false return with nil error means "not there yet",
// which is the expected state for future rounds.
type Prober interface {
	GameweekExists(ctx context.Context, gw int) (bool, error)
}

// Locator finds the latest gameweek with published data. Upstream
// publishes files some time after each round, so the calendar estimate
// is only a starting point for the search.
type Locator struct {
	prober      Prober
	seasonStart time.Time
	budget      int // offsets probed either side of the estimate
	logger      *logs.Logger
	metrics     *metrics.Registry

	lastKnownGood int
}

// NewLocator creates a locator probing up to budget offsets around the
// estimate before falling back to a full reverse scan.
func NewLocator(
	prober Prober,
	seasonStart time.Time,
	budget int,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Locator {
	return &Locator{
		prober:      prober,
		seasonStart: seasonStart,
		budget:      budget,
		logger:      logger,
		metrics:     metricsRegistry,
	}
}

// Estimate computes floor(days since seasonStart / 7) + 1, clamped to
// the season bounds.
func Estimate(seasonStart, now time.Time) int {
	weeks := int(now.Sub(seasonStart).Hours() / 24 / 7)
	gw := weeks + 1
	if gw < MinGameweek {
		return MinGameweek
	}
	if gw > MaxGameweek {
		return MaxGameweek
	}
	return gw
}

// SearchOrder returns the probe sequence for an estimate: the estimate
// itself, then +1, -1, +2, -2, ... out to budget offsets, skipping
// anything outside season bounds. The true value is usually within a
// round or two of the estimate, so this beats a linear scan from GW1.
func SearchOrder(estimate, budget int) []int {
	order := []int{estimate}
	for offset := 1; offset < budget; offset++ {
		if estimate+offset <= MaxGameweek {
			order = append(order, estimate+offset)
		}
		if estimate-offset >= MinGameweek {
			order = append(order, estimate-offset)
		}
	}
	return order
}

// Locate returns the latest gameweek with a published data file.
//
// All probed rounds are checked and the HIGHEST hit wins, because a
// hit below the estimate does not rule out a newer file above it.
// If nothing near the estimate hits, a full reverse scan from GW38
// runs as a last resort; failing that, the last known-good gameweek
// (or GW1) is returned so a refresh can still proceed.
func (l *Locator) Locate(ctx context.Context, now time.Time) int {
	estimate := Estimate(l.seasonStart, now)
	l.logger.Infof("estimated gameweek %d, probing nearby rounds", estimate)

	latest := 0
	for _, gw := range SearchOrder(estimate, l.budget) {
		if l.exists(ctx, gw) {
			if gw > latest {
				latest = gw
			}
		}
	}
	if latest > 0 {
		l.logger.Infof("latest available gameweek: %d", latest)
		l.lastKnownGood = latest
		return latest
	}

	l.metrics.Inc(metrics.ProbeExhaustedTotal)
	l.logger.Warn("probe budget exhausted, starting full reverse scan")

	for gw := MaxGameweek; gw >= MinGameweek; gw-- {
		if l.exists(ctx, gw) {
			l.logger.Infof("latest available gameweek: %d (reverse scan)", gw)
			l.lastKnownGood = gw
			return gw
		}
	}

	if l.lastKnownGood > 0 {
		l.logger.Warnf("no gameweek data found, reusing last known-good %d", l.lastKnownGood)
		return l.lastKnownGood
	}
	l.logger.Error("no gameweek data found, defaulting to 1")
	return MinGameweek
}

func (l *Locator) exists(ctx context.Context, gw int) bool {
	l.metrics.Inc(metrics.ProbeAttemptsTotal)

	ok, err := l.prober.GameweekExists(ctx, gw)
	if err != nil {
		l.metrics.Inc(metrics.ProbeMissesTotal)
		l.logger.Warnf("probe gameweek %d: %v", gw, err)
		return false
	}
	if !ok {
		l.metrics.Inc(metrics.ProbeMissesTotal)
	}
	return ok
}
