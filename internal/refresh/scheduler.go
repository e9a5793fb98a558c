package refresh

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"fpl-assistant/internal/dataset"
	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
	"fpl-assistant/internal/store"
)

// Locator finds the latest gameweek with published data.
type Locator interface {
	Locate(ctx context.Context, now time.Time) int
}

// Builder downloads and assembles a dataset snapshot for a gameweek.
type Builder interface {
	Build(ctx context.Context, gw int, now time.Time) (*dataset.Dataset, error)
}

// Enricher overlays live data onto a freshly built snapshot. The CSV
// mirror lags the official API, so availability comes from bootstrap.
type Enricher interface {
	EnrichLiveStatus(ctx context.Context, d *dataset.Dataset) error
}

// Scheduler drives the twice-daily refresh. It ticks once a minute,
// asks the store whether a trigger-hour boundary has been crossed, and
// runs the fetch pipeline when it has. A failed run is logged and the
// previous snapshot stays authoritative.
type Scheduler struct {
	store    *store.Store
	locator  Locator
	builder  Builder
	enricher Enricher // optional; nil skips the live overlay
	interval time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry

	// now is swappable for deterministic tests.
	now func() time.Time

	group singleflight.Group
}

// NewScheduler creates a scheduler checking for due refreshes at the
// given interval.
func NewScheduler(
	st *store.Store,
	locator Locator,
	builder Builder,
	enricher Enricher,
	interval time.Duration,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Scheduler {
	return &Scheduler{
		store:    st,
		locator:  locator,
		builder:  builder,
		enricher: enricher,
		interval: interval,
		logger:   logger,
		metrics:  metricsRegistry,
		now:      time.Now,
	}
}

// Start runs the scheduling loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := s.now()
			if s.store.ShouldRefresh(now) {
				s.runOnce(ctx)
			}
		case <-ctx.Done():
			s.logger.Debug("refresh scheduler stopped")
			return
		}
	}
}

// RefreshIfStale runs a refresh immediately when one is due. Used at
// startup so the first request does not wait for a trigger hour.
func (s *Scheduler) RefreshIfStale(ctx context.Context) {
	if s.store.ShouldRefresh(s.now()) {
		s.runOnce(ctx)
	}
}

// ForceRefresh runs the pipeline regardless of trigger hours.
// Concurrent calls collapse into a single fetch.
func (s *Scheduler) ForceRefresh(ctx context.Context) error {
	s.metrics.Inc(metrics.RefreshForcedTotal)

	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

// runOnce performs a single scheduled refresh cycle.
func (s *Scheduler) runOnce(ctx context.Context) {
	_, _, _ = s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
}

// refresh is the pipeline: locate the latest gameweek, build the
// snapshot, publish it. On any failure the old entry stays.
func (s *Scheduler) refresh(ctx context.Context) error {
	now := s.now()
	s.metrics.Inc(metrics.RefreshRunsTotal)
	s.logger.Info("refresh started")

	gw := s.locator.Locate(ctx, now)

	snapshot, err := s.builder.Build(ctx, gw, now)
	if err != nil {
		s.metrics.Inc(metrics.RefreshFailureTotal)
		s.logger.Errorf("refresh failed, keeping previous snapshot: %v", err)
		return err
	}

	// Non-fatal: the CSV availability columns stay when the API is down.
	if s.enricher != nil {
		if err := s.enricher.EnrichLiveStatus(ctx, snapshot); err != nil {
			s.logger.Warnf("live status enrichment failed: %v", err)
		}
	}

	s.store.Set(store.Entry{
		Snapshot:  snapshot,
		FetchedAt: now,
		Gameweek:  gw,
	})
	s.metrics.Inc(metrics.RefreshSuccessTotal)
	s.logger.Infof("refresh completed for gameweek %d, next update %s",
		gw, s.store.NextUpdate(now).Format(time.RFC3339))
	return nil
}
