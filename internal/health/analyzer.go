package health

import (
	"strings"
	"time"

	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
	"fpl-assistant/internal/store"
)

// maxSnapshotAge is how stale the published snapshot may get before
// the analyzer flags it: two missed twice-daily windows plus slack.
const maxSnapshotAge = 26 * time.Hour

// Analyzer converts metrics, logs and cache state into a health report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	store   *store.Store
	rules   []Rule
	now     func() time.Time
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(
	reg *metrics.Registry,
	logger *logs.Logger,
	st *store.Store,
) *Analyzer {
	return &Analyzer{
		metrics: reg,
		logger:  logger,
		store:   st,
		rules: []Rule{
			RefreshFailureRule,
			ProbeExhaustedRule,
			FetchRetryRule,
		},
		now: time.Now,
	}
}

// Analyze evaluates the rules plus cache-state and log signals.
func (a *Analyzer) Analyze() Report {
	snapshot := a.metrics.Snapshot()

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	escalate := func(severity Status) {
		if severity == StatusCritical {
			status = StatusCritical
		} else if severity == StatusDegraded && status == StatusOK {
			status = StatusDegraded
		}
	}

	/* ---------- METRICS-BASED RULES ---------- */

	for _, rule := range a.rules {
		result := rule(snapshot)
		if !result.Triggered {
			continue
		}
		signals = append(signals, result.Signal)
		recommendations = append(recommendations, result.Recommendation)
		escalate(result.Severity)
	}

	/* ---------- CACHE-STATE SIGNALS ---------- */

	entry, ok := a.store.Get()
	if !ok {
		signals = append(signals, "No dataset snapshot has been published yet")
		recommendations = append(recommendations, "Trigger a refresh and check upstream availability")
		escalate(StatusCritical)
	} else if entry.Age(a.now()) > maxSnapshotAge {
		signals = append(signals, "Published snapshot is older than the refresh window")
		recommendations = append(recommendations, "Inspect recent refresh failures in the logs")
		escalate(StatusDegraded)
	}

	/* ---------- LOG-BASED SIGNALS ---------- */

	logEntries := a.logger.GetLast(100)

	refreshFailures := 0
	panicCount := 0
	for _, entry := range logEntries {
		if entry.Level == logs.ERROR &&
			strings.Contains(entry.Message, "refresh failed") {
			refreshFailures++
		}
		if entry.Level == logs.ERROR &&
			strings.Contains(entry.Message, "panic") {
			panicCount++
		}
	}

	if refreshFailures >= 3 {
		signals = append(signals, "Repeated refresh failures detected in logs")
		recommendations = append(recommendations, "Investigate upstream dataset availability")
		escalate(StatusDegraded)
	}
	if panicCount > 0 {
		signals = append(signals, "Application panics detected in logs")
		recommendations = append(recommendations, "Inspect stack traces and stabilize error handling")
		escalate(StatusCritical)
	}

	/* ---------- SUMMARY ---------- */

	summary := "Service is healthy"
	if status != StatusOK {
		summary = "Service health issues detected"
	}

	return Report{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
	}
}
