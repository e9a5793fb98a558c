package health

import "fpl-assistant/internal/metrics"

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// ---------- RULES ----------

// Refresh failures mean the upstream dataset could not be rebuilt.
func RefreshFailureRule(snapshot map[string]int64) RuleResult {
	failures := snapshot[string(metrics.RefreshFailureTotal)]
	successes := snapshot[string(metrics.RefreshSuccessTotal)]

	if failures == 0 {
		return RuleResult{}
	}

	severity := StatusDegraded
	if successes == 0 {
		// Never had a good snapshot: nothing to serve.
		severity = StatusCritical
	}
	return RuleResult{
		Triggered:      true,
		Signal:         "Dataset refresh failures detected",
		Recommendation: "Check GitHub dataset availability and network connectivity",
		Severity:       severity,
	}
}

// An exhausted probe budget means no gameweek file was found near the
// estimate and the locator fell back to scanning.
func ProbeExhaustedRule(snapshot map[string]int64) RuleResult {
	exhausted := snapshot[string(metrics.ProbeExhaustedTotal)]

	if exhausted > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Gameweek probe budget exhausted",
			Recommendation: "Verify the season start date and dataset path configuration",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Heavy fetch retry volume indicates a flaky upstream.
func FetchRetryRule(snapshot map[string]int64) RuleResult {
	retries := snapshot[string(metrics.FetchRetriesTotal)]

	if retries > 10 {
		return RuleResult{
			Triggered:      true,
			Signal:         "High fetch retry volume",
			Recommendation: "Check upstream latency and the retry policy settings",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}
