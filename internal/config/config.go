package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the service reads at startup.
// Values come from environment variables with sensible defaults,
// so tests can build a Config literal without touching the env.
type Config struct {
	ListenAddr string

	// Season identity. SeasonLabel is the path segment on the GitHub
	// dataset ("2025-2026"); SeasonStart anchors gameweek estimation.
	SeasonLabel string
	SeasonStart time.Time

	// Remote sources.
	GitHubBase string
	FPLAPIBase string

	// Refresh triggers, hours in UTC. The dataset upstream publishes
	// twice a day, so two boundaries is the normal shape.
	UpdateHoursUTC []int
	RefreshOnStart bool

	// Gameweek probing.
	ProbeBudget  int   // offsets searched either side of the estimate
	MinFileBytes int64 // HEAD Content-Length below this means placeholder

	// Outbound HTTP.
	ClientTimeout time.Duration
	ProbeTimeout  time.Duration
	UserAgent     string

	// Bootstrap-static client-side cache.
	BootstrapTTL time.Duration
}

// FromEnv builds a Config from the environment, falling back to defaults.
func FromEnv() Config {
	return Config{
		ListenAddr:     envString("FPLA_LISTEN_ADDR", ":8080"),
		SeasonLabel:    envString("FPLA_SEASON", "2025-2026"),
		SeasonStart:    envDate("FPLA_SEASON_START", time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC)),
		GitHubBase:     envString("FPLA_GITHUB_BASE", "https://raw.githubusercontent.com/olbauday/FPL-Elo-Insights/main/data"),
		FPLAPIBase:     envString("FPLA_FPL_API_BASE", "https://fantasy.premierleague.com/api"),
		UpdateHoursUTC: envHours("FPLA_UPDATE_HOURS", []int{5, 17}),
		RefreshOnStart: os.Getenv("FPLA_NO_STARTUP_REFRESH") == "",
		ProbeBudget:    envInt("FPLA_PROBE_BUDGET", 10),
		MinFileBytes:   int64(envInt("FPLA_MIN_FILE_BYTES", 1000)),
		ClientTimeout:  envDuration("FPLA_CLIENT_TIMEOUT", 15*time.Second),
		ProbeTimeout:   envDuration("FPLA_PROBE_TIMEOUT", 3*time.Second),
		UserAgent:      envString("FPLA_USER_AGENT", "fpl-assistant/1.0"),
		BootstrapTTL:   envDuration("FPLA_BOOTSTRAP_TTL", 5*time.Minute),
	}
}

func envString(name, defaultVal string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	return defaultVal
}

// envInt returns env value as int, or default if unset/invalid.
func envInt(name string, defaultVal int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// envDuration returns env value as duration, or default if unset/invalid.
func envDuration(name string, defaultVal time.Duration) time.Duration {
	if s := os.Getenv(name); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

// envDate parses YYYY-MM-DD, or returns default if unset/invalid.
func envDate(name string, defaultVal time.Time) time.Time {
	if s := os.Getenv(name); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t.UTC()
		}
	}
	return defaultVal
}

// envHours parses a comma-separated hour list like "5,17".
// Invalid entries invalidate the whole list.
func envHours(name string, defaultVal []int) []int {
	s := os.Getenv(name)
	if s == "" {
		return defaultVal
	}
	parts := strings.Split(s, ",")
	hours := make([]int, 0, len(parts))
	for _, p := range parts {
		h, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || h < 0 || h > 23 {
			return defaultVal
		}
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return defaultVal
	}
	return hours
}
