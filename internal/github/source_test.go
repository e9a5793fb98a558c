package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-assistant/internal/fetch"
	"fpl-assistant/internal/logs"
	"fpl-assistant/internal/metrics"
)

const (
	playersCSV = `player_id,team_code,position
1,43,Forward
2,14,Midfielder
`
	teamsCSV = `code,name,short_name,elo
43,Manchester City,MCI,1930.5
14,Liverpool,LIV,1905.2
`
	// gameweek 12 file: the completed round's stats
	gw12CSV = `id,web_name,total_points,now_cost,selected_by_percent,transfers_in,transfers_out,transfers_balance,form,minutes
1,Haaland,120,150,58.0,100,50,50,9.5,1000
2,Salah,95,129,44.0,80,60,20,7.0,1080
`
	// gameweek 13 file: newer prices/ownership, partial stats
	gw13CSV = `id,web_name,total_points,now_cost,selected_by_percent,transfers_in,transfers_out,transfers_balance,form,minutes
1,Haaland,126,151,60.3,120000,8000,112000,9.6,1060
2,Salah,98,130,45.1,90000,20000,70000,7.1,1140
`
)

// fixtureServer mimics the raw.githubusercontent.com layout for one season.
func fixtureServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Keys carry the %20 form, so match on the escaped path.
		body, ok := files[r.URL.EscapedPath()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func newTestSource(serverURL string) *Source {
	reg := metrics.NewRegistry()
	client := fetch.NewClient(2*time.Second, "fpl-assistant-test/1.0", reg)
	policy := fetch.RetryPolicy{MaxRetries: 1, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	return NewSource(client, serverURL, "2025-2026", 40, time.Second, policy, logs.NewLogger(100, logs.DEBUG))
}

func TestGameweekExists(t *testing.T) {
	padding := strings.Repeat("x", 100)
	server := fixtureServer(t, map[string]string{
		"/2025-2026/By%20Gameweek/GW13/playerstats.csv": padding, // 100 bytes, above threshold
		"/2025-2026/By%20Gameweek/GW14/playerstats.csv": "id\n",  // placeholder, below threshold
	})
	defer server.Close()

	src := newTestSource(server.URL)
	ctx := context.Background()

	t.Run("published round", func(t *testing.T) {
		ok, err := src.GameweekExists(ctx, 13)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("placeholder below size threshold is not found", func(t *testing.T) {
		ok, err := src.GameweekExists(ctx, 14)
		require.NoError(t, err)
		assert.False(t, ok, "sub-threshold payload must be treated as not-found")
	})

	t.Run("missing round", func(t *testing.T) {
		ok, err := src.GameweekExists(ctx, 20)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("out of season bounds", func(t *testing.T) {
		ok, err := src.GameweekExists(ctx, 0)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = src.GameweekExists(ctx, 39)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 11, 10, 5, 0, 0, 0, time.UTC)

	t.Run("merges stats, transfers and masters", func(t *testing.T) {
		server := fixtureServer(t, map[string]string{
			"/2025-2026/players.csv":                        playersCSV,
			"/2025-2026/teams.csv":                          teamsCSV,
			"/2025-2026/By%20Gameweek/GW12/playerstats.csv": gw12CSV,
			"/2025-2026/By%20Gameweek/GW13/playerstats.csv": gw13CSV,
		})
		defer server.Close()

		src := newTestSource(server.URL)
		d, err := src.Build(context.Background(), 13, now)
		require.NoError(t, err)

		assert.Equal(t, 13, d.CurrentGW)
		assert.Equal(t, 12, d.StatsGW)
		assert.Equal(t, 13, d.TransfersGW)
		require.Len(t, d.Players, 2)

		haaland, ok := d.FindByID(1)
		require.True(t, ok)

		// stats from the completed round
		assert.Equal(t, 120, haaland.TotalPoints)
		// transfers/prices overlaid from the latest round
		assert.Equal(t, 151, haaland.NowCost)
		assert.Equal(t, 112000, haaland.TransfersBalance)
		assert.InDelta(t, 60.3, haaland.SelectedByPercent, 0.001)
		// masters joined
		assert.Equal(t, "FWD", haaland.Position)
		assert.Equal(t, "MCI", haaland.TeamName)
		// derived fields computed
		assert.Greater(t, haaland.PointsPerMillion, 0.0)
	})

	t.Run("gameweek one uses its own file for everything", func(t *testing.T) {
		server := fixtureServer(t, map[string]string{
			"/2025-2026/players.csv":                       playersCSV,
			"/2025-2026/teams.csv":                         teamsCSV,
			"/2025-2026/By%20Gameweek/GW1/playerstats.csv": gw12CSV,
		})
		defer server.Close()

		src := newTestSource(server.URL)
		d, err := src.Build(context.Background(), 1, now)
		require.NoError(t, err)

		assert.Equal(t, 1, d.CurrentGW)
		assert.Equal(t, 1, d.StatsGW)
	})

	t.Run("transfer overlay failure is non-fatal", func(t *testing.T) {
		// gw13 file missing: stats-round values must survive
		server := fixtureServer(t, map[string]string{
			"/2025-2026/players.csv":                        playersCSV,
			"/2025-2026/teams.csv":                          teamsCSV,
			"/2025-2026/By%20Gameweek/GW12/playerstats.csv": gw12CSV,
		})
		defer server.Close()

		src := newTestSource(server.URL)
		d, err := src.Build(context.Background(), 13, now)
		require.NoError(t, err)

		haaland, ok := d.FindByID(1)
		require.True(t, ok)
		assert.Equal(t, 150, haaland.NowCost, "stats-round price kept")
	})

	t.Run("missing masters fail the build", func(t *testing.T) {
		server := fixtureServer(t, map[string]string{
			"/2025-2026/By%20Gameweek/GW12/playerstats.csv": gw12CSV,
		})
		defer server.Close()

		src := newTestSource(server.URL)
		_, err := src.Build(context.Background(), 13, now)
		assert.Error(t, err)
	})

	t.Run("unknown team code falls back to Unknown", func(t *testing.T) {
		server := fixtureServer(t, map[string]string{
			"/2025-2026/players.csv":                        "player_id,team_code,position\n1,999,Forward\n",
			"/2025-2026/teams.csv":                          teamsCSV,
			"/2025-2026/By%20Gameweek/GW12/playerstats.csv": gw12CSV,
			"/2025-2026/By%20Gameweek/GW13/playerstats.csv": gw13CSV,
		})
		defer server.Close()

		src := newTestSource(server.URL)
		d, err := src.Build(context.Background(), 13, now)
		require.NoError(t, err)

		haaland, _ := d.FindByID(1)
		assert.Equal(t, "Unknown", haaland.TeamName)

		salah, _ := d.FindByID(2)
		assert.Equal(t, "Unknown", salah.TeamName, "player missing from master")
	})
}
