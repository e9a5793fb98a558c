package github

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"fpl-assistant/internal/dataset"
	"fpl-assistant/internal/fetch"
	"fpl-assistant/internal/logs"
)

// Source reads the season dataset from the GitHub-hosted CSV mirror.
// Layout under {base}/{season}: players.csv and teams.csv masters,
// plus one "By Gameweek/GW{n}/playerstats.csv" per published round.
type Source struct {
	client       *fetch.Client
	baseURL      string // {base}/{season}
	minFileBytes int64
	probeTimeout time.Duration
	retry        fetch.RetryPolicy
	logger       *logs.Logger
}

// NewSource creates a dataset source rooted at base/season.
func NewSource(
	client *fetch.Client,
	base, season string,
	minFileBytes int64,
	probeTimeout time.Duration,
	retry fetch.RetryPolicy,
	logger *logs.Logger,
) *Source {
	return &Source{
		client:       client,
		baseURL:      base + "/" + season,
		minFileBytes: minFileBytes,
		probeTimeout: probeTimeout,
		retry:        retry,
		logger:       logger,
	}
}

func (s *Source) playersURL() string { return s.baseURL + "/players.csv" }
func (s *Source) teamsURL() string   { return s.baseURL + "/teams.csv" }

func (s *Source) statsURL(gw int) string {
	return fmt.Sprintf("%s/By%%20Gameweek/GW%d/playerstats.csv", s.baseURL, gw)
}

// GameweekExists implements gameweek.Prober: a round counts as
// published when its stats file exists and exceeds the minimum size.
// Placeholder files get committed before real data lands, so a bare
// 200 is not enough.
func (s *Source) GameweekExists(ctx context.Context, gw int) (bool, error) {
	if gw < 1 || gw > 38 {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	size, err := s.client.Head(ctx, s.statsURL(gw))
	if err != nil {
		if fetch.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return size > s.minFileBytes, nil
}

// Build downloads and merges everything for the given latest gameweek:
// completed stats from the previous round, transfer and price columns
// overlaid from the latest file, team code and position joined from
// the masters. Returns a ready-to-publish snapshot.
func (s *Source) Build(ctx context.Context, latestGW int, now time.Time) (*dataset.Dataset, error) {
	statsGW := latestGW - 1
	if statsGW < 1 {
		statsGW = 1
	}

	rawMaster, err := s.client.GetWithRetry(ctx, s.playersURL(), s.retry)
	if err != nil {
		return nil, errors.Wrap(err, "players master")
	}
	master, err := dataset.ParsePlayerMaster(rawMaster)
	if err != nil {
		return nil, fetch.ParseErr(s.playersURL(), err)
	}

	rawTeams, err := s.client.GetWithRetry(ctx, s.teamsURL(), s.retry)
	if err != nil {
		return nil, errors.Wrap(err, "teams")
	}
	teams, err := dataset.ParseTeams(rawTeams)
	if err != nil {
		return nil, fetch.ParseErr(s.teamsURL(), err)
	}

	rawStats, err := s.client.GetWithRetry(ctx, s.statsURL(statsGW), s.retry)
	if err != nil {
		return nil, errors.Wrapf(err, "stats gw %d", statsGW)
	}
	players, err := dataset.ParsePlayerStats(rawStats)
	if err != nil {
		return nil, fetch.ParseErr(s.statsURL(statsGW), err)
	}

	// Overlay transfers/prices from the latest round. Non-fatal: the
	// stats-round values stay if the newer file cannot be read.
	if latestGW != statsGW {
		if err := s.overlayTransfers(ctx, players, latestGW); err != nil {
			s.logger.Warnf("transfer overlay from gw %d failed: %v", latestGW, err)
		}
	}

	s.joinMasters(players, master, teams)

	d := &dataset.Dataset{
		Players:     players,
		Teams:       teams,
		CurrentGW:   latestGW,
		StatsGW:     statsGW,
		TransfersGW: latestGW,
		BuiltAt:     now,
	}
	d.ComputeDerived()

	s.logger.Infof("dataset built: %d players, stats gw %d, transfers gw %d",
		len(players), statsGW, latestGW)
	return d, nil
}

// overlayTransfers replaces the transfer, ownership and price columns
// with values from the latest gameweek file.
func (s *Source) overlayTransfers(ctx context.Context, players []dataset.Player, gw int) error {
	raw, err := s.client.GetWithRetry(ctx, s.statsURL(gw), s.retry)
	if err != nil {
		return err
	}
	latest, err := dataset.ParsePlayerStats(raw)
	if err != nil {
		return fetch.ParseErr(s.statsURL(gw), err)
	}

	byID := make(map[int]dataset.Player, len(latest))
	for _, p := range latest {
		byID[p.ID] = p
	}

	for i := range players {
		cur, ok := byID[players[i].ID]
		if !ok {
			continue
		}
		players[i].TransfersIn = cur.TransfersIn
		players[i].TransfersOut = cur.TransfersOut
		players[i].TransfersBalance = cur.TransfersBalance
		players[i].SelectedByPercent = cur.SelectedByPercent
		players[i].NowCost = cur.NowCost
	}
	return nil
}

// joinMasters attaches team code, position and team short name.
func (s *Source) joinMasters(
	players []dataset.Player,
	master map[int]dataset.PlayerMasterRecord,
	teams []dataset.Team,
) {
	shortNames := make(map[int]string, len(teams))
	for _, t := range teams {
		shortNames[t.Code] = t.ShortName
	}

	for i := range players {
		rec, ok := master[players[i].ID]
		if !ok {
			players[i].TeamName = "Unknown"
			continue
		}
		players[i].TeamCode = rec.TeamCode
		players[i].Position = rec.Position
		if name, ok := shortNames[rec.TeamCode]; ok {
			players[i].TeamName = name
		} else {
			players[i].TeamName = "Unknown"
		}
	}
}
