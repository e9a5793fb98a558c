package fplapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fpl-assistant/internal/fetch"
)

// Bootstrap is the subset of /bootstrap-static/ the service reads.
type Bootstrap struct {
	Events []Event `json:"events"`
	Teams  []struct {
		ID        int    `json:"id"`
		Code      int    `json:"code"`
		ShortName string `json:"short_name"`
	} `json:"teams"`
	Elements []Element `json:"elements"`
}

// Event is one gameweek in the official API.
type Event struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	IsNext    bool `json:"is_next"`
	Finished  bool `json:"finished"`
}

// Element is one player in the official API.
type Element struct {
	ID                       int    `json:"id"`
	WebName                  string `json:"web_name"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	ElementType              int    `json:"element_type"`
	Team                     int    `json:"team"`
	NowCost                  int    `json:"now_cost"`
	SelectedByPercent        string `json:"selected_by_percent"`
	TotalPoints              int    `json:"total_points"`
	Form                     string `json:"form"`
	PointsPerGame            string `json:"points_per_game"`
	Minutes                  int    `json:"minutes"`
	TransfersInEvent         int    `json:"transfers_in_event"`
	TransfersOutEvent        int    `json:"transfers_out_event"`
	News                     string `json:"news"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
}

// entryInfo is /entry/{id}/.
type entryInfo struct {
	Name                string `json:"name"`
	PlayerFirstName     string `json:"player_first_name"`
	PlayerLastName      string `json:"player_last_name"`
	SummaryOverallRank  int    `json:"summary_overall_rank"`
	SummaryOverallPoint int    `json:"summary_overall_points"`
}

// picksResponse is /entry/{id}/event/{gw}/picks/.
type picksResponse struct {
	Picks []struct {
		Element       int  `json:"element"`
		Position      int  `json:"position"`
		Multiplier    int  `json:"multiplier"`
		IsCaptain     bool `json:"is_captain"`
		IsViceCaptain bool `json:"is_vice_captain"`
	} `json:"picks"`
	EntryHistory struct {
		Value              int `json:"value"`
		Bank               int `json:"bank"`
		TotalPoints        int `json:"total_points"`
		Points             int `json:"points"`
		EventTransfers     int `json:"event_transfers"`
		EventTransfersCost int `json:"event_transfers_cost"`
	} `json:"entry_history"`
}

var positionCodes = map[int]string{1: "GKP", 2: "DEF", 3: "MID", 4: "FWD"}

// Client reads the official FPL JSON API. Bootstrap data changes
// slowly and the endpoint is heavy, so it is cached client-side for a
// short TTL using the usual double-checked lock.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	retry   fetch.RetryPolicy

	mu             sync.RWMutex
	bootstrap      *Bootstrap
	bootstrapUntil time.Time
	bootstrapTTL   time.Duration
	now            func() time.Time
}

// NewClient creates an FPL API client.
func NewClient(fetcher *fetch.Client, baseURL string, bootstrapTTL time.Duration, retry fetch.RetryPolicy) *Client {
	return &Client{
		fetcher:      fetcher,
		baseURL:      baseURL,
		retry:        retry,
		bootstrapTTL: bootstrapTTL,
		now:          time.Now,
	}
}

// GetBootstrap returns bootstrap data, served from the client-side
// cache when fresh.
func (c *Client) GetBootstrap(ctx context.Context) (*Bootstrap, error) {
	c.mu.RLock()
	if c.bootstrap != nil && c.now().Before(c.bootstrapUntil) {
		b := c.bootstrap
		c.mu.RUnlock()
		return b, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bootstrap != nil && c.now().Before(c.bootstrapUntil) {
		return c.bootstrap, nil
	}

	url := c.baseURL + "/bootstrap-static/"
	body, err := c.fetcher.GetWithRetry(ctx, url, c.retry)
	if err != nil {
		return nil, err
	}

	var b Bootstrap
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fetch.ParseErr(url, err)
	}

	c.bootstrap = &b
	c.bootstrapUntil = c.now().Add(c.bootstrapTTL)
	return &b, nil
}

// CurrentGameweek returns the gameweek the API marks as current, or
// the one before the next gameweek when nothing is current (the gap
// between rounds). Zero means the API gave no usable answer.
func (c *Client) CurrentGameweek(ctx context.Context) (int, error) {
	b, err := c.GetBootstrap(ctx)
	if err != nil {
		return 0, err
	}

	for _, ev := range b.Events {
		if ev.IsCurrent {
			return ev.ID, nil
		}
	}
	for _, ev := range b.Events {
		if ev.IsNext {
			return ev.ID - 1, nil
		}
	}
	return 0, nil
}

// TeamPlayer is one pick of a manager's squad, enriched with player
// detail from bootstrap.
type TeamPlayer struct {
	ID            int     `json:"id"`
	WebName       string  `json:"web_name"`
	Position      string  `json:"position"`
	Team          string  `json:"team"`
	Price         float64 `json:"price"`
	SelectedBy    float64 `json:"selected_by"`
	TotalPoints   int     `json:"total_points"`
	Form          float64 `json:"form"`
	Minutes       int     `json:"minutes"`
	MinutesPct    float64 `json:"minutes_pct"`
	IsCaptain     bool    `json:"is_captain"`
	IsViceCaptain bool    `json:"is_vice_captain"`
	Multiplier    int     `json:"multiplier"`
	PositionOrder int     `json:"position_order"`
	OnBench       bool    `json:"on_bench"`
	News          string  `json:"news"`
}

// MyTeam is a manager's squad for the current gameweek.
type MyTeam struct {
	ManagerName   string       `json:"manager_name"`
	TeamName      string       `json:"team_name"`
	OverallRank   int          `json:"overall_rank"`
	OverallPoints int          `json:"overall_points"`
	Gameweek      int          `json:"gameweek"`
	Players       []TeamPlayer `json:"players"`
	TeamValue     float64      `json:"team_value"`
	Bank          float64      `json:"bank"`
	GameweekPts   int          `json:"gameweek_points"`
	Transfers     int          `json:"transfers_made"`
	TransferCost  int          `json:"transfer_cost"`
}

// GetMyTeam fetches a manager's picks for the current gameweek and
// enriches them with player detail from bootstrap.
func (c *Client) GetMyTeam(ctx context.Context, teamID int) (*MyTeam, error) {
	b, err := c.GetBootstrap(ctx)
	if err != nil {
		return nil, err
	}

	gw, err := c.CurrentGameweek(ctx)
	if err != nil {
		return nil, err
	}
	if gw == 0 {
		gw = 1
	}

	var info entryInfo
	if err := c.getJSON(ctx, fmt.Sprintf("%s/entry/%d/", c.baseURL, teamID), &info); err != nil {
		return nil, err
	}

	var picks picksResponse
	url := fmt.Sprintf("%s/entry/%d/event/%d/picks/", c.baseURL, teamID, gw)
	if err := c.getJSON(ctx, url, &picks); err != nil {
		return nil, err
	}

	elements := make(map[int]Element, len(b.Elements))
	for _, e := range b.Elements {
		elements[e.ID] = e
	}
	teamNames := make(map[int]string, len(b.Teams))
	for _, t := range b.Teams {
		teamNames[t.ID] = t.ShortName
	}

	team := &MyTeam{
		ManagerName:   info.PlayerFirstName + " " + info.PlayerLastName,
		TeamName:      info.Name,
		OverallRank:   info.SummaryOverallRank,
		OverallPoints: info.SummaryOverallPoint,
		Gameweek:      gw,
		TeamValue:     float64(picks.EntryHistory.Value) / 10,
		Bank:          float64(picks.EntryHistory.Bank) / 10,
		GameweekPts:   picks.EntryHistory.Points,
		Transfers:     picks.EntryHistory.EventTransfers,
		TransferCost:  picks.EntryHistory.EventTransfersCost,
	}

	maxMinutes := float64(gw) * 90
	for _, pick := range picks.Picks {
		el, ok := elements[pick.Element]
		if !ok {
			continue
		}
		tp := TeamPlayer{
			ID:            el.ID,
			WebName:       el.WebName,
			Position:      positionCodes[el.ElementType],
			Team:          teamNames[el.Team],
			Price:         float64(el.NowCost) / 10,
			SelectedBy:    parseFloat(el.SelectedByPercent),
			TotalPoints:   el.TotalPoints,
			Form:          parseFloat(el.Form),
			Minutes:       el.Minutes,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
			Multiplier:    pick.Multiplier,
			PositionOrder: pick.Position,
			OnBench:       pick.Position > 11,
			News:          el.News,
		}
		if maxMinutes > 0 && el.Minutes > 0 {
			pct := float64(el.Minutes) / maxMinutes * 100
			// Double gameweeks push minutes past gw*90.
			if pct > 100 {
				pct = 100
			}
			tp.MinutesPct = pct
		}
		team.Players = append(team.Players, tp)
	}

	// Picks arrive sorted 1-15 already; keep it that way regardless.
	for i := 1; i < len(team.Players); i++ {
		for j := i; j > 0 && team.Players[j-1].PositionOrder > team.Players[j].PositionOrder; j-- {
			team.Players[j-1], team.Players[j] = team.Players[j], team.Players[j-1]
		}
	}

	return team, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.fetcher.GetWithRetry(ctx, url, c.retry)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fetch.ParseErr(url, err)
	}
	return nil
}

// parseFloat handles the API habit of shipping numerics as strings.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
