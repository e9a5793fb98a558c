package dataset

import "time"

// Position short codes as used across FPL tooling.
const (
	PositionGKP = "GKP"
	PositionDEF = "DEF"
	PositionMID = "MID"
	PositionFWD = "FWD"
)

// positionNames maps the full names found in the players master file
// to short codes. Unknown strings pass through untouched.
var positionNames = map[string]string{
	"Goalkeeper": PositionGKP,
	"Defender":   PositionDEF,
	"Midfielder": PositionMID,
	"Forward":    PositionFWD,
}

// NormalizePosition accepts either a full position name or a short code
// and returns the short code.
func NormalizePosition(pos string) string {
	if short, ok := positionNames[pos]; ok {
		return short
	}
	return pos
}

// Player is one row of the per-gameweek stats file, joined with the
// players master (team code, position) and the teams file (team name).
type Player struct {
	ID         int    `json:"id"`
	WebName    string `json:"web_name"`
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	TeamCode   int    `json:"team_code"`
	TeamName   string `json:"team_name"`
	Position   string `json:"position"`

	// Availability. The CSV columns are hours stale by the time they are
	// read; a live overlay from the official API replaces them after each
	// snapshot build.
	Status          string `json:"status"`
	News            string `json:"news"`
	ChanceOfPlaying int    `json:"chance_of_playing_next_round"`

	// Pricing. NowCost is in tenths of a million, as upstream ships it.
	NowCost         int `json:"now_cost"`
	CostChangeEvent int `json:"cost_change_event"`

	// Selection and transfers. These columns are overlaid from the
	// latest gameweek file so prices and ownership stay current even
	// when points come from the previous round.
	SelectedByPercent float64 `json:"selected_by_percent"`
	TransfersIn       int     `json:"transfers_in"`
	TransfersOut      int     `json:"transfers_out"`
	TransfersBalance  int     `json:"transfers_balance"`

	// Performance.
	TotalPoints   int     `json:"total_points"`
	EventPoints   int     `json:"event_points"`
	Form          float64 `json:"form"`
	PointsPerGame float64 `json:"points_per_game"`
	Bonus         int     `json:"bonus"`

	// Playing time and raw output.
	Minutes     int `json:"minutes"`
	Starts      int `json:"starts"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
	CleanSheets int `json:"clean_sheets"`

	// Expected stats.
	ExpectedGoalInvolvements float64 `json:"expected_goal_involvements"`

	// Derived fields, computed once after load.
	PointsPerMillion float64 `json:"points_per_million"`
	MinutesPct       float64 `json:"minutes_pct"`
	ValueScore       float64 `json:"value_score"`
}

// Price returns the cost in millions.
func (p Player) Price() float64 {
	return float64(p.NowCost) / 10
}

// Team is one row of teams.csv.
type Team struct {
	Code      int     `json:"code"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Elo       float64 `json:"elo"`
}

// Dataset is one immutable snapshot of the merged upstream files.
// It is built once per refresh and shared read-only between handlers,
// so no method on it may mutate state.
type Dataset struct {
	Players []Player `json:"players"`
	Teams   []Team   `json:"teams"`

	// CurrentGW is the latest gameweek with a published file.
	// Stats come from StatsGW (CurrentGW-1, except in GW1), transfer
	// and price columns from TransfersGW (CurrentGW).
	CurrentGW   int       `json:"current_gw"`
	StatsGW     int       `json:"stats_gw"`
	TransfersGW int       `json:"transfers_gw"`
	BuiltAt     time.Time `json:"built_at"`
}

// ComputeDerived fills PointsPerMillion, MinutesPct and ValueScore for
// every player. Called once by the builder before the snapshot is
// published.
func (d *Dataset) ComputeDerived() {
	maxMinutes := float64(d.CurrentGW) * 90

	var ppmMax, formMax, xgiMax float64
	for i := range d.Players {
		p := &d.Players[i]

		if p.NowCost > 0 {
			p.PointsPerMillion = float64(p.TotalPoints) / p.Price()
		}
		if maxMinutes > 0 {
			pct := float64(p.Minutes) / maxMinutes * 100
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			p.MinutesPct = pct
		}

		if p.PointsPerMillion > ppmMax {
			ppmMax = p.PointsPerMillion
		}
		if p.Form > formMax {
			formMax = p.Form
		}
		if p.ExpectedGoalInvolvements > xgiMax {
			xgiMax = p.ExpectedGoalInvolvements
		}
	}

	// Composite value score: 40% points per million, 30% form, 30% xGI,
	// each normalized against the dataset maximum.
	for i := range d.Players {
		p := &d.Players[i]
		var ppm, form, xgi float64
		if ppmMax > 0 {
			ppm = p.PointsPerMillion / ppmMax
		}
		if formMax > 0 {
			form = p.Form / formMax
		}
		if xgiMax > 0 {
			xgi = p.ExpectedGoalInvolvements / xgiMax
		}
		p.ValueScore = ppm*0.4 + form*0.3 + xgi*0.3
	}
}
