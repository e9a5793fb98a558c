package dataset

import (
	"sort"
	"strings"
)

// sortFields maps sortable field names to accessors. Descending order
// is the default for every view; callers flip with ascending=true.
var sortFields = map[string]func(Player) float64{
	"total_points":               func(p Player) float64 { return float64(p.TotalPoints) },
	"event_points":               func(p Player) float64 { return float64(p.EventPoints) },
	"form":                       func(p Player) float64 { return p.Form },
	"points_per_game":            func(p Player) float64 { return p.PointsPerGame },
	"now_cost":                   func(p Player) float64 { return float64(p.NowCost) },
	"selected_by_percent":        func(p Player) float64 { return p.SelectedByPercent },
	"transfers_balance":          func(p Player) float64 { return float64(p.TransfersBalance) },
	"minutes":                    func(p Player) float64 { return float64(p.Minutes) },
	"expected_goal_involvements": func(p Player) float64 { return p.ExpectedGoalInvolvements },
	"points_per_million":         func(p Player) float64 { return p.PointsPerMillion },
	"minutes_pct":                func(p Player) float64 { return p.MinutesPct },
	"value_score":                func(p Player) float64 { return p.ValueScore },
}

// SortableField reports whether field is a valid sort key.
func SortableField(field string) bool {
	_, ok := sortFields[field]
	return ok
}

// Query selects and orders players from a snapshot. Zero values mean
// "no constraint"; the zero Query returns every player unsorted.
type Query struct {
	Position     string  // short code or full name
	Search       string  // case-insensitive substring of any name field
	MinMinutes   int     // drop players below this many minutes
	MaxOwnership float64 // drop players owned by more than this percent (0 = off)
	SortBy       string  // one of sortFields
	Ascending    bool
	Limit        int // 0 = no limit
}

// Select applies q against the snapshot and returns a fresh slice.
// The snapshot itself is never mutated.
func (d *Dataset) Select(q Query) []Player {
	pos := NormalizePosition(q.Position)
	needle := strings.ToLower(q.Search)

	out := make([]Player, 0, len(d.Players))
	for _, p := range d.Players {
		if pos != "" && p.Position != pos {
			continue
		}
		if q.MinMinutes > 0 && p.Minutes < q.MinMinutes {
			continue
		}
		if q.MaxOwnership > 0 && p.SelectedByPercent > q.MaxOwnership {
			continue
		}
		if needle != "" && !matchesName(p, needle) {
			continue
		}
		out = append(out, p)
	}

	if key, ok := sortFields[q.SortBy]; ok {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Ascending {
				return key(out[i]) < key(out[j])
			}
			return key(out[i]) > key(out[j])
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Differentials returns low-ownership players with playing time,
// ordered by form. The classic shortlist for a transfer punt.
func (d *Dataset) Differentials(maxOwnership float64, minMinutes, limit int) []Player {
	return d.Select(Query{
		MaxOwnership: maxOwnership,
		MinMinutes:   minMinutes,
		SortBy:       "form",
		Limit:        limit,
	})
}

// FindByID returns the player with the given upstream id.
func (d *Dataset) FindByID(id int) (Player, bool) {
	for _, p := range d.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func matchesName(p Player, needle string) bool {
	return strings.Contains(strings.ToLower(p.WebName), needle) ||
		strings.Contains(strings.ToLower(p.FirstName), needle) ||
		strings.Contains(strings.ToLower(p.SecondName), needle) ||
		strings.Contains(strings.ToLower(p.TeamName), needle)
}
