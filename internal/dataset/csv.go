package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// row gives header-indexed access to one CSV record. Upstream files
// grow and reorder columns between seasons, so every lookup tolerates
// a missing column and falls back to the zero value.
type row struct {
	header map[string]int
	fields []string
}

func (r row) str(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return r.fields[idx]
}

func (r row) num(col string) int {
	n, err := strconv.Atoi(r.str(col))
	if err != nil {
		return 0
	}
	return n
}

func (r row) float(col string) float64 {
	f, err := strconv.ParseFloat(r.str(col), 64)
	if err != nil {
		return 0
	}
	return f
}

// chance reads the availability column, defaulting to fully fit when
// the file omits it or leaves it blank.
func (r row) chance() int {
	s := r.str("chance_of_playing_next_round")
	if s == "" {
		return 100
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 100
	}
	return n
}

// readRows parses raw CSV bytes into header-indexed rows.
func readRows(raw []byte) ([]row, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1 // upstream rows are occasionally ragged

	headerRec, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	header := make(map[string]int, len(headerRec))
	for i, name := range headerRec {
		header[name] = i
	}

	var rows []row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}
		rows = append(rows, row{header: header, fields: rec})
	}
	return rows, nil
}

// ParsePlayerStats decodes a per-gameweek playerstats.csv payload.
func ParsePlayerStats(raw []byte) ([]Player, error) {
	rows, err := readRows(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse playerstats")
	}

	players := make([]Player, 0, len(rows))
	for _, r := range rows {
		players = append(players, Player{
			ID:                       r.num("id"),
			WebName:                  r.str("web_name"),
			FirstName:                r.str("first_name"),
			SecondName:               r.str("second_name"),
			Status:                   r.str("status"),
			News:                     r.str("news"),
			ChanceOfPlaying:          r.chance(),
			NowCost:                  r.num("now_cost"),
			CostChangeEvent:          r.num("cost_change_event"),
			SelectedByPercent:        r.float("selected_by_percent"),
			TransfersIn:              r.num("transfers_in"),
			TransfersOut:             r.num("transfers_out"),
			TransfersBalance:         r.num("transfers_balance"),
			TotalPoints:              r.num("total_points"),
			EventPoints:              r.num("event_points"),
			Form:                     r.float("form"),
			PointsPerGame:            r.float("points_per_game"),
			Bonus:                    r.num("bonus"),
			Minutes:                  r.num("minutes"),
			Starts:                   r.num("starts"),
			GoalsScored:              r.num("goals_scored"),
			Assists:                  r.num("assists"),
			CleanSheets:              r.num("clean_sheets"),
			ExpectedGoalInvolvements: r.float("expected_goal_involvements"),
		})
	}
	return players, nil
}

// PlayerMasterRecord is one row of the players.csv master file, used
// to join team code and position onto the per-gameweek stats.
type PlayerMasterRecord struct {
	PlayerID int
	TeamCode int
	Position string
}

// ParsePlayerMaster decodes the players.csv master file.
func ParsePlayerMaster(raw []byte) (map[int]PlayerMasterRecord, error) {
	rows, err := readRows(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse players master")
	}

	master := make(map[int]PlayerMasterRecord, len(rows))
	for _, r := range rows {
		rec := PlayerMasterRecord{
			PlayerID: r.num("player_id"),
			TeamCode: r.num("team_code"),
			Position: NormalizePosition(r.str("position")),
		}
		if rec.PlayerID != 0 {
			master[rec.PlayerID] = rec
		}
	}
	return master, nil
}

// ParseTeams decodes teams.csv.
func ParseTeams(raw []byte) ([]Team, error) {
	rows, err := readRows(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse teams")
	}

	teams := make([]Team, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, Team{
			Code:      r.num("code"),
			Name:      r.str("name"),
			ShortName: r.str("short_name"),
			Elo:       r.float("elo"),
		})
	}
	return teams, nil
}
