package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/okian/canon/internal/domain/model"
)

const teamColumns = `t.id, t.name, COALESCE(t.abbreviation, ''), COALESCE(t.city, ''),
	COALESCE(t.mascot, ''), COALESCE(t.nickname, '')`

const playerColumns = `p.id, p.name, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
	COALESCE(p.position, ''), p.number, p.age, p.height, p.weight, COALESCE(p.team_id, 0)`

func (s *sqlSession) Teams(ctx context.Context, ids []int64, f Filter) ([]model.TeamView, error) {
	var teams []model.TeamView
	for _, part := range chunk(ids, s.store.maxParams) {
		q := `SELECT ` + teamColumns + `, COALESCE(l.name, ''), COALESCE(l.region, ''), COALESCE(s.name, '')
			FROM teams t
			LEFT JOIN leagues l ON l.id = t.league_id
			LEFT JOIN sports s ON s.id = t.sport_id
			WHERE t.id IN (` + placeholders(len(part)) + `)`
		args := int64Args(part)
		if f.Sport != "" {
			q += ` AND LOWER(s.name) = ?`
			args = append(args, strings.ToLower(f.Sport))
		}
		q += ` ORDER BY t.id`

		rows, err := s.query(ctx, "teams", q, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var tv model.TeamView
			if err := rows.Scan(&tv.ID, &tv.NormalizedName, &tv.Abbreviation, &tv.City, &tv.Mascot, &tv.Nickname,
				&tv.League, &tv.LeagueRegion, &tv.Sport); err != nil {
				rows.Close()
				return nil, s.fail("teams", err)
			}
			tv.Players = []model.PlayerView{}
			teams = append(teams, tv)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.fail("teams", err)
		}
	}

	if len(teams) == 0 {
		return teams, nil
	}

	teamIDs := make([]int64, len(teams))
	byID := make(map[int64]int, len(teams))
	for i, tv := range teams {
		teamIDs[i] = tv.ID
		byID[tv.ID] = i
	}
	roster, err := s.roster(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range roster {
		i := byID[p.TeamID]
		p.TeamID = 0
		teams[i].Players = append(teams[i].Players, p)
	}
	for i := range teams {
		teams[i].PlayerCount = len(teams[i].Players)
	}
	return teams, nil
}

// roster loads the players of every team in one statement per chunk.
func (s *sqlSession) roster(ctx context.Context, teamIDs []int64) ([]model.PlayerView, error) {
	var players []model.PlayerView
	for _, part := range chunk(teamIDs, s.store.maxParams) {
		q := `SELECT ` + playerColumns + ` FROM players p
			WHERE p.team_id IN (` + placeholders(len(part)) + `)
			ORDER BY LOWER(p.name), p.id`
		rows, err := s.query(ctx, "roster", q, int64Args(part)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			p, err := scanPlayer(rows)
			if err != nil {
				rows.Close()
				return nil, s.fail("roster", err)
			}
			players = append(players, p)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.fail("roster", err)
		}
	}
	return players, nil
}

func (s *sqlSession) Players(ctx context.Context, ids []int64, f Filter) ([]model.PlayerView, error) {
	var players []model.PlayerView
	if len(ids) == 0 {
		return players, nil
	}
	teamFilter := f.TeamIDs != nil
	if teamFilter && len(f.TeamIDs) == 0 {
		return players, nil
	}

	for _, part := range chunk(ids, s.store.maxParams) {
		q := `SELECT ` + playerColumns + `, COALESCE(t.name, ''), COALESCE(t.abbreviation, ''), COALESCE(t.city, ''),
				COALESCE(l.name, ''), COALESCE(l.region, ''), COALESCE(s.name, '')
			FROM players p
			LEFT JOIN teams t ON t.id = p.team_id
			LEFT JOIN leagues l ON l.id = COALESCE(p.league_id, t.league_id)
			LEFT JOIN sports s ON s.id = COALESCE(p.sport_id, t.sport_id)
			WHERE p.id IN (` + placeholders(len(part)) + `)`
		args := int64Args(part)
		if teamFilter {
			q += ` AND p.team_id IN (` + placeholders(len(f.TeamIDs)) + `)`
			args = append(args, int64Args(f.TeamIDs)...)
		}
		if f.Sport != "" {
			q += ` AND LOWER(s.name) = ?`
			args = append(args, strings.ToLower(f.Sport))
		}
		q += ` ORDER BY p.id`

		rows, err := s.query(ctx, "players", q, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var (
				pv                     model.PlayerView
				number, height, weight sql.NullString
				age                    sql.NullInt64
			)
			if err := rows.Scan(&pv.ID, &pv.NormalizedName, &pv.FirstName, &pv.LastName, &pv.Position,
				&number, &age, &height, &weight, &pv.TeamID,
				&pv.Team, &pv.TeamAbbreviation, &pv.TeamCity, &pv.League, &pv.LeagueRegion, &pv.Sport); err != nil {
				rows.Close()
				return nil, s.fail("players", err)
			}
			pv.Number, pv.Height, pv.Weight, pv.Age = number.String, height.String, weight.String, int(age.Int64)
			players = append(players, pv)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.fail("players", err)
		}
	}
	return players, nil
}

func scanPlayer(rows *sql.Rows) (model.PlayerView, error) {
	var (
		pv                     model.PlayerView
		number, height, weight sql.NullString
		age                    sql.NullInt64
	)
	if err := rows.Scan(&pv.ID, &pv.NormalizedName, &pv.FirstName, &pv.LastName, &pv.Position,
		&number, &age, &height, &weight, &pv.TeamID); err != nil {
		return pv, err
	}
	pv.Number, pv.Height, pv.Weight, pv.Age = number.String, height.String, weight.String, int(age.Int64)
	return pv, nil
}

func (s *sqlSession) Leagues(ctx context.Context, ids []int64, f Filter) ([]model.LeagueView, error) {
	var leagues []model.LeagueView
	for _, part := range chunk(ids, s.store.maxParams) {
		q := `SELECT l.id, l.name, COALESCE(l.region, ''), COALESCE(s.name, '')
			FROM leagues l
			LEFT JOIN sports s ON s.id = l.sport_id
			WHERE l.id IN (` + placeholders(len(part)) + `)`
		args := int64Args(part)
		if f.Sport != "" {
			q += ` AND LOWER(s.name) = ?`
			args = append(args, strings.ToLower(f.Sport))
		}
		q += ` ORDER BY l.id`

		rows, err := s.query(ctx, "leagues", q, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var lv model.LeagueView
			if err := rows.Scan(&lv.ID, &lv.NormalizedName, &lv.Region, &lv.Sport); err != nil {
				rows.Close()
				return nil, s.fail("leagues", err)
			}
			lv.Teams = []model.TeamSummary{}
			leagues = append(leagues, lv)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.fail("leagues", err)
		}
	}

	if len(leagues) == 0 {
		return leagues, nil
	}

	leagueIDs := make([]int64, len(leagues))
	byID := make(map[int64]int, len(leagues))
	for i, lv := range leagues {
		leagueIDs[i] = lv.ID
		byID[lv.ID] = i
	}
	for _, part := range chunk(leagueIDs, s.store.maxParams) {
		q := `SELECT t.league_id, ` + teamColumns + ` FROM teams t
			WHERE t.league_id IN (` + placeholders(len(part)) + `)
			ORDER BY LOWER(t.name), t.id`
		rows, err := s.query(ctx, "league_teams", q, int64Args(part)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var (
				leagueID int64
				ts       model.TeamSummary
			)
			if err := rows.Scan(&leagueID, &ts.ID, &ts.NormalizedName, &ts.Abbreviation, &ts.City, &ts.Mascot, &ts.Nickname); err != nil {
				rows.Close()
				return nil, s.fail("league_teams", err)
			}
			i := byID[leagueID]
			leagues[i].Teams = append(leagues[i].Teams, ts)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, s.fail("league_teams", err)
		}
	}
	for i := range leagues {
		leagues[i].TeamCount = len(leagues[i].Teams)
	}
	return leagues, nil
}
