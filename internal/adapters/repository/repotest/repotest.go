// Package repotest seeds a throwaway SQLite entity store for tests.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/pkg/logger"
)

// Fixture ids.
const (
	SportBasketball int64 = 1
	SportSoccer     int64 = 2
	SportFootball   int64 = 3

	LeagueNBA           int64 = 1
	LeaguePremierLeague int64 = 2
	LeagueLaLiga        int64 = 3
	LeagueMLS           int64 = 4
	LeagueNFL           int64 = 5

	TeamLakers  int64 = 1
	TeamCeltics int64 = 2
	TeamGalaxy  int64 = 3
	TeamArsenal int64 = 4
	TeamMadrid  int64 = 5
	TeamBarca   int64 = 6
	TeamChiefs  int64 = 7
	TeamRams    int64 = 8
	TeamSonics  int64 = 9

	PlayerLeBron  int64 = 1
	PlayerDavis   int64 = 2
	PlayerTatum   int64 = 3
	PlayerSaka    int64 = 4
	PlayerMahomes int64 = 5
	PlayerHoward  int64 = 6
	PlayerBronny  int64 = 7
	PlayerMilner  int64 = 8

	MarketRushYards       int64 = 1
	MarketReceivingYards  int64 = 2
	MarketRushingAttempts int64 = 3
	MarketTotalPoints     int64 = 4
	MarketPassingYards    int64 = 5
)

// Schema is the DDL of the entity store tables.
var Schema = []string{
	`CREATE TABLE sports (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
	`CREATE TABLE leagues (id INTEGER PRIMARY KEY, name TEXT NOT NULL, sport_id INTEGER,
		region TEXT, region_code TEXT, gender TEXT, numerical_id INTEGER)`,
	`CREATE TABLE teams (id INTEGER PRIMARY KEY, name TEXT NOT NULL, nickname TEXT, abbreviation TEXT,
		city TEXT, mascot TEXT, league_id INTEGER, sport_id INTEGER, logo TEXT)`,
	`CREATE TABLE players (id INTEGER PRIMARY KEY, name TEXT NOT NULL, first_name TEXT, last_name TEXT,
		position TEXT, number TEXT, age INTEGER, height TEXT, weight TEXT,
		team_id INTEGER, league_id INTEGER, sport_id INTEGER)`,
	`CREATE TABLE markets (id INTEGER PRIMARY KEY, name TEXT NOT NULL, market_type_id INTEGER)`,
	`CREATE TABLE market_sports (market_id INTEGER NOT NULL, sport_id INTEGER NOT NULL)`,
	`CREATE TABLE team_aliases (alias TEXT NOT NULL, team_id INTEGER NOT NULL)`,
	`CREATE TABLE player_aliases (alias TEXT NOT NULL, player_id INTEGER NOT NULL)`,
	`CREATE TABLE league_aliases (alias TEXT NOT NULL, league_id INTEGER NOT NULL)`,
	`CREATE TABLE market_aliases (alias TEXT NOT NULL, market_id INTEGER NOT NULL)`,
}

// Fixtures populate the tables created by Schema.
var Fixtures = []string{
	`INSERT INTO sports (id, name) VALUES (1, 'Basketball'), (2, 'Soccer'), (3, 'Football')`,
	`INSERT INTO leagues (id, name, sport_id, region, region_code) VALUES
		(1, 'NBA', 1, 'USA', 'US'),
		(2, 'Premier League', 2, 'England', 'GB'),
		(3, 'La Liga', 2, 'Spain', 'ES'),
		(4, 'MLS', 2, 'USA', 'US'),
		(5, 'NFL', 3, 'USA', 'US')`,
	`INSERT INTO teams (id, name, nickname, abbreviation, city, mascot, league_id, sport_id) VALUES
		(1, 'Los Angeles Lakers', 'Lakers', 'LAL', 'Los Angeles', NULL, 1, 1),
		(2, 'Boston Celtics', 'Celtics', 'BOS', 'Boston', 'Lucky', 1, 1),
		(3, 'Los Angeles Galaxy', 'Galaxy', 'LAG', 'Los Angeles', NULL, 4, 2),
		(4, 'Arsenal', 'Gunners', 'ARS', 'London', 'Gunnersaurus', 2, 2),
		(5, 'Real Madrid', 'Los Blancos', 'RMA', 'Madrid', NULL, 3, 2),
		(6, 'Barcelona', 'Blaugrana', 'FCB', 'Barcelona', NULL, 3, 2),
		(7, 'Kansas City Chiefs', 'Chiefs', 'KC', 'Kansas City', 'KC Wolf', 5, 3),
		(8, 'Los Angeles Rams', 'Rams', 'LAR', 'Los Angeles', 'Rampage', 5, 3),
		(9, 'Seattle SuperSonics', 'Sonics', 'SEA', 'Seattle', NULL, NULL, 1)`,
	`INSERT INTO players (id, name, first_name, last_name, position, number, age, height, weight, team_id, league_id, sport_id) VALUES
		(1, 'LeBron James', 'LeBron', 'James', 'F', '23', 39, '6-9', '250', 1, 1, 1),
		(2, 'Anthony Davis', 'Anthony', 'Davis', 'F-C', '3', 31, '6-10', '253', 1, 1, 1),
		(3, 'Jayson Tatum', 'Jayson', 'Tatum', 'F', '0', 26, '6-8', '210', 2, 1, 1),
		(4, 'Bukayo Saka', 'Bukayo', 'Saka', 'RW', '7', 22, NULL, NULL, 4, 2, 2),
		(5, 'Patrick Mahomes', 'Patrick', 'Mahomes', 'QB', '15', 28, NULL, NULL, 7, 5, 3),
		(6, 'Dwight Howard', 'Dwight', 'Howard', 'C', NULL, NULL, NULL, NULL, NULL, NULL, 1),
		(7, 'Bronny James', 'Bronny', 'James', 'G', '9', 19, NULL, NULL, 1, 1, 1),
		(8, 'James Milner', 'James', 'Milner', 'M', '6', 38, NULL, NULL, 4, 2, 2)`,
	`INSERT INTO markets (id, name, market_type_id) VALUES
		(1, 'RushYards', 10),
		(2, 'Receiving Yards', 10),
		(3, 'Rushing Attempts', 11),
		(4, 'Total Points', 20),
		(5, 'Passing Yards', NULL)`,
	`INSERT INTO market_sports (market_id, sport_id) VALUES
		(1, 3), (2, 3), (3, 3), (4, 1), (4, 2), (4, 3), (5, 3)`,
	`INSERT INTO team_aliases (alias, team_id) VALUES
		('LA Lakers', 1), ('Lakers', 1), ('Celtics', 2), ('Gunners', 4), ('Los Blancos', 5)`,
	`INSERT INTO player_aliases (alias, player_id) VALUES ('King James', 1), ('AD', 2)`,
	`INSERT INTO league_aliases (alias, league_id) VALUES ('EPL', 2), ('English Premier League', 2)`,
	`INSERT INTO market_aliases (alias, market_id) VALUES ('rush_yards', 1), ('Rec Yds', 2)`,
}

// Seed creates the schema and loads the fixtures.
func Seed(ctx context.Context, db *sql.DB) error {
	for _, stmt := range append(append([]string(nil), Schema...), Fixtures...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// NewSQLite seeds a SQLite database in a temporary directory and opens a
// store on it. The store is closed when the test ends.
func NewSQLite(tb testing.TB, opts ...repository.Option) *repository.SQLStore {
	tb.Helper()
	return NewSQLiteWith(tb, nil, opts...)
}

// NewSQLiteWith is NewSQLite with extra statements run after the fixtures.
func NewSQLiteWith(tb testing.TB, extra []string, opts ...repository.Option) *repository.SQLStore {
	tb.Helper()
	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "entities.db")

	seedDB, err := sql.Open(repository.DriverSQLite, path)
	if err != nil {
		tb.Fatalf("open seed db: %v", err)
	}
	if err := Seed(ctx, seedDB); err != nil {
		_ = seedDB.Close()
		tb.Fatalf("%v", err)
	}
	for _, stmt := range extra {
		if _, err := seedDB.ExecContext(ctx, stmt); err != nil {
			_ = seedDB.Close()
			tb.Fatalf("extra fixture: %v", err)
		}
	}
	if err := seedDB.Close(); err != nil {
		tb.Fatalf("close seed db: %v", err)
	}

	opts = append([]repository.Option{repository.WithLogger(logger.Nop())}, opts...)
	store, err := repository.Open(ctx, repository.DriverSQLite, path, opts...)
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
