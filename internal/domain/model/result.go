package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates result payloads at the serialization boundary.
type Kind string

const (
	KindTeam   Kind = "team"
	KindPlayer Kind = "player"
	KindLeague Kind = "league"
	KindMarket Kind = "market"
)

// ErrUnknownKind is returned by Decode for payloads without a known "type".
var ErrUnknownKind = errors.New("unknown result kind")

// Result is a resolved lookup. Team, player and league results carry lists
// so ambiguity stays visible; market results carry exactly one market.
type Result interface {
	Kind() Kind
}

// PlayerView is a player projection. The team fields are filled for player
// lookups and left empty for players nested under a team.
type PlayerView struct {
	ID               int64  `json:"id"`
	NormalizedName   string `json:"normalized_name"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Position         string `json:"position,omitempty"`
	Number           string `json:"number,omitempty"`
	Age              int    `json:"age,omitempty"`
	Height           string `json:"height,omitempty"`
	Weight           string `json:"weight,omitempty"`
	TeamID           int64  `json:"team_id,omitempty"`
	Team             string `json:"team,omitempty"`
	TeamAbbreviation string `json:"team_abbreviation,omitempty"`
	TeamCity         string `json:"team_city,omitempty"`
	League           string `json:"league,omitempty"`
	LeagueRegion     string `json:"league_region,omitempty"`
	Sport            string `json:"sport,omitempty"`
}

// TeamView is a team projection with its roster.
type TeamView struct {
	ID             int64        `json:"id"`
	NormalizedName string       `json:"normalized_name"`
	Abbreviation   string       `json:"abbreviation,omitempty"`
	City           string       `json:"city,omitempty"`
	Mascot         string       `json:"mascot,omitempty"`
	Nickname       string       `json:"nickname,omitempty"`
	League         string       `json:"league,omitempty"`
	LeagueRegion   string       `json:"league_region,omitempty"`
	Sport          string       `json:"sport,omitempty"`
	Players        []PlayerView `json:"players"`
	PlayerCount    int          `json:"player_count"`
}

// TeamSummary is a team nested under a league.
type TeamSummary struct {
	ID             int64  `json:"id"`
	NormalizedName string `json:"normalized_name"`
	Abbreviation   string `json:"abbreviation,omitempty"`
	City           string `json:"city,omitempty"`
	Mascot         string `json:"mascot,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
}

// LeagueView is a league projection with its teams.
type LeagueView struct {
	ID             int64         `json:"id"`
	NormalizedName string        `json:"normalized_name"`
	Region         string        `json:"region,omitempty"`
	Sport          string        `json:"sport,omitempty"`
	Teams          []TeamSummary `json:"teams"`
	TeamCount      int           `json:"team_count"`
}

// TeamResult lists the teams matching a team lookup.
type TeamResult struct {
	Type      Kind       `json:"type"`
	Query     string     `json:"query"`
	Teams     []TeamView `json:"teams"`
	TeamCount int        `json:"team_count"`
}

// PlayerResult lists the players matching a player or team+player lookup.
// Team and Sport echo the scoping of a team+player lookup.
type PlayerResult struct {
	Type        Kind         `json:"type"`
	Query       string       `json:"query"`
	Team        string       `json:"team,omitempty"`
	Sport       string       `json:"sport,omitempty"`
	Players     []PlayerView `json:"players"`
	PlayerCount int          `json:"player_count"`
}

// LeagueResult lists the leagues matching a league lookup.
type LeagueResult struct {
	Type        Kind         `json:"type"`
	Query       string       `json:"query"`
	Leagues     []LeagueView `json:"leagues"`
	LeagueCount int          `json:"league_count"`
}

// MarketResult is the single market matching a market lookup.
type MarketResult struct {
	Type           Kind     `json:"type"`
	Query          string   `json:"query"`
	ID             int64    `json:"id"`
	NormalizedName string   `json:"normalized_name"`
	MarketTypeID   int64    `json:"market_type_id"`
	Sports         []string `json:"sports"`
}

func (*TeamResult) Kind() Kind   { return KindTeam }
func (*PlayerResult) Kind() Kind { return KindPlayer }
func (*LeagueResult) Kind() Kind { return KindLeague }
func (*MarketResult) Kind() Kind { return KindMarket }

// NewTeamResult builds a team result; nil slices become empty ones.
func NewTeamResult(query string, teams []TeamView) *TeamResult {
	if teams == nil {
		teams = []TeamView{}
	}
	for i := range teams {
		if teams[i].Players == nil {
			teams[i].Players = []PlayerView{}
		}
		teams[i].PlayerCount = len(teams[i].Players)
	}
	return &TeamResult{Type: KindTeam, Query: query, Teams: teams, TeamCount: len(teams)}
}

// NewPlayerResult builds a player result.
func NewPlayerResult(query string, players []PlayerView) *PlayerResult {
	if players == nil {
		players = []PlayerView{}
	}
	return &PlayerResult{Type: KindPlayer, Query: query, Players: players, PlayerCount: len(players)}
}

// NewLeagueResult builds a league result.
func NewLeagueResult(query string, leagues []LeagueView) *LeagueResult {
	if leagues == nil {
		leagues = []LeagueView{}
	}
	for i := range leagues {
		if leagues[i].Teams == nil {
			leagues[i].Teams = []TeamSummary{}
		}
		leagues[i].TeamCount = len(leagues[i].Teams)
	}
	return &LeagueResult{Type: KindLeague, Query: query, Leagues: leagues, LeagueCount: len(leagues)}
}

// NewMarketResult builds a market result.
func NewMarketResult(query string, m Market, sports []string) *MarketResult {
	if sports == nil {
		sports = []string{}
	}
	return &MarketResult{
		Type:           KindMarket,
		Query:          query,
		ID:             m.ID,
		NormalizedName: m.Name,
		MarketTypeID:   m.MarketTypeID,
		Sports:         sports,
	}
}

// Encode serializes a result with its "type" discriminator.
func Encode(r Result) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("encode: %w", ErrUnknownKind)
	}
	return json.Marshal(r)
}

// Decode restores a result serialized by Encode.
func Decode(data []byte) (Result, error) {
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	var r Result
	switch probe.Type {
	case KindTeam:
		r = &TeamResult{}
	case KindPlayer:
		r = &PlayerResult{}
	case KindLeague:
		r = &LeagueResult{}
	case KindMarket:
		r = &MarketResult{}
	default:
		return nil, fmt.Errorf("decode result %q: %w", probe.Type, ErrUnknownKind)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", probe.Type, err)
	}
	return r, nil
}
