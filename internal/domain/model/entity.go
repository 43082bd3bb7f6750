// Package model defines the canonical entities held by the entity store and
// the projections returned to callers.
package model

// Sport is a top-level sport ("Basketball", "Soccer").
type Sport struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// League belongs to one sport.
type League struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SportID     int64  `json:"sport_id"`
	Region      string `json:"region,omitempty"`
	RegionCode  string `json:"region_code,omitempty"`
	Gender      string `json:"gender,omitempty"`
	NumericalID int64  `json:"numerical_id,omitempty"`
}

// Team belongs to a league and a sport.
type Team struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	City         string `json:"city,omitempty"`
	Mascot       string `json:"mascot,omitempty"`
	LeagueID     int64  `json:"league_id"`
	SportID      int64  `json:"sport_id"`
	Logo         string `json:"logo,omitempty"`
}

// Player optionally belongs to a team.
type Player struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Position  string `json:"position,omitempty"`
	Number    string `json:"number,omitempty"`
	Age       int    `json:"age,omitempty"`
	Height    string `json:"height,omitempty"`
	Weight    string `json:"weight,omitempty"`
	TeamID    int64  `json:"team_id,omitempty"`
	LeagueID  int64  `json:"league_id,omitempty"`
	SportID   int64  `json:"sport_id,omitempty"`
}

// Market is a betting market type, associated with many sports.
type Market struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MarketTypeID int64  `json:"market_type_id"`
}
