package models

import "time"

// ImportanceTier classifies how much a game matters
type ImportanceTier string

const (
	ImportanceRegular  ImportanceTier = "regular"
	ImportanceDivision ImportanceTier = "division"
	ImportancePlayoff  ImportanceTier = "playoff"
)

// Weather represents conditions at an outdoor venue
type Weather struct {
	TempF         float64 `json:"temp_f"`
	WindMPH       float64 `json:"wind_mph"`
	Precipitation bool    `json:"precipitation"`
	Conditions    string  `json:"conditions,omitempty"`
}

// Injury represents one entry on a team's injury report
type Injury struct {
	Team     string `json:"team"`
	Player   string `json:"player"`
	Position string `json:"position"`
	Status   string `json:"status"` // out, doubtful, questionable, probable
}

// GameContext represents optional situational data for a game.
// Any field may be absent when the context source is unavailable.
type GameContext struct {
	GameID         string         `json:"game_id"`
	Weather        *Weather       `json:"weather,omitempty"`
	Injuries       []Injury       `json:"injuries,omitempty"`
	HomeH2HWins    int            `json:"home_h2h_wins"` // head-to-head, recent meetings
	AwayH2HWins    int            `json:"away_h2h_wins"`
	Rivalry        bool           `json:"rivalry"`
	Importance     ImportanceTier `json:"importance"`
	FetchedAt      time.Time      `json:"fetched_at"`
}

// KeyInjuries returns injuries with status out or doubtful for the given team
func (c *GameContext) KeyInjuries(team string) []Injury {
	var out []Injury
	for _, inj := range c.Injuries {
		if inj.Team != team {
			continue
		}
		if inj.Status == "out" || inj.Status == "doubtful" {
			out = append(out, inj)
		}
	}
	return out
}

// AdverseWeather reports whether conditions are bad enough to suppress scoring
func (c *GameContext) AdverseWeather() bool {
	if c.Weather == nil {
		return false
	}
	return c.Weather.WindMPH >= 15 || c.Weather.Precipitation || c.Weather.TempF <= 32
}
