package models

// SportProfile captures per-sport plausibility bounds and scoring
// characteristics used by the validator and the prediction engine.
type SportProfile struct {
	Key             string  `json:"key"`
	MaxGames        int     `json:"max_games"`      // regular season maximum
	MinAvgScore     float64 `json:"min_avg_score"`  // plausible per-game scoring band
	MaxAvgScore     float64 `json:"max_avg_score"`
	MinTotal        float64 `json:"min_total"` // plausible posted total band
	MaxTotal        float64 `json:"max_total"`
	MaxSpread       float64 `json:"max_spread"` // largest plausible line magnitude
	HomeFieldPoints float64 `json:"home_field_points"`
	Outdoor         bool    `json:"outdoor"`
}

// DefaultSportProfiles returns the built-in per-sport bounds. Callers may
// override entries from configuration.
func DefaultSportProfiles() map[string]SportProfile {
	return map[string]SportProfile{
		"nfl": {
			Key: "nfl", MaxGames: 17,
			MinAvgScore: 10, MaxAvgScore: 40,
			MinTotal: 30, MaxTotal: 65, MaxSpread: 21,
			HomeFieldPoints: 2.5, Outdoor: true,
		},
		"ncaaf": {
			Key: "ncaaf", MaxGames: 15,
			MinAvgScore: 10, MaxAvgScore: 50,
			MinTotal: 35, MaxTotal: 80, MaxSpread: 35,
			HomeFieldPoints: 3.0, Outdoor: true,
		},
		"nba": {
			Key: "nba", MaxGames: 82,
			MinAvgScore: 95, MaxAvgScore: 130,
			MinTotal: 195, MaxTotal: 250, MaxSpread: 18,
			HomeFieldPoints: 2.0, Outdoor: false,
		},
		"mlb": {
			Key: "mlb", MaxGames: 162,
			MinAvgScore: 2.5, MaxAvgScore: 6.5,
			MinTotal: 6, MaxTotal: 13, MaxSpread: 2.5,
			HomeFieldPoints: 0.2, Outdoor: true,
		},
		"nhl": {
			Key: "nhl", MaxGames: 82,
			MinAvgScore: 2, MaxAvgScore: 4.5,
			MinTotal: 5, MaxTotal: 8, MaxSpread: 2,
			HomeFieldPoints: 0.3, Outdoor: false,
		},
	}
}

// ProfileFor returns the profile for a sport key, falling back to a generic
// permissive profile for unknown sports.
func ProfileFor(profiles map[string]SportProfile, sport string) SportProfile {
	if p, ok := profiles[sport]; ok {
		return p
	}
	return SportProfile{
		Key: sport, MaxGames: 200,
		MinAvgScore: 0, MaxAvgScore: 200,
		MinTotal: 0, MaxTotal: 400, MaxSpread: 50,
		HomeFieldPoints: 1.5, Outdoor: false,
	}
}
