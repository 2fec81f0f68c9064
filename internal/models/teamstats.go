package models

import "time"

// TeamStats represents per-team season statistics keyed by team name and sport
type TeamStats struct {
	Team          string    `json:"team" validate:"required"`
	Sport         string    `json:"sport" validate:"required"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	PointsFor     float64   `json:"points_for"`     // per-game scoring average
	PointsAgainst float64   `json:"points_against"` // per-game points allowed
	HomeWins      int       `json:"home_wins"`
	HomeLosses    int       `json:"home_losses"`
	AwayWins      int       `json:"away_wins"`
	AwayLosses    int       `json:"away_losses"`
	LastFiveWins  int       `json:"last_five_wins"`
	ATSWins       int       `json:"ats_wins"` // against-the-spread record
	ATSLosses     int       `json:"ats_losses"`
	OverCount     int       `json:"over_count"` // over/under record
	UnderCount    int       `json:"under_count"`
	Synthetic     bool      `json:"synthetic"` // true when no authoritative source was available
	FetchedAt     time.Time `json:"fetched_at"`
}

// GamesPlayed returns the total number of games in the overall record
func (s *TeamStats) GamesPlayed() int {
	return s.Wins + s.Losses
}

// WinRate returns the win fraction in [0,1], 0.5 when no games played
func (s *TeamStats) WinRate() float64 {
	played := s.GamesPlayed()
	if played == 0 {
		return 0.5
	}
	return float64(s.Wins) / float64(played)
}

// RecentForm returns the last-five win fraction in [0,1]
func (s *TeamStats) RecentForm() float64 {
	if s.LastFiveWins < 0 {
		return 0
	}
	if s.LastFiveWins > 5 {
		return 1
	}
	return float64(s.LastFiveWins) / 5.0
}

// AvgMargin returns the average scoring differential per game
func (s *TeamStats) AvgMargin() float64 {
	return s.PointsFor - s.PointsAgainst
}
