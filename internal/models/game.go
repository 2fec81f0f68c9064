package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game represents a scheduled matchup as returned by the odds provider
type Game struct {
	ID           string    `json:"id" validate:"required"`
	Sport        string    `json:"sport" validate:"required"`
	HomeTeam     string    `json:"home_team" validate:"required"`
	AwayTeam     string    `json:"away_team" validate:"required"`
	HomeLogo     string    `json:"home_logo,omitempty"`
	AwayLogo     string    `json:"away_logo,omitempty"`
	CommenceTime time.Time `json:"commence_time" validate:"required"`
	Venue        string    `json:"venue,omitempty"`
	Books        []BookOdds `json:"books,omitempty"`
}

// BookOdds represents one bookmaker's price table for a game
type BookOdds struct {
	Bookmaker     string          `json:"bookmaker"`
	HomeMoneyline int             `json:"home_moneyline"` // American odds
	AwayMoneyline int             `json:"away_moneyline"`
	Spread        decimal.Decimal `json:"spread"`       // home line, e.g. -3.5
	SpreadJuice   int             `json:"spread_juice"` // e.g. -110
	Total         decimal.Decimal `json:"total"`
	OverJuice     int             `json:"over_juice"`
	UnderJuice    int             `json:"under_juice"`
	LastUpdate    time.Time       `json:"last_update"`
}

// BookCount returns the number of bookmakers pricing this game
func (g *Game) BookCount() int {
	return len(g.Books)
}

// BestHomeMoneyline returns the most favorable home price across books.
// Higher American odds are always better for the bettor.
func (g *Game) BestHomeMoneyline() (int, bool) {
	return bestPrice(g.Books, func(b BookOdds) int { return b.HomeMoneyline })
}

// BestAwayMoneyline returns the most favorable away price across books
func (g *Game) BestAwayMoneyline() (int, bool) {
	return bestPrice(g.Books, func(b BookOdds) int { return b.AwayMoneyline })
}

func bestPrice(books []BookOdds, pick func(BookOdds) int) (int, bool) {
	best := 0
	found := false
	for _, b := range books {
		p := pick(b)
		if p == 0 {
			continue
		}
		if !found || p > best {
			best = p
			found = true
		}
	}
	return best, found
}

// ConsensusSpread returns the average home spread line across books
func (g *Game) ConsensusSpread() (decimal.Decimal, bool) {
	return averageLine(g.Books, func(b BookOdds) decimal.Decimal { return b.Spread })
}

// ConsensusTotal returns the average total line across books
func (g *Game) ConsensusTotal() (decimal.Decimal, bool) {
	return averageLine(g.Books, func(b BookOdds) decimal.Decimal { return b.Total })
}

func averageLine(books []BookOdds, pick func(BookOdds) decimal.Decimal) (decimal.Decimal, bool) {
	sum := decimal.Zero
	count := 0
	for _, b := range books {
		line := pick(b)
		if line.IsZero() {
			continue
		}
		sum = sum.Add(line)
		count++
	}
	if count == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(int64(count))), true
}

// ImpliedProbability converts an American price to its implied win probability
func ImpliedProbability(american int) float64 {
	switch {
	case american > 0:
		return 100.0 / float64(american+100)
	case american < 0:
		return float64(-american) / float64(-american+100)
	default:
		return 0
	}
}
