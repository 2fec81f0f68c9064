package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestMoneyline(t *testing.T) {
	g := &Game{
		Books: []BookOdds{
			{Bookmaker: "a", HomeMoneyline: -150, AwayMoneyline: 130},
			{Bookmaker: "b", HomeMoneyline: -145, AwayMoneyline: 125},
			{Bookmaker: "c"}, // no prices posted
		},
	}

	home, ok := g.BestHomeMoneyline()
	require.True(t, ok)
	assert.Equal(t, -145, home, "less negative is the better price")

	away, ok := g.BestAwayMoneyline()
	require.True(t, ok)
	assert.Equal(t, 130, away)
}

func TestBestMoneylineNoBooks(t *testing.T) {
	g := &Game{}
	_, ok := g.BestHomeMoneyline()
	assert.False(t, ok)
}

func TestConsensusLines(t *testing.T) {
	g := &Game{
		Books: []BookOdds{
			{Spread: decimal.NewFromFloat(-3), Total: decimal.NewFromFloat(47)},
			{Spread: decimal.NewFromFloat(-4), Total: decimal.NewFromFloat(48)},
			{}, // no lines posted
		},
	}

	spread, ok := g.ConsensusSpread()
	require.True(t, ok)
	assert.True(t, spread.Equal(decimal.NewFromFloat(-3.5)))

	total, ok := g.ConsensusTotal()
	require.True(t, ok)
	assert.True(t, total.Equal(decimal.NewFromFloat(47.5)))
}

func TestConsensusLinesAbsent(t *testing.T) {
	g := &Game{Books: []BookOdds{{HomeMoneyline: -110}}}
	_, ok := g.ConsensusSpread()
	assert.False(t, ok)
	_, ok = g.ConsensusTotal()
	assert.False(t, ok)
}

func TestImpliedProbability(t *testing.T) {
	assert.InDelta(t, 0.6, ImpliedProbability(-150), 1e-9)
	assert.InDelta(t, 100.0/230.0, ImpliedProbability(130), 1e-9)
	assert.Zero(t, ImpliedProbability(0))
}

func TestTeamStatsDerived(t *testing.T) {
	s := &TeamStats{Wins: 10, Losses: 2, PointsFor: 27, PointsAgainst: 19, LastFiveWins: 4}
	assert.Equal(t, 12, s.GamesPlayed())
	assert.InDelta(t, 10.0/12.0, s.WinRate(), 1e-9)
	assert.InDelta(t, 0.8, s.RecentForm(), 1e-9)
	assert.InDelta(t, 8.0, s.AvgMargin(), 1e-9)

	empty := &TeamStats{}
	assert.Equal(t, 0.5, empty.WinRate(), "no games defaults to a neutral rate")
}

func TestValidationResultPenalties(t *testing.T) {
	r := NewValidationResult()
	assert.True(t, r.Valid)
	assert.Equal(t, 1.0, r.Confidence)

	r.AddWarning("first", 0.10)
	r.AddWarning("second", 0.20)
	assert.True(t, r.Valid)
	assert.InDelta(t, 0.9*0.8, r.Confidence, 1e-9, "penalties compound multiplicatively")

	r.AddError("fatal")
	assert.False(t, r.Valid)
}

func TestAdverseWeather(t *testing.T) {
	tests := []struct {
		name    string
		weather *Weather
		want    bool
	}{
		{"nil weather", nil, false},
		{"calm", &Weather{TempF: 70, WindMPH: 5}, false},
		{"high wind", &Weather{TempF: 70, WindMPH: 18}, true},
		{"precipitation", &Weather{TempF: 70, Precipitation: true}, true},
		{"freezing", &Weather{TempF: 30}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &GameContext{Weather: tt.weather}
			assert.Equal(t, tt.want, c.AdverseWeather())
		})
	}
}

func TestKeyInjuries(t *testing.T) {
	c := &GameContext{Injuries: []Injury{
		{Team: "Chiefs", Player: "A", Status: "out"},
		{Team: "Chiefs", Player: "B", Status: "doubtful"},
		{Team: "Chiefs", Player: "C", Status: "questionable"},
		{Team: "Bills", Player: "D", Status: "out"},
	}}

	key := c.KeyInjuries("Chiefs")
	require.Len(t, key, 2, "only out and doubtful are key")
	assert.Equal(t, "A", key[0].Player)
	assert.Equal(t, "B", key[1].Player)
}
