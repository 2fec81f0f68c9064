package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatitan/prediction-core/internal/models"
)

func consensusGame(books int) *models.Game {
	g := &models.Game{
		ID: "g1", Sport: "nfl",
		HomeTeam: "Chiefs", AwayTeam: "Bills",
	}
	for i := 0; i < books; i++ {
		g.Books = append(g.Books, models.BookOdds{Bookmaker: "book", HomeMoneyline: -120, AwayMoneyline: 100})
	}
	return g
}

func TestScoreProducesFourModels(t *testing.T) {
	s := NewConsensusScorer(testLogger())
	res := s.Score(consensusGame(2), time.Now())

	require.Len(t, res.Scores, 4)
	seen := map[string]bool{}
	weightSum := 0.0
	for _, ms := range res.Scores {
		seen[ms.Model] = true
		weightSum += ms.Weight
		assert.GreaterOrEqual(t, ms.Score, float64(35))
		assert.LessOrEqual(t, ms.Score, float64(95))
	}
	assert.True(t, seen[ModelStatistical])
	assert.True(t, seen[ModelTrend])
	assert.True(t, seen[ModelSentiment])
	assert.True(t, seen[ModelSharpMoney])
	assert.InDelta(t, 1.0, weightSum, 1e-9)

	assert.GreaterOrEqual(t, res.Consensus, float64(35))
	assert.LessOrEqual(t, res.Consensus, float64(95))
}

func TestScoreDeterministicWithinDay(t *testing.T) {
	s := NewConsensusScorer(testLogger())
	game := consensusGame(2)

	morning := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 1, 15, 21, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)

	first := s.Score(game, morning)
	second := s.Score(game, evening)
	assert.Equal(t, first.Consensus, second.Consensus)
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.MarketSentiment, second.MarketSentiment)

	// Model scores roll over between days for at least some matchups;
	// verify the seed changes rather than a specific value.
	third := s.Score(game, nextDay)
	assert.Len(t, third.Scores, 4)
}

func TestScoreDiffersAcrossMatchups(t *testing.T) {
	s := NewConsensusScorer(testLogger())
	now := time.Now()

	a := s.Score(consensusGame(2), now)

	other := consensusGame(2)
	other.HomeTeam, other.AwayTeam = "Bills", "Chiefs"
	b := s.Score(other, now)

	assert.NotEqual(t, a.Scores, b.Scores, "swapping home and away must change the seed")
}

func TestRiskTiers(t *testing.T) {
	assert.Equal(t, models.TierLow, riskTier(80))
	assert.Equal(t, models.TierLow, riskTier(92))
	assert.Equal(t, models.TierMedium, riskTier(65))
	assert.Equal(t, models.TierMedium, riskTier(79.9))
	assert.Equal(t, models.TierHigh, riskTier(64.9))
	assert.Equal(t, models.TierHigh, riskTier(40))
}

func TestExpectedValueFromConsensus(t *testing.T) {
	// EV grows with consensus
	assert.Greater(t,
		expectedValueFromConsensus(90, 2),
		expectedValueFromConsensus(70, 2))

	// More books raise the achievable edge, capped at three
	assert.Greater(t,
		expectedValueFromConsensus(80, 3),
		expectedValueFromConsensus(80, 1))
	assert.Equal(t,
		expectedValueFromConsensus(80, 3),
		expectedValueFromConsensus(80, 7))

	// Weak consensus with no books is negative
	assert.Less(t, expectedValueFromConsensus(50, 0), 0.0)

	// Hard cap
	assert.LessOrEqual(t, expectedValueFromConsensus(95, 3), 8.0)
}

func TestMarketSentimentBounds(t *testing.T) {
	s := NewConsensusScorer(testLogger())
	res := s.Score(consensusGame(1), time.Now())
	assert.Contains(t, []string{"backing", "fading", "neutral"}, res.MarketSentiment)
}
