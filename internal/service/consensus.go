package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/hashutil"
	"github.com/novatitan/prediction-core/internal/metrics"
	"github.com/novatitan/prediction-core/internal/models"
)

// Model names contributing to the consensus
const (
	ModelStatistical = "statistical"
	ModelTrend       = "trend"
	ModelSentiment   = "sentiment"
	ModelSharpMoney  = "sharp_money"
)

// Score bounds for each hashed model
const (
	modelScoreMin = 35
	modelScoreMax = 95
)

// Sentiment thresholds on the sharp-money score
const (
	sharpBackingThreshold = 70
	sharpFadingThreshold  = 30
)

// ConsensusResult blends four model scores into one confidence signal
type ConsensusResult struct {
	Scores          []models.ModelScore
	Consensus       float64
	RiskTier        models.Tier
	MarketSentiment string // backing, fading, neutral
	ExpectedValue   float64
}

// ConsensusScorer derives a blended confidence from independently hashed
// model scores. Scores are deterministic per matchup, sport and day.
type ConsensusScorer struct {
	weights map[string]float64
	logger  *logrus.Logger
}

// NewConsensusScorer creates a scorer with equal model weights
func NewConsensusScorer(logger *logrus.Logger) *ConsensusScorer {
	return &ConsensusScorer{
		weights: map[string]float64{
			ModelStatistical: 0.25,
			ModelTrend:       0.25,
			ModelSentiment:   0.25,
			ModelSharpMoney:  0.25,
		},
		logger: logger,
	}
}

// Score computes the consensus for a game. priceSources is the number of
// bookmakers contributing prices; more books raise the achievable edge,
// capped.
func (s *ConsensusScorer) Score(game *models.Game, now time.Time) ConsensusResult {
	matchup := hashutil.MatchupSeed(game.HomeTeam, game.AwayTeam, game.Sport, now)

	scores := make([]models.ModelScore, 0, 4)
	var weighted, sharp float64
	for _, model := range []string{ModelStatistical, ModelTrend, ModelSentiment, ModelSharpMoney} {
		score := float64(hashutil.Bounded(hashutil.Seed(matchup, model), modelScoreMin, modelScoreMax))
		weight := s.weights[model]
		scores = append(scores, models.ModelScore{Model: model, Score: score, Weight: weight})
		weighted += score * weight
		if model == ModelSharpMoney {
			sharp = score
		}
	}

	result := ConsensusResult{
		Scores:    scores,
		Consensus: weighted,
		RiskTier:  riskTier(weighted),
	}

	switch {
	case sharp > sharpBackingThreshold:
		result.MarketSentiment = "backing"
	case sharp < sharpFadingThreshold:
		result.MarketSentiment = "fading"
	default:
		result.MarketSentiment = "neutral"
	}

	result.ExpectedValue = expectedValueFromConsensus(weighted, game.BookCount())

	metrics.UpdateConsensusScore(game.ID, weighted)
	return result
}

func riskTier(consensus float64) models.Tier {
	switch {
	case consensus >= 80:
		return models.TierLow
	case consensus >= 65:
		return models.TierMedium
	default:
		return models.TierHigh
	}
}

// expectedValueFromConsensus derives an EV estimate from the consensus
// confidence and the number of contributing price sources. Shopping more
// books buys a slightly better achievable price, capped at 3 books' worth.
func expectedValueFromConsensus(consensus float64, priceSources int) float64 {
	base := (consensus - 65) / 10.0 // negative below 65, ~3 at 95
	if priceSources > 3 {
		priceSources = 3
	}
	edge := base + 0.5*float64(priceSources)
	if edge > 8 {
		edge = 8
	}
	return edge
}
