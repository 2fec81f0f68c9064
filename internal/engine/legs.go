package engine

import (
	"fmt"
	"strings"

	"github.com/novatitan/prediction-core/internal/models"
)

// Tunable scoring weights. Inherited from production; flagged for
// product-level review rather than tuned here.
const (
	winRateWeight    = 0.30
	recentFormWeight = 0.12
	homeEdgeProb     = 0.04
	importanceProb   = 0.02
	weatherHomeProb  = 0.02

	minWinProb = 0.08
	maxWinProb = 0.92

	// Standard -110 juice breakeven probability
	breakevenProb = 0.524
)

// moneylineLeg picks the outright winner from win-rate and recent-form
// differentials plus situational modifiers, and prices the edge against
// the best available book.
func moneylineLeg(game *models.Game, home, away *models.TeamStats, gctx *models.GameContext, profile models.SportProfile) *models.PredictionLeg {
	winDiff := home.WinRate() - away.WinRate()
	formDiff := home.RecentForm() - away.RecentForm()

	homeProb := 0.5 + winRateWeight*winDiff + recentFormWeight*formDiff + homeEdgeProb

	var situational []string
	if gctx != nil {
		if gctx.Importance == models.ImportancePlayoff || gctx.Importance == models.ImportanceDivision {
			// High-stakes games compress toward the stronger side
			if winDiff > 0 {
				homeProb += importanceProb
			} else if winDiff < 0 {
				homeProb -= importanceProb
			}
			situational = append(situational, fmt.Sprintf("%s game raises stakes", gctx.Importance))
		}
		if profile.Outdoor && gctx.AdverseWeather() {
			// Home side is more familiar with its own conditions
			homeProb += weatherHomeProb
			situational = append(situational, "home side better suited to adverse conditions")
		}
	}

	if homeProb < minWinProb {
		homeProb = minWinProb
	}
	if homeProb > maxWinProb {
		homeProb = maxWinProb
	}

	pick := game.HomeTeam
	prob := homeProb
	if homeProb < 0.5 {
		pick = game.AwayTeam
		prob = 1 - homeProb
	}

	confidence := 50 + (prob-0.5)*110

	ev := moneylineEV(game, pick, prob)

	reasoning := fmt.Sprintf("%s %d-%d (%.0f%% win rate) vs %s %d-%d (%.0f%%); last five %d-%d vs %d-%d; home edge applied",
		game.HomeTeam, home.Wins, home.Losses, home.WinRate()*100,
		game.AwayTeam, away.Wins, away.Losses, away.WinRate()*100,
		home.LastFiveWins, 5-home.LastFiveWins,
		away.LastFiveWins, 5-away.LastFiveWins)
	if len(situational) > 0 {
		reasoning += "; " + strings.Join(situational, "; ")
	}

	leg := &models.PredictionLeg{
		Type:          models.LegMoneyline,
		Pick:          pick,
		Confidence:    confidence,
		ExpectedValue: ev,
		Reasoning:     reasoning,
	}
	leg.ClampConfidence()
	return leg
}

// moneylineEV compares the modeled win probability with the implied
// probability of the best available price for the picked side.
func moneylineEV(game *models.Game, pick string, prob float64) float64 {
	var price int
	var found bool
	if pick == game.HomeTeam {
		price, found = game.BestHomeMoneyline()
	} else {
		price, found = game.BestAwayMoneyline()
	}

	implied := breakevenProb
	if found {
		implied = models.ImpliedProbability(price)
	}
	return (prob - implied) * 100
}

// spreadLeg compares a predicted scoring margin against the market line.
// Returns nil when no book posts a spread.
func spreadLeg(game *models.Game, home, away *models.TeamStats, profile models.SportProfile) *models.PredictionLeg {
	line, ok := game.ConsensusSpread()
	if !ok {
		return nil
	}

	// Predicted home margin: half of each side's average differential
	// plus the sport's home-field bonus
	margin := (home.AvgMargin()-away.AvgMargin())/2 + profile.HomeFieldPoints

	// Home covers when the predicted margin beats the line it lays
	divergence := margin + line.InexactFloat64()

	pick := game.HomeTeam
	if divergence < 0 {
		pick = game.AwayTeam
	}

	coverProb := 0.5 + minFloat(0.35, absFloat(divergence)*0.03)
	confidence := 50 + minFloat(40, absFloat(divergence)*4)
	ev := (coverProb - breakevenProb) * 100

	reasoning := fmt.Sprintf("Projected margin %s %+.1f (avg differential %+.1f vs %+.1f, home bonus %+.1f) against line %s %s",
		game.HomeTeam, margin, home.AvgMargin(), away.AvgMargin(), profile.HomeFieldPoints,
		game.HomeTeam, line.StringFixed(1))

	leg := &models.PredictionLeg{
		Type:          models.LegSpread,
		Pick:          pick,
		Line:          &line,
		Confidence:    confidence,
		ExpectedValue: ev,
		Reasoning:     reasoning,
	}
	leg.ClampConfidence()
	return leg
}

// Weather discounts applied to the projected total in outdoor sports
const (
	highWindMPH          = 15
	severeWindMPH        = 25
	freezingF            = 32
	windDiscount         = 0.03
	severeWindDiscount   = 0.06
	precipitationDiscount = 0.04
	freezingDiscount     = 0.02
)

// totalLeg projects a combined score from both offenses and defenses,
// discounts it for adverse outdoor weather, and compares against the
// market total. Returns nil when no book posts a total.
func totalLeg(game *models.Game, home, away *models.TeamStats, gctx *models.GameContext, profile models.SportProfile) *models.PredictionLeg {
	line, ok := game.ConsensusTotal()
	if !ok {
		return nil
	}

	// Expected points per side: own offense averaged with the opponent's defense
	homePoints := (home.PointsFor + away.PointsAgainst) / 2
	awayPoints := (away.PointsFor + home.PointsAgainst) / 2
	predicted := homePoints + awayPoints

	var conditions []string
	if profile.Outdoor && gctx != nil && gctx.Weather != nil {
		w := gctx.Weather
		if w.WindMPH >= severeWindMPH {
			predicted *= 1 - severeWindDiscount
			conditions = append(conditions, fmt.Sprintf("severe wind %.0f mph", w.WindMPH))
		} else if w.WindMPH >= highWindMPH {
			predicted *= 1 - windDiscount
			conditions = append(conditions, fmt.Sprintf("high wind %.0f mph", w.WindMPH))
		}
		if w.Precipitation {
			predicted *= 1 - precipitationDiscount
			conditions = append(conditions, "precipitation")
		}
		if w.TempF <= freezingF {
			predicted *= 1 - freezingDiscount
			conditions = append(conditions, fmt.Sprintf("freezing temperature %.0fF", w.TempF))
		}
	}

	divergence := predicted - line.InexactFloat64()

	pick := "over"
	if divergence < 0 {
		pick = "under"
	}

	coverProb := 0.5 + minFloat(0.35, absFloat(divergence)*0.025)
	confidence := 50 + minFloat(40, absFloat(divergence)*3.5)
	ev := (coverProb - breakevenProb) * 100

	reasoning := fmt.Sprintf("Projected total %.1f (offense/defense averages %.1f + %.1f) against line %s",
		predicted, homePoints, awayPoints, line.StringFixed(1))
	if len(conditions) > 0 {
		reasoning += "; reduced for " + strings.Join(conditions, ", ")
	}

	leg := &models.PredictionLeg{
		Type:          models.LegTotal,
		Pick:          pick,
		Line:          &line,
		Confidence:    confidence,
		ExpectedValue: ev,
		Reasoning:     reasoning,
	}
	leg.ClampConfidence()
	return leg
}

// valueTier classifies the best expected value across legs
func valueTier(legs []*models.PredictionLeg) models.Tier {
	best := -100.0
	for _, l := range legs {
		if l.ExpectedValue > best {
			best = l.ExpectedValue
		}
	}
	switch {
	case best >= 4:
		return models.TierHigh
	case best >= 1.5:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
