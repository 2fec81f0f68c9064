package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/metrics"
	"github.com/novatitan/prediction-core/internal/models"
)

// ValidatorConfig holds the tunable thresholds for the data validator.
// These are defaults inherited from production, not physical constants;
// they are expected to be reviewed at the product level.
type ValidatorConfig struct {
	HighConfidence       float64       `mapstructure:"high_confidence"`        // legs above this are suspicious
	LowConfidence        float64       `mapstructure:"low_confidence"`         // legs below this add little value
	MinSourceReliability float64       `mapstructure:"min_source_reliability"` // average reliability floor
	StalenessWindow      time.Duration `mapstructure:"staleness_window"`
	FutureSkew           time.Duration `mapstructure:"future_skew"` // clock-skew allowance
	MinReasoningLength   int           `mapstructure:"min_reasoning_length"`
}

// DefaultValidatorConfig returns the built-in thresholds
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		HighConfidence:       95,
		LowConfidence:        55,
		MinSourceReliability: 0.6,
		StalenessWindow:      24 * time.Hour,
		FutureSkew:           5 * time.Minute,
		MinReasoningLength:   20,
	}
}

// Filler phrases that indicate reasoning text was not derived from data
var genericReasoningTerms = []string{
	"good team",
	"bad team",
	"should win",
	"easy win",
	"gut feeling",
	"no reason",
}

// Absolute-certainty language; heavily penalized but not fatal
var certaintyTerms = []string{
	"guaranteed",
	"100% chance",
	"can't lose",
	"cannot lose",
	"sure thing",
	"lock of the",
}

// PredictionValidator sanity-checks statistics, odds and predictions for
// structural completeness and domain plausibility
type PredictionValidator struct {
	cfg      ValidatorConfig
	profiles map[string]models.SportProfile
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewPredictionValidator creates a new validator
func NewPredictionValidator(cfg ValidatorConfig, logger *logrus.Logger) *PredictionValidator {
	return &PredictionValidator{
		cfg:      cfg,
		profiles: models.DefaultSportProfiles(),
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidatePrediction checks a prediction for structural completeness,
// plausible confidence bands, source reliability and reasoning quality.
// Warnings reduce the confidence multiplier; errors mean the prediction
// must be discarded.
func (v *PredictionValidator) ValidatePrediction(p *models.Prediction, sources []models.SourceRating) *models.ValidationResult {
	result := models.NewValidationResult()
	defer func() { metrics.RecordValidationWarnings(len(result.Warnings)) }()

	if p == nil {
		result.AddError("prediction is nil")
		return result
	}

	// Structural completeness; contract violations are fatal
	if p.ID == uuid.Nil {
		result.AddError("prediction id is required")
	}
	if p.GameID == "" {
		result.AddError("game_id is required")
	}
	if p.Sport == "" {
		result.AddError("sport is required")
	}
	if p.Moneyline == nil {
		result.AddError("moneyline leg is required")
	} else if math.IsNaN(p.Moneyline.Confidence) || math.IsInf(p.Moneyline.Confidence, 0) {
		result.AddError("moneyline confidence is not a number")
	}
	if err := v.validate.Struct(p); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			result.AddError(fmt.Sprintf("structural validation failed: %v", err))
		}
	}
	if !result.Valid {
		return result
	}

	// Timestamp sanity: future generation or stale predictions are fatal
	now := time.Now()
	if p.GeneratedAt.After(now.Add(v.cfg.FutureSkew)) {
		result.AddError(fmt.Sprintf("generated_at is in the future by %v", p.GeneratedAt.Sub(now)))
	}
	if p.GeneratedAt.Before(now.Add(-v.cfg.StalenessWindow)) {
		result.AddError(fmt.Sprintf("prediction is stale: generated %v ago", now.Sub(p.GeneratedAt)))
	}
	if !result.Valid {
		return result
	}

	// Confidence plausibility bands
	for _, leg := range p.Legs() {
		if leg.Confidence > v.cfg.HighConfidence {
			result.AddWarning(fmt.Sprintf("%s confidence %.1f is unrealistically high", leg.Type, leg.Confidence), 0.10)
		} else if leg.Confidence < v.cfg.LowConfidence {
			result.AddWarning(fmt.Sprintf("%s confidence %.1f is very low", leg.Type, leg.Confidence), 0.05)
		}
		v.checkReasoning(leg, result)
	}

	// Source reliability
	if len(sources) > 0 {
		total := 0.0
		for _, s := range sources {
			total += s.Reliability
		}
		avg := total / float64(len(sources))
		if avg < v.cfg.MinSourceReliability {
			penalty := (v.cfg.MinSourceReliability - avg) / v.cfg.MinSourceReliability
			if penalty > 0.5 {
				penalty = 0.5
			}
			result.AddWarning(fmt.Sprintf("average source reliability %.2f below threshold %.2f", avg, v.cfg.MinSourceReliability), penalty)
		}
	}

	return result
}

func (v *PredictionValidator) checkReasoning(leg *models.PredictionLeg, result *models.ValidationResult) {
	reasoning := strings.ToLower(leg.Reasoning)

	if len(leg.Reasoning) < v.cfg.MinReasoningLength {
		result.AddWarning(fmt.Sprintf("%s reasoning is too short to be meaningful", leg.Type), 0.05)
		return
	}

	for _, term := range certaintyTerms {
		if strings.Contains(reasoning, term) {
			result.AddWarning(fmt.Sprintf("%s reasoning contains absolute-certainty language (%q)", leg.Type, term), 0.20)
			break
		}
	}

	generic := 0
	for _, term := range genericReasoningTerms {
		if strings.Contains(reasoning, term) {
			generic++
		}
	}
	if generic > 0 {
		result.AddWarning(fmt.Sprintf("%s reasoning uses %d generic filler phrase(s)", leg.Type, generic), 0.05*float64(generic))
	}
}

// ValidateTeamStats checks a statistics record for impossible or
// implausible values. Impossible records (negative counts, nil) are fatal;
// implausible ones only warn.
func (v *PredictionValidator) ValidateTeamStats(stats *models.TeamStats, team, sport string) *models.ValidationResult {
	result := models.NewValidationResult()
	defer func() { metrics.RecordValidationWarnings(len(result.Warnings)) }()

	if stats == nil {
		result.AddError(fmt.Sprintf("no statistics available for %s", team))
		return result
	}

	if stats.Wins < 0 || stats.Losses < 0 {
		result.AddError(fmt.Sprintf("negative record %d-%d for %s", stats.Wins, stats.Losses, team))
		return result
	}

	profile := models.ProfileFor(v.profiles, sport)

	if stats.GamesPlayed() > profile.MaxGames {
		result.AddWarning(fmt.Sprintf("%s record %d-%d exceeds %s maximum of %d games",
			team, stats.Wins, stats.Losses, sport, profile.MaxGames), 0.15)
	}

	if stats.PointsFor < profile.MinAvgScore || stats.PointsFor > profile.MaxAvgScore {
		result.AddWarning(fmt.Sprintf("%s scoring average %.1f outside plausible %s range [%.1f, %.1f]",
			team, stats.PointsFor, sport, profile.MinAvgScore, profile.MaxAvgScore), 0.10)
	}
	if stats.PointsAgainst < profile.MinAvgScore || stats.PointsAgainst > profile.MaxAvgScore {
		result.AddWarning(fmt.Sprintf("%s points-against average %.1f outside plausible %s range [%.1f, %.1f]",
			team, stats.PointsAgainst, sport, profile.MinAvgScore, profile.MaxAvgScore), 0.10)
	}

	splitGames := stats.HomeWins + stats.HomeLosses + stats.AwayWins + stats.AwayLosses
	if splitGames > 0 && splitGames != stats.GamesPlayed() {
		result.AddWarning(fmt.Sprintf("%s home/away split (%d games) does not reconcile with overall record (%d games)",
			team, splitGames, stats.GamesPlayed()), 0.10)
	}

	return result
}

// ValidateOdds checks a game's bookmaker prices for plausible magnitudes.
// All findings are warnings; odd-looking prices reduce confidence but do
// not block scoring.
func (v *PredictionValidator) ValidateOdds(game *models.Game) *models.ValidationResult {
	result := models.NewValidationResult()
	defer func() { metrics.RecordValidationWarnings(len(result.Warnings)) }()

	if game == nil || len(game.Books) == 0 {
		return result
	}

	profile := models.ProfileFor(v.profiles, game.Sport)

	for _, book := range game.Books {
		for _, ml := range []int{book.HomeMoneyline, book.AwayMoneyline} {
			if ml == 0 {
				continue
			}
			abs := ml
			if abs < 0 {
				abs = -abs
			}
			if abs < 100 || abs > 2000 {
				result.AddWarning(fmt.Sprintf("%s moneyline %+d outside plausible magnitude band", book.Bookmaker, ml), 0.05)
			}
		}

		if !book.Spread.IsZero() {
			if book.Spread.Abs().InexactFloat64() > profile.MaxSpread {
				result.AddWarning(fmt.Sprintf("%s spread %s implausibly large for %s", book.Bookmaker, book.Spread, game.Sport), 0.05)
			}
			if book.SpreadJuice != 0 && (book.SpreadJuice > -100 || book.SpreadJuice < -120) {
				result.AddWarning(fmt.Sprintf("%s spread juice %+d outside typical -100..-120 band", book.Bookmaker, book.SpreadJuice), 0.03)
			}
		}

		if !book.Total.IsZero() {
			total := book.Total.InexactFloat64()
			if total < profile.MinTotal || total > profile.MaxTotal {
				result.AddWarning(fmt.Sprintf("%s total %s outside plausible %s range [%.1f, %.1f]",
					book.Bookmaker, book.Total, game.Sport, profile.MinTotal, profile.MaxTotal), 0.05)
			}
		}
	}

	return result
}
