// Package engine scores games into validated betting predictions by
// combining aggregated statistics, situational context, market odds and
// consensus model scores.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/cache"
	"github.com/novatitan/prediction-core/internal/datasource"
	"github.com/novatitan/prediction-core/internal/logger"
	"github.com/novatitan/prediction-core/internal/metrics"
	"github.com/novatitan/prediction-core/internal/models"
	"github.com/novatitan/prediction-core/internal/service"
	"github.com/novatitan/prediction-core/internal/store"
)

const engineVersion = "1.0.0"

// Config holds engine-level settings
type Config struct {
	Sports                 []string      `mapstructure:"sports"`
	MaxConcurrentGames     int           `mapstructure:"max_concurrent_games"`
	GameTimeout            time.Duration `mapstructure:"game_timeout"`
	OddsTTL                time.Duration `mapstructure:"odds_ttl"`
	SyntheticConfidenceCap float64       `mapstructure:"synthetic_confidence_cap"`
	MaxLegConfidence       float64       `mapstructure:"max_leg_confidence"`
	ValidationFloor        float64       `mapstructure:"validation_floor"`
}

// DefaultConfig returns recommended engine defaults
func DefaultConfig() Config {
	return Config{
		Sports:                 []string{"nfl", "nba", "mlb", "nhl"},
		MaxConcurrentGames:     8,
		GameTimeout:            15 * time.Second,
		OddsTTL:                cache.DefaultRealtimeTTL,
		SyntheticConfidenceCap: 75,
		MaxLegConfidence:       95,
		ValidationFloor:        0.7,
	}
}

// ModelInfo describes the scoring models for diagnostics
type ModelInfo struct {
	Version       string             `json:"version"`
	ModelWeights  map[string]float64 `json:"model_weights"`
	LastGenerated time.Time          `json:"last_generated,omitempty"`
}

// Engine turns games into validated predictions. All collaborators are
// injected so tests can substitute fakes.
type Engine struct {
	cfg        Config
	oddsSource datasource.OddsSource
	aggregator *service.StatsAggregator
	validator  *service.PredictionValidator
	consensus  *service.ConsensusScorer
	cache      *cache.Manager
	snapshots  store.Store
	profiles   map[string]models.SportProfile
	logger     *logrus.Logger
	audit      *logger.AuditLogger

	mu            sync.Mutex
	lastGenerated time.Time
}

// New creates a prediction engine
func New(
	cfg Config,
	oddsSource datasource.OddsSource,
	aggregator *service.StatsAggregator,
	validator *service.PredictionValidator,
	consensus *service.ConsensusScorer,
	cacheManager *cache.Manager,
	snapshots store.Store,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		cfg:        cfg,
		oddsSource: oddsSource,
		aggregator: aggregator,
		validator:  validator,
		consensus:  consensus,
		cache:      cacheManager,
		snapshots:  snapshots,
		profiles:   models.DefaultSportProfiles(),
		logger:     log,
		audit:      logger.NewAuditLogger(log),
	}
}

// PredictionsForSport scores every upcoming game for a sport concurrently
// and returns only validated predictions. Individual game failures are
// logged and skipped; they never abort the batch.
func (e *Engine) PredictionsForSport(ctx context.Context, sport string) ([]models.Prediction, error) {
	games, err := e.fetchGames(ctx, sport)
	if err != nil {
		// Odds source down entirely: serve the last persisted snapshot
		// rather than surfacing a transport error.
		if snapshot, loadErr := e.loadSnapshot(ctx, sport); loadErr == nil {
			e.logger.WithError(err).WithField("sport", sport).
				Warn("Odds source unavailable, serving persisted snapshot")
			e.audit.LogSnapshotServed(sport, len(snapshot), err.Error())
			return snapshot, nil
		}
		return nil, fmt.Errorf("failed to fetch games for %s: %w", sport, err)
	}

	predictions := e.scoreBatch(ctx, sport, games)

	e.mu.Lock()
	e.lastGenerated = time.Now()
	e.mu.Unlock()

	e.saveSnapshot(ctx, sport, predictions)
	return predictions, nil
}

// PredictionsForAllSports scores every configured sport. Per-sport
// failures are skipped, matching per-game failure isolation.
func (e *Engine) PredictionsForAllSports(ctx context.Context) ([]models.Prediction, error) {
	var all []models.Prediction
	for _, sport := range e.cfg.Sports {
		preds, err := e.PredictionsForSport(ctx, sport)
		if err != nil {
			e.logger.WithError(err).WithField("sport", sport).Warn("Skipping sport in batch run")
			continue
		}
		all = append(all, preds...)
	}
	return all, nil
}

// InvalidateOdds drops the cached odds for a sport so the next read
// refetches. Wired to the live odds stream.
func (e *Engine) InvalidateOdds(sport string) {
	e.cache.Invalidate(oddsCacheKey(sport))
}

// CacheStats exposes cache diagnostics through the engine boundary
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.GetStats()
}

// ClearCache removes all cached entries (manual refresh-everything)
func (e *Engine) ClearCache() {
	dropped := e.cache.GetStats().Size
	e.cache.Clear()
	e.audit.LogCacheCleared(dropped, "api")
}

// Info returns model metadata for diagnostics
func (e *Engine) Info() ModelInfo {
	e.mu.Lock()
	last := e.lastGenerated
	e.mu.Unlock()
	return ModelInfo{
		Version: engineVersion,
		ModelWeights: map[string]float64{
			service.ModelStatistical: 0.25,
			service.ModelTrend:       0.25,
			service.ModelSentiment:   0.25,
			service.ModelSharpMoney:  0.25,
		},
		LastGenerated: last,
	}
}

func oddsCacheKey(sport string) string {
	return "odds:" + sport
}

func (e *Engine) fetchGames(ctx context.Context, sport string) ([]models.Game, error) {
	return cache.GetTyped(ctx, e.cache, oddsCacheKey(sport), func(ctx context.Context) ([]models.Game, error) {
		return e.oddsSource.FetchGames(ctx, sport)
	}, cache.Options{
		TTL:      e.cfg.OddsTTL,
		Priority: cache.PriorityCritical,
		Strategy: cache.StrategyRealtime,
	})
}

// scoreBatch fans out one worker per game, bounded by MaxConcurrentGames.
// Results are collected as they complete; a failed game never blocks or
// cancels its siblings.
func (e *Engine) scoreBatch(ctx context.Context, sport string, games []models.Game) []models.Prediction {
	workers := e.cfg.MaxConcurrentGames
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var predictions []models.Prediction

	for i := range games {
		game := games[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			pred, err := e.ScoreGame(ctx, &game)
			if err != nil {
				metrics.RecordGameSkipped(sport)
				e.logger.WithError(err).WithFields(logrus.Fields{
					"sport":   sport,
					"game_id": game.ID,
				}).Warn("Skipping game")
				return
			}

			mu.Lock()
			predictions = append(predictions, *pred)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return predictions
}

// ScoreGame runs the full pipeline for one game: stats, context, legs,
// consensus, validation. Returns an error when the game must be skipped.
func (e *Engine) ScoreGame(ctx context.Context, game *models.Game) (*models.Prediction, error) {
	start := time.Now()
	defer func() { metrics.RecordGameScoring(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.GameTimeout)
	defer cancel()

	homeStats, err := e.aggregator.TeamStats(ctx, game.HomeTeam, game.Sport)
	if err != nil {
		return nil, fmt.Errorf("home stats unavailable: %w", err)
	}
	awayStats, err := e.aggregator.TeamStats(ctx, game.AwayTeam, game.Sport)
	if err != nil {
		return nil, fmt.Errorf("away stats unavailable: %w", err)
	}

	statsConfidence := 1.0
	for _, check := range []struct {
		stats *models.TeamStats
		team  string
	}{
		{homeStats, game.HomeTeam},
		{awayStats, game.AwayTeam},
	} {
		res := e.validator.ValidateTeamStats(check.stats, check.team, game.Sport)
		if !res.Valid {
			return nil, fmt.Errorf("invalid stats for %s: %s", check.team, strings.Join(res.Errors, "; "))
		}
		statsConfidence *= res.Confidence
	}

	gctx, err := e.aggregator.GameContext(ctx, game)
	if err != nil {
		// Context is optional; score without it
		e.logger.WithError(err).WithField("game_id", game.ID).Debug("Scoring without game context")
		gctx = nil
	}

	oddsRes := e.validator.ValidateOdds(game)

	profile := models.ProfileFor(e.profiles, game.Sport)
	ml := moneylineLeg(game, homeStats, awayStats, gctx, profile)
	spread := spreadLeg(game, homeStats, awayStats, profile)
	total := totalLeg(game, homeStats, awayStats, gctx, profile)

	consensus := e.consensus.Score(game, time.Now())

	now := time.Now()
	pred := &models.Prediction{
		ID:          uuid.New(),
		GameID:      game.ID,
		Sport:       game.Sport,
		HomeTeam:    game.HomeTeam,
		AwayTeam:    game.AwayTeam,
		Moneyline:   ml,
		Spread:      spread,
		Total:       total,
		ModelScores: consensus.Scores,
		Consensus:   consensus.Consensus,
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	pred.Analysis = e.buildAnalysis(game, gctx, consensus, pred.Legs())

	// Pre-validation degradation from stats and odds plausibility checks
	pred.ScaleConfidence(statsConfidence * oddsRes.Confidence)

	sources := e.contributingSources(homeStats, awayStats, gctx)
	res := e.validator.ValidatePrediction(pred, sources)
	if !res.Valid {
		metrics.RecordPredictionRejected(game.Sport)
		e.audit.LogPredictionRejected(game.ID, game.Sport, res.Errors)
		return nil, fmt.Errorf("prediction rejected: %s", strings.Join(res.Errors, "; "))
	}
	if res.Confidence < e.cfg.ValidationFloor {
		pred.ScaleConfidence(res.Confidence)
		pred.Analysis.RiskTier = models.TierHigh
	}

	if homeStats.Synthetic || awayStats.Synthetic {
		pred.CapConfidence(e.cfg.SyntheticConfidenceCap)
		for _, leg := range pred.Legs() {
			leg.Reasoning += " [reduced data quality: no authoritative statistics source]"
		}
	}

	pred.CapConfidence(e.cfg.MaxLegConfidence)
	for _, leg := range pred.Legs() {
		leg.ClampConfidence()
	}

	metrics.RecordPredictionGenerated(game.Sport)
	e.audit.LogPredictionGenerated(pred.ID.String(), game.ID, game.Sport, pred.Consensus, len(pred.Legs()), pred.GeneratedAt)
	return pred, nil
}

func (e *Engine) buildAnalysis(game *models.Game, gctx *models.GameContext, consensus service.ConsensusResult, legs []*models.PredictionLeg) models.Analysis {
	analysis := models.Analysis{
		MarketSentiment: consensus.MarketSentiment,
		ValueTier:       valueTier(legs),
		RiskTier:        consensus.RiskTier,
	}

	analysis.KeyFactors = append(analysis.KeyFactors,
		fmt.Sprintf("consensus confidence %.0f across %d models", consensus.Consensus, len(consensus.Scores)))
	if game.BookCount() > 0 {
		analysis.KeyFactors = append(analysis.KeyFactors,
			fmt.Sprintf("%d bookmakers pricing this game", game.BookCount()))
	}

	if gctx != nil {
		if gctx.Rivalry {
			analysis.KeyFactors = append(analysis.KeyFactors, "rivalry matchup")
		}
		if gctx.Importance != "" && gctx.Importance != models.ImportanceRegular {
			analysis.KeyFactors = append(analysis.KeyFactors, fmt.Sprintf("%s game", gctx.Importance))
		}

		var injured []string
		for _, inj := range append(gctx.KeyInjuries(game.HomeTeam), gctx.KeyInjuries(game.AwayTeam)...) {
			injured = append(injured, fmt.Sprintf("%s (%s, %s)", inj.Player, inj.Position, inj.Status))
		}
		if len(injured) > 0 {
			analysis.InjurySummary = strings.Join(injured, ", ")
		}

		if gctx.Weather != nil {
			analysis.WeatherSummary = fmt.Sprintf("%.0fF, wind %.0f mph", gctx.Weather.TempF, gctx.Weather.WindMPH)
			if gctx.Weather.Precipitation {
				analysis.WeatherSummary += ", precipitation"
			}
		}
	}

	return analysis
}

func (e *Engine) contributingSources(home, away *models.TeamStats, gctx *models.GameContext) []models.SourceRating {
	sources := []models.SourceRating{
		{Name: e.oddsSource.Name(), Reliability: 0.9},
	}
	statsReliability := 0.85
	if home.Synthetic || away.Synthetic {
		statsReliability = 0.5
	}
	sources = append(sources, models.SourceRating{Name: "team_stats", Reliability: statsReliability})
	if gctx != nil && (gctx.Weather != nil || len(gctx.Injuries) > 0) {
		sources = append(sources, models.SourceRating{Name: "game_context", Reliability: 0.8})
	}
	return sources
}

func snapshotKey(sport string) string {
	return "predictions:" + sport
}

func (e *Engine) saveSnapshot(ctx context.Context, sport string, predictions []models.Prediction) {
	if e.snapshots == nil || len(predictions) == 0 {
		return
	}
	data, err := json.Marshal(predictions)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to encode prediction snapshot")
		return
	}
	if err := e.snapshots.Save(ctx, snapshotKey(sport), data); err != nil {
		e.logger.WithError(err).WithField("sport", sport).Warn("Failed to persist prediction snapshot")
	}
}

func (e *Engine) loadSnapshot(ctx context.Context, sport string) ([]models.Prediction, error) {
	if e.snapshots == nil {
		return nil, store.ErrNotFound
	}
	data, err := e.snapshots.Load(ctx, snapshotKey(sport))
	if err != nil {
		return nil, err
	}
	var predictions []models.Prediction
	if err := json.Unmarshal(data, &predictions); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return predictions, nil
}
