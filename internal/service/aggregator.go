// Package service provides stats aggregation, validation and consensus
// scoring for the prediction engine.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/cache"
	"github.com/novatitan/prediction-core/internal/datasource"
	"github.com/novatitan/prediction-core/internal/hashutil"
	"github.com/novatitan/prediction-core/internal/models"
)

// AggregatorConfig controls caching behavior of the stats aggregator
type AggregatorConfig struct {
	StatsTTL   time.Duration `mapstructure:"stats_ttl"`
	ContextTTL time.Duration `mapstructure:"context_ttl"`
}

// DefaultAggregatorConfig returns recommended defaults
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		StatsTTL:   15 * time.Minute,
		ContextTTL: 10 * time.Minute,
	}
}

// StatsAggregator fetches or synthesizes per-team statistics and game
// context through the cache manager. When no authoritative source is
// available it synthesizes deterministic statistics seeded by team, sport
// and day so repeated calls produce identical output.
type StatsAggregator struct {
	statsSource   datasource.StatsSource
	contextSource datasource.ContextSource
	cache         *cache.Manager
	cfg           AggregatorConfig
	profiles      map[string]models.SportProfile
	logger        *logrus.Logger
}

// NewStatsAggregator creates a new aggregator
func NewStatsAggregator(
	statsSource datasource.StatsSource,
	contextSource datasource.ContextSource,
	cacheManager *cache.Manager,
	cfg AggregatorConfig,
	logger *logrus.Logger,
) *StatsAggregator {
	return &StatsAggregator{
		statsSource:   statsSource,
		contextSource: contextSource,
		cache:         cacheManager,
		cfg:           cfg,
		profiles:      models.DefaultSportProfiles(),
		logger:        logger,
	}
}

// TeamStats returns statistics for a team, cached with TTL. The returned
// record's Synthetic flag tells the caller whether an authoritative source
// backed it; synthesized records are stable for a given team/sport/day.
func (a *StatsAggregator) TeamStats(ctx context.Context, team, sport string) (*models.TeamStats, error) {
	key := fmt.Sprintf("stats:%s:%s", sport, team)
	return cache.GetTyped(ctx, a.cache, key, func(ctx context.Context) (*models.TeamStats, error) {
		return a.fetchOrSynthesize(ctx, team, sport)
	}, cache.Options{
		TTL:      a.cfg.StatsTTL,
		Priority: cache.PriorityHigh,
		Strategy: cache.StrategyLazy,
	})
}

// GameContext returns situational data for a game, cached with TTL.
// A nil-weather, empty-injury context is returned when the source is
// unavailable so downstream logic degrades instead of failing.
func (a *StatsAggregator) GameContext(ctx context.Context, game *models.Game) (*models.GameContext, error) {
	key := fmt.Sprintf("context:%s", game.ID)
	return cache.GetTyped(ctx, a.cache, key, func(ctx context.Context) (*models.GameContext, error) {
		if a.contextSource == nil || !a.contextSource.IsEnabled() {
			return a.emptyContext(game), nil
		}
		gc, err := a.contextSource.FetchGameContext(ctx, game)
		if err != nil {
			a.logger.WithError(err).WithField("game_id", game.ID).Warn("Context fetch failed, using empty context")
			return a.emptyContext(game), nil
		}
		return gc, nil
	}, cache.Options{
		TTL:      a.cfg.ContextTTL,
		Priority: cache.PriorityMedium,
		Strategy: cache.StrategyLazy,
	})
}

func (a *StatsAggregator) emptyContext(game *models.Game) *models.GameContext {
	return &models.GameContext{
		GameID:     game.ID,
		Importance: models.ImportanceRegular,
		FetchedAt:  time.Now(),
	}
}

func (a *StatsAggregator) fetchOrSynthesize(ctx context.Context, team, sport string) (*models.TeamStats, error) {
	if a.statsSource != nil && a.statsSource.IsEnabled() {
		stats, err := a.statsSource.FetchTeamStats(ctx, team, sport)
		if err == nil {
			return stats, nil
		}
		a.logger.WithError(err).WithFields(logrus.Fields{
			"team":  team,
			"sport": sport,
		}).Warn("Stats fetch failed, synthesizing")
	}
	return a.Synthesize(team, sport, time.Now()), nil
}

// Synthesize builds plausible, deterministic statistics for a team seeded
// by team name, sport and UTC day. Identical inputs always yield identical
// records.
func (a *StatsAggregator) Synthesize(team, sport string, now time.Time) *models.TeamStats {
	profile := models.ProfileFor(a.profiles, sport)
	day := hashutil.DayBucket(now)
	seed := func(part string) string { return hashutil.Seed(team, sport, day, part) }

	// Season progress: somewhere past the midpoint of the schedule
	played := profile.MaxGames/2 + hashutil.Bounded(seed("played"), 0, profile.MaxGames/4)
	if played < 4 {
		played = 4
	}
	winRate := hashutil.BoundedFloat(seed("winrate"), 0.25, 0.75)
	wins := int(float64(played) * winRate)
	losses := played - wins

	mid := (profile.MinAvgScore + profile.MaxAvgScore) / 2
	span := (profile.MaxAvgScore - profile.MinAvgScore) / 4
	pointsFor := mid + (winRate-0.5)*span + hashutil.BoundedFloat(seed("pf"), -span/2, span/2)
	pointsAgainst := mid - (winRate-0.5)*span + hashutil.BoundedFloat(seed("pa"), -span/2, span/2)

	homeGames := played / 2
	homeWins := int(float64(homeGames) * clamp01(winRate+0.06))
	awayGames := played - homeGames
	awayWins := wins - homeWins
	if awayWins < 0 {
		awayWins = 0
	}
	if awayWins > awayGames {
		awayWins = awayGames
	}

	lastFive := hashutil.Bounded(seed("form"), 0, 5)
	atsWins := hashutil.Bounded(seed("ats"), played/3, 2*played/3)
	overs := hashutil.Bounded(seed("ou"), played/3, 2*played/3)

	return &models.TeamStats{
		Team:          team,
		Sport:         sport,
		Wins:          wins,
		Losses:        losses,
		PointsFor:     pointsFor,
		PointsAgainst: pointsAgainst,
		HomeWins:      homeWins,
		HomeLosses:    homeGames - homeWins,
		AwayWins:      awayWins,
		AwayLosses:    awayGames - awayWins,
		LastFiveWins:  lastFive,
		ATSWins:       atsWins,
		ATSLosses:     played - atsWins,
		OverCount:     overs,
		UnderCount:    played - overs,
		Synthetic:     true,
		FetchedAt:     now,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
