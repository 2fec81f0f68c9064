package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatitan/prediction-core/internal/cache"
	"github.com/novatitan/prediction-core/internal/models"
)

// fakeStatsSource returns canned stats or a canned error
type fakeStatsSource struct {
	stats   *models.TeamStats
	err     error
	enabled bool
	calls   int
}

func (f *fakeStatsSource) FetchTeamStats(ctx context.Context, team, sport string) (*models.TeamStats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}
func (f *fakeStatsSource) Name() string    { return "fake_stats" }
func (f *fakeStatsSource) IsEnabled() bool { return f.enabled }

type fakeContextSource struct {
	gctx    *models.GameContext
	err     error
	enabled bool
}

func (f *fakeContextSource) FetchGameContext(ctx context.Context, game *models.Game) (*models.GameContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gctx, nil
}
func (f *fakeContextSource) Name() string    { return "fake_context" }
func (f *fakeContextSource) IsEnabled() bool { return f.enabled }

func newTestAggregator(stats *fakeStatsSource, gctx *fakeContextSource) *StatsAggregator {
	return NewStatsAggregator(stats, gctx, cache.NewManager(0, testLogger()), DefaultAggregatorConfig(), testLogger())
}

func TestTeamStatsFromSource(t *testing.T) {
	source := &fakeStatsSource{
		enabled: true,
		stats: &models.TeamStats{
			Team: "Chiefs", Sport: "nfl",
			Wins: 10, Losses: 2,
			PointsFor: 27.5, PointsAgainst: 19.0,
		},
	}
	a := newTestAggregator(source, &fakeContextSource{})

	stats, err := a.TeamStats(context.Background(), "Chiefs", "nfl")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Wins)
	assert.False(t, stats.Synthetic, "authoritative stats must not be flagged synthetic")
}

func TestTeamStatsCached(t *testing.T) {
	source := &fakeStatsSource{
		enabled: true,
		stats:   &models.TeamStats{Team: "Chiefs", Sport: "nfl", Wins: 10, Losses: 2},
	}
	a := newTestAggregator(source, &fakeContextSource{})

	for i := 0; i < 3; i++ {
		_, err := a.TeamStats(context.Background(), "Chiefs", "nfl")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, source.calls, "repeated reads within TTL must hit the cache")
}

func TestTeamStatsSynthesizesWhenSourceFails(t *testing.T) {
	source := &fakeStatsSource{enabled: true, err: errors.New("upstream down")}
	a := newTestAggregator(source, &fakeContextSource{})

	stats, err := a.TeamStats(context.Background(), "Chiefs", "nfl")
	require.NoError(t, err, "source failure must degrade to synthesis, not error")
	assert.True(t, stats.Synthetic)
}

func TestTeamStatsSynthesizesWhenSourceDisabled(t *testing.T) {
	a := newTestAggregator(&fakeStatsSource{enabled: false}, &fakeContextSource{})

	stats, err := a.TeamStats(context.Background(), "Chiefs", "nfl")
	require.NoError(t, err)
	assert.True(t, stats.Synthetic)
}

func TestSynthesizeDeterministicPerDay(t *testing.T) {
	a := newTestAggregator(&fakeStatsSource{}, &fakeContextSource{})

	morning := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC)

	first := a.Synthesize("Chiefs", "nfl", morning)
	second := a.Synthesize("Chiefs", "nfl", evening)

	assert.Equal(t, first.Wins, second.Wins)
	assert.Equal(t, first.Losses, second.Losses)
	assert.Equal(t, first.PointsFor, second.PointsFor)
	assert.Equal(t, first.PointsAgainst, second.PointsAgainst)
	assert.Equal(t, first.LastFiveWins, second.LastFiveWins)
	assert.Equal(t, first.ATSWins, second.ATSWins)
}

func TestSynthesizeVariesByTeamAndSport(t *testing.T) {
	a := newTestAggregator(&fakeStatsSource{}, &fakeContextSource{})
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	chiefs := a.Synthesize("Chiefs", "nfl", now)
	bills := a.Synthesize("Bills", "nfl", now)
	assert.NotEqual(t,
		[2]float64{chiefs.PointsFor, chiefs.PointsAgainst},
		[2]float64{bills.PointsFor, bills.PointsAgainst})
}

func TestSynthesizePlausibility(t *testing.T) {
	a := newTestAggregator(&fakeStatsSource{}, &fakeContextSource{})
	now := time.Now()

	for _, sport := range []string{"nfl", "nba", "mlb", "nhl"} {
		for _, team := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
			stats := a.Synthesize(team, sport, now)
			profile := models.ProfileFor(models.DefaultSportProfiles(), sport)

			assert.GreaterOrEqual(t, stats.Wins, 0)
			assert.GreaterOrEqual(t, stats.Losses, 0)
			assert.LessOrEqual(t, stats.GamesPlayed(), profile.MaxGames)

			rate := stats.WinRate()
			assert.GreaterOrEqual(t, rate, 0.2, "%s/%s win rate", sport, team)
			assert.LessOrEqual(t, rate, 0.8, "%s/%s win rate", sport, team)

			assert.GreaterOrEqual(t, stats.PointsFor, profile.MinAvgScore, "%s/%s points for", sport, team)
			assert.LessOrEqual(t, stats.PointsFor, profile.MaxAvgScore, "%s/%s points for", sport, team)

			splits := stats.HomeWins + stats.HomeLosses + stats.AwayWins + stats.AwayLosses
			assert.Equal(t, stats.GamesPlayed(), splits, "%s/%s splits reconcile", sport, team)

			assert.True(t, stats.Synthetic)
		}
	}
}

func TestGameContextFromSource(t *testing.T) {
	gctx := &models.GameContext{
		GameID: "g1",
		Weather: &models.Weather{
			TempF: 28, WindMPH: 20, Precipitation: true,
		},
		Importance: models.ImportancePlayoff,
	}
	a := newTestAggregator(&fakeStatsSource{}, &fakeContextSource{enabled: true, gctx: gctx})

	got, err := a.GameContext(context.Background(), &models.Game{ID: "g1", Sport: "nfl"})
	require.NoError(t, err)
	assert.Equal(t, models.ImportancePlayoff, got.Importance)
	assert.True(t, got.AdverseWeather())
}

func TestGameContextDegradesOnFailure(t *testing.T) {
	a := newTestAggregator(&fakeStatsSource{}, &fakeContextSource{enabled: true, err: errors.New("down")})

	got, err := a.GameContext(context.Background(), &models.Game{ID: "g1", Sport: "nfl"})
	require.NoError(t, err, "context failures degrade to an empty context")
	assert.Nil(t, got.Weather)
	assert.Empty(t, got.Injuries)
	assert.Equal(t, models.ImportanceRegular, got.Importance)
}
