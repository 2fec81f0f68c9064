package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatitan/prediction-core/internal/cache"
	"github.com/novatitan/prediction-core/internal/models"
	"github.com/novatitan/prediction-core/internal/service"
	"github.com/novatitan/prediction-core/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeOdds serves a fixed slate of games, or an error
type fakeOdds struct {
	games []models.Game
	err   error
	calls int
}

func (f *fakeOdds) FetchGames(ctx context.Context, sport string) ([]models.Game, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.games, nil
}
func (f *fakeOdds) Name() string    { return "fake_odds" }
func (f *fakeOdds) IsEnabled() bool { return true }

// fakeStats serves per-team records; missing teams fall back to synthesis
type fakeStats struct {
	byTeam map[string]*models.TeamStats
}

func (f *fakeStats) FetchTeamStats(ctx context.Context, team, sport string) (*models.TeamStats, error) {
	if s, ok := f.byTeam[team]; ok {
		return s, nil
	}
	return nil, errors.New("team not found")
}
func (f *fakeStats) Name() string    { return "fake_stats" }
func (f *fakeStats) IsEnabled() bool { return true }

type fakeContext struct {
	byGame map[string]*models.GameContext
}

func (f *fakeContext) FetchGameContext(ctx context.Context, game *models.Game) (*models.GameContext, error) {
	if c, ok := f.byGame[game.ID]; ok {
		return c, nil
	}
	return nil, errors.New("no context")
}
func (f *fakeContext) Name() string    { return "fake_context" }
func (f *fakeContext) IsEnabled() bool { return len(f.byGame) > 0 }

func nflStats(team string, wins, losses int, pf, pa float64) *models.TeamStats {
	return &models.TeamStats{
		Team: team, Sport: "nfl",
		Wins: wins, Losses: losses,
		PointsFor: pf, PointsAgainst: pa,
		LastFiveWins: 3,
		FetchedAt:    time.Now(),
	}
}

func nflGame(id, home, away string) models.Game {
	return models.Game{
		ID: id, Sport: "nfl",
		HomeTeam: home, AwayTeam: away,
		CommenceTime: time.Now().Add(24 * time.Hour),
		Books: []models.BookOdds{{
			Bookmaker:     "bookA",
			HomeMoneyline: -150,
			AwayMoneyline: 130,
			Spread:        decimal.NewFromFloat(-3),
			SpreadJuice:   -110,
			Total:         decimal.NewFromFloat(47.5),
			OverJuice:     -110,
			UnderJuice:    -110,
			LastUpdate:    time.Now(),
		}},
	}
}

func newTestEngine(odds *fakeOdds, stats *fakeStats, gctx *fakeContext, snapshots store.Store) *Engine {
	log := testLogger()
	cacheManager := cache.NewManager(0, log)
	aggregator := service.NewStatsAggregator(stats, gctx, cacheManager, service.DefaultAggregatorConfig(), log)
	validator := service.NewPredictionValidator(service.DefaultValidatorConfig(), log)
	consensus := service.NewConsensusScorer(log)
	return New(DefaultConfig(), odds, aggregator, validator, consensus, cacheManager, snapshots, log)
}

func TestScoreGameStrongFavorite(t *testing.T) {
	// Home side 10-2 with a +8 average margin against a 4-8 side at -5;
	// the market line of home -3 undervalues the margin gap.
	stats := &fakeStats{byTeam: map[string]*models.TeamStats{
		"Team A": nflStats("Team A", 10, 2, 27, 19),
		"Team B": nflStats("Team B", 4, 8, 18, 23),
	}}
	game := nflGame("g1", "Team A", "Team B")
	eng := newTestEngine(&fakeOdds{games: []models.Game{game}}, stats, &fakeContext{}, store.NewMemoryStore())

	pred, err := eng.ScoreGame(context.Background(), &game)
	require.NoError(t, err)

	require.NotNil(t, pred.Moneyline)
	assert.Equal(t, "Team A", pred.Moneyline.Pick)
	assert.Greater(t, pred.Moneyline.Confidence, 60.0)
	assert.Contains(t, pred.Moneyline.Reasoning, "10-2")

	require.NotNil(t, pred.Spread)
	assert.Equal(t, "Team A", pred.Spread.Pick, "projected margin beats the laid line")

	require.NotNil(t, pred.Total)
	assert.Contains(t, []string{"over", "under"}, pred.Total.Pick)

	assert.Len(t, pred.ModelScores, 4)
	assert.NotZero(t, pred.Consensus)
	assert.NotEqual(t, uuid.Nil, pred.ID)

	for _, leg := range pred.Legs() {
		assert.LessOrEqual(t, leg.Confidence, 95.0)
		assert.GreaterOrEqual(t, leg.Confidence, 0.0)
		assert.NotContains(t, leg.Reasoning, "reduced data quality")
	}
}

func TestScoreGameAdverseWeatherLowersTotal(t *testing.T) {
	stats := &fakeStats{byTeam: map[string]*models.TeamStats{
		"Team A": nflStats("Team A", 8, 4, 25, 20),
		"Team B": nflStats("Team B", 7, 5, 24, 21),
	}}

	calm := nflGame("calm", "Team A", "Team B")
	stormy := nflGame("stormy", "Team A", "Team B")

	gctx := &fakeContext{byGame: map[string]*models.GameContext{
		"calm": {GameID: "calm", Importance: models.ImportanceRegular},
		"stormy": {
			GameID: "stormy",
			Weather: &models.Weather{
				TempF: 40, WindMPH: 25, Precipitation: true,
			},
			Importance: models.ImportanceRegular,
		},
	}}

	eng := newTestEngine(&fakeOdds{}, stats, gctx, store.NewMemoryStore())

	calmPred, err := eng.ScoreGame(context.Background(), &calm)
	require.NoError(t, err)
	stormyPred, err := eng.ScoreGame(context.Background(), &stormy)
	require.NoError(t, err)

	require.NotNil(t, calmPred.Total)
	require.NotNil(t, stormyPred.Total)

	// Same slate, same line; the weather discount shifts the projection
	// toward the under and the reasoning names the conditions.
	assert.Contains(t, stormyPred.Total.Reasoning, "wind")
	assert.Contains(t, stormyPred.Total.Reasoning, "precipitation")
	assert.Equal(t, "under", stormyPred.Total.Pick)
	assert.NotContains(t, calmPred.Total.Reasoning, "wind")
	assert.NotEmpty(t, stormyPred.Analysis.WeatherSummary)
}

func TestScoreGameSyntheticStatsCappedAndDisclosed(t *testing.T) {
	// No stats for either team: the aggregator synthesizes, and the engine
	// caps confidence and appends the data-quality disclaimer.
	eng := newTestEngine(&fakeOdds{}, &fakeStats{byTeam: map[string]*models.TeamStats{}}, &fakeContext{}, store.NewMemoryStore())
	game := nflGame("g1", "Team A", "Team B")

	pred, err := eng.ScoreGame(context.Background(), &game)
	require.NoError(t, err)

	for _, leg := range pred.Legs() {
		assert.LessOrEqual(t, leg.Confidence, 75.0, "%s confidence must respect the synthetic cap", leg.Type)
		assert.Contains(t, leg.Reasoning, "reduced data quality")
	}
}

func TestScoreGameRejectsInvalidStats(t *testing.T) {
	stats := &fakeStats{byTeam: map[string]*models.TeamStats{
		"Team A": {Team: "Team A", Sport: "nfl", Wins: -3, Losses: 2},
		"Team B": nflStats("Team B", 4, 8, 18, 23),
	}}
	eng := newTestEngine(&fakeOdds{}, stats, &fakeContext{}, store.NewMemoryStore())
	game := nflGame("g1", "Team A", "Team B")

	_, err := eng.ScoreGame(context.Background(), &game)
	assert.Error(t, err)
}

func TestBatchIsolatesFailures(t *testing.T) {
	// Ten games; three have a home side with an impossible record and are
	// skipped, the rest still come back.
	byTeam := map[string]*models.TeamStats{}
	var games []models.Game
	for i := 0; i < 10; i++ {
		home := fmt.Sprintf("Home %d", i)
		away := fmt.Sprintf("Away %d", i)
		if i < 3 {
			byTeam[home] = &models.TeamStats{Team: home, Sport: "nfl", Wins: -1, Losses: 0}
		} else {
			byTeam[home] = nflStats(home, 9, 3, 26, 20)
		}
		byTeam[away] = nflStats(away, 6, 6, 22, 22)
		games = append(games, nflGame(fmt.Sprintf("g%d", i), home, away))
	}

	eng := newTestEngine(&fakeOdds{games: games}, &fakeStats{byTeam: byTeam}, &fakeContext{}, store.NewMemoryStore())

	predictions, err := eng.PredictionsForSport(context.Background(), "nfl")
	require.NoError(t, err)
	assert.Len(t, predictions, 7)

	seen := map[string]bool{}
	for _, p := range predictions {
		seen[p.GameID] = true
	}
	for i := 3; i < 10; i++ {
		assert.True(t, seen[fmt.Sprintf("g%d", i)], "game g%d should survive the batch", i)
	}
}

func TestPredictionsForSportSavesSnapshot(t *testing.T) {
	stats := &fakeStats{byTeam: map[string]*models.TeamStats{
		"Team A": nflStats("Team A", 10, 2, 27, 19),
		"Team B": nflStats("Team B", 4, 8, 18, 23),
	}}
	snapshots := store.NewMemoryStore()
	eng := newTestEngine(&fakeOdds{games: []models.Game{nflGame("g1", "Team A", "Team B")}}, stats, &fakeContext{}, snapshots)

	predictions, err := eng.PredictionsForSport(context.Background(), "nfl")
	require.NoError(t, err)
	require.Len(t, predictions, 1)

	data, err := snapshots.Load(context.Background(), "predictions:nfl")
	require.NoError(t, err)

	var persisted []models.Prediction
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, predictions[0].GameID, persisted[0].GameID)
}

func TestPredictionsForSportServesSnapshotWhenOddsDown(t *testing.T) {
	snapshots := store.NewMemoryStore()
	persisted := []models.Prediction{{
		ID: uuid.New(), GameID: "g1", Sport: "nfl",
		HomeTeam: "Team A", AwayTeam: "Team B",
		Moneyline: &models.PredictionLeg{
			Type: models.LegMoneyline, Pick: "Team A", Confidence: 70,
			Reasoning: "persisted from the previous successful run",
		},
		GeneratedAt: time.Now(),
	}}
	data, err := json.Marshal(persisted)
	require.NoError(t, err)
	require.NoError(t, snapshots.Save(context.Background(), "predictions:nfl", data))

	eng := newTestEngine(&fakeOdds{err: errors.New("odds api down")}, &fakeStats{}, &fakeContext{}, snapshots)

	predictions, err := eng.PredictionsForSport(context.Background(), "nfl")
	require.NoError(t, err, "persisted snapshot must answer when the odds source is down")
	require.Len(t, predictions, 1)
	assert.Equal(t, "g1", predictions[0].GameID)
}

func TestPredictionsForSportErrorsWithoutSnapshot(t *testing.T) {
	eng := newTestEngine(&fakeOdds{err: errors.New("odds api down")}, &fakeStats{}, &fakeContext{}, store.NewMemoryStore())

	_, err := eng.PredictionsForSport(context.Background(), "nfl")
	assert.Error(t, err)
}

func TestInvalidateOddsForcesRefetch(t *testing.T) {
	odds := &fakeOdds{games: []models.Game{}}
	eng := newTestEngine(odds, &fakeStats{}, &fakeContext{}, store.NewMemoryStore())

	_, err := eng.fetchGames(context.Background(), "nfl")
	require.NoError(t, err)
	before := odds.calls

	eng.InvalidateOdds("nfl")
	_, err = eng.fetchGames(context.Background(), "nfl")
	require.NoError(t, err)
	assert.Greater(t, odds.calls, before)
}

func TestInfoReportsModelWeights(t *testing.T) {
	eng := newTestEngine(&fakeOdds{}, &fakeStats{}, &fakeContext{}, store.NewMemoryStore())
	info := eng.Info()

	assert.Equal(t, engineVersion, info.Version)
	require.Len(t, info.ModelWeights, 4)
	sum := 0.0
	for _, w := range info.ModelWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.True(t, info.LastGenerated.IsZero())
}

func TestClearCacheResetsStats(t *testing.T) {
	eng := newTestEngine(&fakeOdds{games: []models.Game{}}, &fakeStats{}, &fakeContext{}, store.NewMemoryStore())

	_, err := eng.fetchGames(context.Background(), "nfl")
	require.NoError(t, err)
	require.NotZero(t, eng.CacheStats().Size)

	eng.ClearCache()
	assert.Zero(t, eng.CacheStats().Size)
}

func TestBatchReasoningNeverEmpty(t *testing.T) {
	stats := &fakeStats{byTeam: map[string]*models.TeamStats{
		"Team A": nflStats("Team A", 10, 2, 27, 19),
		"Team B": nflStats("Team B", 4, 8, 18, 23),
	}}
	eng := newTestEngine(&fakeOdds{games: []models.Game{nflGame("g1", "Team A", "Team B")}}, stats, &fakeContext{}, store.NewMemoryStore())

	predictions, err := eng.PredictionsForSport(context.Background(), "nfl")
	require.NoError(t, err)
	require.Len(t, predictions, 1)

	for _, leg := range predictions[0].Legs() {
		assert.False(t, strings.TrimSpace(leg.Reasoning) == "", "%s reasoning must be populated", leg.Type)
	}
}
