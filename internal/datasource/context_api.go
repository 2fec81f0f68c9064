package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/metrics"
	"github.com/novatitan/prediction-core/internal/models"
)

const contextSourceName = "context_api"

// ContextAPIClient implements ContextSource against a weather/injury provider
type ContextAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

type contextAPIResponse struct {
	Weather *struct {
		TempF         float64 `json:"temp_f"`
		WindMPH       float64 `json:"wind_mph"`
		Precipitation bool    `json:"precipitation"`
		Conditions    string  `json:"conditions"`
	} `json:"weather"`
	Injuries []struct {
		Team     string `json:"team"`
		Player   string `json:"player"`
		Position string `json:"position"`
		Status   string `json:"status"`
	} `json:"injuries"`
	HomeH2HWins int    `json:"home_h2h_wins"`
	AwayH2HWins int    `json:"away_h2h_wins"`
	Rivalry     bool   `json:"rivalry"`
	Importance  string `json:"importance"`
}

// NewContextAPIClient creates a new game context client
func NewContextAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, logger *logrus.Logger) *ContextAPIClient {
	return &ContextAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the source name
func (c *ContextAPIClient) Name() string { return contextSourceName }

// IsEnabled returns whether the source is enabled
func (c *ContextAPIClient) IsEnabled() bool { return c.enabled }

// FetchGameContext retrieves weather, injuries and matchup history for a game
func (c *ContextAPIClient) FetchGameContext(ctx context.Context, game *models.Game) (*models.GameContext, error) {
	if !c.enabled {
		return nil, NewDataSourceError(contextSourceName, ErrCodeDisabled, "source disabled", ErrSourceDisabled)
	}

	start := time.Now()
	defer func() { metrics.RecordSourceFetch(contextSourceName, time.Since(start).Seconds()) }()

	endpoint := fmt.Sprintf("%s/games/%s/context?apiKey=%s",
		c.baseURL, url.PathEscape(game.ID), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordSourceError(contextSourceName)
		return nil, NewDataSourceError(contextSourceName, ErrCodeNetworkError, "failed to fetch game context", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(contextSourceName, resp); err != nil {
		metrics.RecordSourceError(contextSourceName)
		return nil, err
	}

	var payload contextAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordSourceError(contextSourceName)
		return nil, NewDataSourceError(contextSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	gc := &models.GameContext{
		GameID:      game.ID,
		HomeH2HWins: payload.HomeH2HWins,
		AwayH2HWins: payload.AwayH2HWins,
		Rivalry:     payload.Rivalry,
		Importance:  models.ImportanceTier(payload.Importance),
		FetchedAt:   time.Now(),
	}
	if gc.Importance == "" {
		gc.Importance = models.ImportanceRegular
	}
	if payload.Weather != nil {
		gc.Weather = &models.Weather{
			TempF:         payload.Weather.TempF,
			WindMPH:       payload.Weather.WindMPH,
			Precipitation: payload.Weather.Precipitation,
			Conditions:    payload.Weather.Conditions,
		}
	}
	for _, inj := range payload.Injuries {
		gc.Injuries = append(gc.Injuries, models.Injury{
			Team:     inj.Team,
			Player:   inj.Player,
			Position: inj.Position,
			Status:   inj.Status,
		})
	}

	c.logger.WithField("game_id", game.ID).Debug("Fetched game context")

	return gc, nil
}
