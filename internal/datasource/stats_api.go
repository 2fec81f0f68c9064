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

const statsSourceName = "stats_api"

// StatsAPIClient implements StatsSource against a team statistics provider
type StatsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

// statsAPIResponse mirrors the provider's team record payload
type statsAPIResponse struct {
	Team          string  `json:"team"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	PointsFor     float64 `json:"points_for_avg"`
	PointsAgainst float64 `json:"points_against_avg"`
	HomeWins      int     `json:"home_wins"`
	HomeLosses    int     `json:"home_losses"`
	AwayWins      int     `json:"away_wins"`
	AwayLosses    int     `json:"away_losses"`
	LastFiveWins  int     `json:"last_five_wins"`
	ATSWins       int     `json:"ats_wins"`
	ATSLosses     int     `json:"ats_losses"`
	OverCount     int     `json:"over_count"`
	UnderCount    int     `json:"under_count"`
}

// NewStatsAPIClient creates a new team statistics client
func NewStatsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, logger *logrus.Logger) *StatsAPIClient {
	return &StatsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the source name
func (c *StatsAPIClient) Name() string { return statsSourceName }

// IsEnabled returns whether the source is enabled
func (c *StatsAPIClient) IsEnabled() bool { return c.enabled }

// FetchTeamStats retrieves season statistics for a team
func (c *StatsAPIClient) FetchTeamStats(ctx context.Context, team, sport string) (*models.TeamStats, error) {
	if !c.enabled {
		return nil, NewDataSourceError(statsSourceName, ErrCodeDisabled, "source disabled", ErrSourceDisabled)
	}

	start := time.Now()
	defer func() { metrics.RecordSourceFetch(statsSourceName, time.Since(start).Seconds()) }()

	endpoint := fmt.Sprintf("%s/sports/%s/teams/%s/stats?apiKey=%s",
		c.baseURL, url.PathEscape(sport), url.PathEscape(team), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordSourceError(statsSourceName)
		return nil, NewDataSourceError(statsSourceName, ErrCodeNetworkError, "failed to fetch team stats", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(statsSourceName, resp); err != nil {
		metrics.RecordSourceError(statsSourceName)
		return nil, err
	}

	var payload statsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordSourceError(statsSourceName)
		return nil, NewDataSourceError(statsSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	stats := &models.TeamStats{
		Team:          team,
		Sport:         sport,
		Wins:          payload.Wins,
		Losses:        payload.Losses,
		PointsFor:     payload.PointsFor,
		PointsAgainst: payload.PointsAgainst,
		HomeWins:      payload.HomeWins,
		HomeLosses:    payload.HomeLosses,
		AwayWins:      payload.AwayWins,
		AwayLosses:    payload.AwayLosses,
		LastFiveWins:  payload.LastFiveWins,
		ATSWins:       payload.ATSWins,
		ATSLosses:     payload.ATSLosses,
		OverCount:     payload.OverCount,
		UnderCount:    payload.UnderCount,
		FetchedAt:     time.Now(),
	}

	c.logger.WithFields(logrus.Fields{
		"team":  team,
		"sport": sport,
	}).Debug("Fetched team stats")

	return stats, nil
}
