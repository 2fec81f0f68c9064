package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/metrics"
	"github.com/novatitan/prediction-core/internal/models"
)

const oddsSourceName = "odds_api"

// OddsAPIClient implements OddsSource against a live-odds REST provider
type OddsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

// oddsAPIEvent represents one game in the provider's response
type oddsAPIEvent struct {
	ID           string            `json:"id"`
	SportKey     string            `json:"sport_key"`
	CommenceTime time.Time         `json:"commence_time"`
	HomeTeam     string            `json:"home_team"`
	AwayTeam     string            `json:"away_team"`
	Venue        string            `json:"venue"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key        string          `json:"key"`
	LastUpdate time.Time       `json:"last_update"`
	Markets    []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"` // h2h, spreads, totals
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name  string           `json:"name"`
	Price int              `json:"price"`
	Point *decimal.Decimal `json:"point,omitempty"`
}

// NewOddsAPIClient creates a new live-odds client
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, logger *logrus.Logger) *OddsAPIClient {
	return &OddsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the source name
func (c *OddsAPIClient) Name() string { return oddsSourceName }

// IsEnabled returns whether the source is enabled
func (c *OddsAPIClient) IsEnabled() bool { return c.enabled }

// FetchGames retrieves upcoming games with bookmaker price tables for a sport
func (c *OddsAPIClient) FetchGames(ctx context.Context, sport string) ([]models.Game, error) {
	if !c.enabled {
		return nil, NewDataSourceError(oddsSourceName, ErrCodeDisabled, "source disabled", ErrSourceDisabled)
	}

	start := time.Now()
	defer func() { metrics.RecordSourceFetch(oddsSourceName, time.Since(start).Seconds()) }()

	endpoint := fmt.Sprintf("%s/sports/%s/odds?markets=h2h,spreads,totals&apiKey=%s",
		c.baseURL, url.PathEscape(sport), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordSourceError(oddsSourceName)
		return nil, NewDataSourceError(oddsSourceName, ErrCodeNetworkError, "failed to fetch odds", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(oddsSourceName, resp); err != nil {
		metrics.RecordSourceError(oddsSourceName)
		return nil, err
	}

	var events []oddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		metrics.RecordSourceError(oddsSourceName)
		return nil, NewDataSourceError(oddsSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	games := make([]models.Game, 0, len(events))
	for _, ev := range events {
		games = append(games, c.toGame(ev, sport))
	}

	c.logger.WithFields(logrus.Fields{
		"sport": sport,
		"games": len(games),
	}).Debug("Fetched games from odds source")

	return games, nil
}

// toGame converts the provider's market/outcome layout to a per-book table
func (c *OddsAPIClient) toGame(ev oddsAPIEvent, sport string) models.Game {
	game := models.Game{
		ID:           ev.ID,
		Sport:        sport,
		HomeTeam:     ev.HomeTeam,
		AwayTeam:     ev.AwayTeam,
		CommenceTime: ev.CommenceTime,
		Venue:        ev.Venue,
	}

	for _, bm := range ev.Bookmakers {
		book := models.BookOdds{
			Bookmaker:  bm.Key,
			LastUpdate: bm.LastUpdate,
		}
		for _, market := range bm.Markets {
			for _, out := range market.Outcomes {
				switch market.Key {
				case "h2h":
					if out.Name == ev.HomeTeam {
						book.HomeMoneyline = out.Price
					} else if out.Name == ev.AwayTeam {
						book.AwayMoneyline = out.Price
					}
				case "spreads":
					if out.Name == ev.HomeTeam && out.Point != nil {
						book.Spread = *out.Point
						book.SpreadJuice = out.Price
					}
				case "totals":
					if out.Point != nil {
						book.Total = *out.Point
					}
					if out.Name == "Over" {
						book.OverJuice = out.Price
					} else if out.Name == "Under" {
						book.UnderJuice = out.Price
					}
				}
			}
		}
		game.Books = append(game.Books, book)
	}

	return game
}

// checkStatus maps HTTP status codes to the datasource error taxonomy
func checkStatus(source string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return NewDataSourceError(source, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(source, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewDataSourceError(source, ErrCodeNotFound, "not found", ErrNotFound)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewDataSourceError(source, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}
}
