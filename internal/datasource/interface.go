package datasource

import (
	"context"
	"errors"

	"github.com/novatitan/prediction-core/internal/models"
)

// OddsSource defines the interface for fetching games with bookmaker price
// tables from an external odds provider
type OddsSource interface {
	// FetchGames retrieves upcoming games for a sport, each with its
	// per-book moneyline/spread/total prices
	FetchGames(ctx context.Context, sport string) ([]models.Game, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// StatsSource defines the interface for fetching per-team season statistics
type StatsSource interface {
	// FetchTeamStats retrieves statistics for a team in a sport
	FetchTeamStats(ctx context.Context, team, sport string) (*models.TeamStats, error)

	Name() string
	IsEnabled() bool
}

// ContextSource defines the interface for fetching situational game data
// (weather, injuries, head-to-head)
type ContextSource interface {
	// FetchGameContext retrieves situational data for a game
	FetchGameContext(ctx context.Context, game *models.Game) (*models.GameContext, error)

	Name() string
	IsEnabled() bool
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeDisabled             = "source_disabled"
)

// Sentinel errors
var (
	ErrSourceDisabled = errors.New("data source disabled")
	ErrNotFound       = errors.New("data not found")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
