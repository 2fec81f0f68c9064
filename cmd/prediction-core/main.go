// Package main provides the entry point for the prediction core service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/novatitan/prediction-core/internal/cache"
	"github.com/novatitan/prediction-core/internal/config"
	"github.com/novatitan/prediction-core/internal/datasource"
	"github.com/novatitan/prediction-core/internal/engine"
	"github.com/novatitan/prediction-core/internal/health"
	"github.com/novatitan/prediction-core/internal/logger"
	"github.com/novatitan/prediction-core/internal/metrics"
	"github.com/novatitan/prediction-core/internal/scheduler"
	"github.com/novatitan/prediction-core/internal/service"
	"github.com/novatitan/prediction-core/internal/store"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "prediction-core",
		Short: "Sports betting prediction engine",
		Long:  "Generates validated betting predictions from market odds, team statistics and situational context.",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newGenerateCmd(&configPath),
		newValidateConfigCmd(&configPath),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired collaborators shared by the subcommands
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	engine *engine.Engine
	stream *datasource.StreamClient
	store  store.Store
	cache  *cache.Manager
}

func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return nil, err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     version,
	}).Info("Prediction core starting")

	metrics.InitRegistry()

	snapshots, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	cacheManager := cache.NewManager(cfg.Cache.MaxEntries, log)

	httpCfg := datasource.DefaultHTTPClientConfig()
	if cfg.Sources.HTTP.TimeoutSeconds > 0 {
		httpCfg.Timeout = cfg.Sources.HTTP.HTTPTimeout()
	}
	if cfg.Sources.HTTP.MaxRetries > 0 {
		httpCfg.MaxRetries = cfg.Sources.HTTP.MaxRetries
	}
	if cfg.Sources.HTTP.RateLimit > 0 {
		httpCfg.RateLimit = cfg.Sources.HTTP.RateLimit
	}
	if cfg.Sources.HTTP.CircuitBreakerMax > 0 {
		httpCfg.CircuitBreakerMax = cfg.Sources.HTTP.CircuitBreakerMax
	}
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, log)

	oddsSource := datasource.NewOddsAPIClient(httpClient, cfg.Sources.Odds.BaseURL, cfg.Sources.Odds.APIKey, cfg.Sources.Odds.Enabled, log)
	statsSource := datasource.NewStatsAPIClient(httpClient, cfg.Sources.Stats.BaseURL, cfg.Sources.Stats.APIKey, cfg.Sources.Stats.Enabled, log)
	contextSource := datasource.NewContextAPIClient(httpClient, cfg.Sources.Context.BaseURL, cfg.Sources.Context.APIKey, cfg.Sources.Context.Enabled, log)

	aggregator := service.NewStatsAggregator(statsSource, contextSource, cacheManager, cfg.Aggregator, log)
	validator := service.NewPredictionValidator(cfg.Validator, log)
	consensus := service.NewConsensusScorer(log)

	eng := engine.New(cfg.Engine, oddsSource, aggregator, validator, consensus, cacheManager, snapshots, log)

	var stream *datasource.StreamClient
	if cfg.Sources.Stream.Enabled {
		stream = datasource.NewStreamClient(cfg.Sources.Stream.URL, cfg.Sources.Stream.APIKey, cfg.Engine.Sports, log)
		stream.OnUpdate(func(update datasource.OddsUpdate) {
			eng.InvalidateOdds(update.Sport)
		})
	}

	return &app{
		cfg:    cfg,
		log:    log,
		engine: eng,
		stream: stream,
		store:  snapshots,
		cache:  cacheManager,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		p := cfg.Store.Postgres
		s, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			Host:           p.Host,
			Port:           p.Port,
			Name:           p.Name,
			User:           p.User,
			Password:       p.Password,
			SSLMode:        p.SSLMode,
			MaxConnections: p.MaxConnections,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect snapshot store: %w", err)
		}
		log.Info("Postgres snapshot store connected")
		return s, nil
	case "redis":
		r := cfg.Store.Redis
		s, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			TTL:      time.Duration(r.TTLMinutes) * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect snapshot store: %w", err)
		}
		log.Info("Redis snapshot store connected")
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.store.Close()

			server := health.NewServer(health.Config{
				ServiceName: a.cfg.App.Name,
				Version:     version,
				Port:        a.cfg.Server.Port,
				MetricsPath: a.cfg.Server.MetricsPath,
				Logger:      a.log,
				Store:       a.store,
				Engine:      a.engine,
			})
			if err := server.Start(ctx); err != nil {
				return err
			}

			var sched *scheduler.Scheduler
			if a.cfg.Scheduler.Enabled {
				sched = scheduler.NewScheduler(a.engine, a.log)
				if err := sched.ScheduleGeneration(a.cfg.Scheduler.GenerateSchedule); err != nil {
					return err
				}
				if err := sched.ScheduleCacheSweep(a.cfg.Scheduler.SweepSchedule, a.cache.Sweep, time.Hour); err != nil {
					return err
				}
				if err := sched.Start(); err != nil {
					return err
				}
				defer sched.Stop()
			}

			if a.stream != nil {
				go func() {
					if err := a.stream.Run(ctx); err != nil && ctx.Err() == nil {
						a.log.WithError(err).Error("Odds stream terminated")
					}
				}()
			}

			server.SetReady(true)
			a.log.WithField("port", a.cfg.Server.Port).Info("Prediction core ready")

			<-ctx.Done()
			a.log.Info("Shutting down")
			return nil
		},
	}
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var sport string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate predictions once and print them as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			a, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.store.Close()

			var predictions interface{}
			if sport != "" {
				predictions, err = a.engine.PredictionsForSport(ctx, sport)
			} else {
				predictions, err = a.engine.PredictionsForAllSports(ctx)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(predictions)
		},
	}
	cmd.Flags().StringVarP(&sport, "sport", "s", "", "generate for a single sport")
	return cmd
}

func newValidateConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Validate the configuration file and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithDefaults(*configPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
