package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wesm/stack-digest/config"
	"github.com/wesm/stack-digest/internal/analytics"
	"github.com/wesm/stack-digest/internal/api"
	"github.com/wesm/stack-digest/internal/db"
	"github.com/wesm/stack-digest/internal/logger"
	"github.com/wesm/stack-digest/internal/metrics"
	"github.com/wesm/stack-digest/internal/sync"
)

// app holds the components shared by the commands
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *db.DB
	metrics *metrics.Metrics
}

// openApp loads the configuration and opens the database
func openApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Initialize(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Debug().Str("path", cfg.DatabasePath).Msg("Database ready")

	return &app{
		cfg:     cfg,
		log:     log,
		db:      database,
		metrics: metrics.New(),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// syncer wires the upstream client, fetcher and store into a Syncer
func (a *app) syncer() *sync.Syncer {
	apiLog := logger.Component(a.log, "api")
	client := api.NewClient(api.ClientConfig{
		BaseURL:           a.cfg.APIBaseURL,
		Site:              a.cfg.Site,
		Filter:            a.cfg.Filter,
		Tagged:            a.cfg.Tagged,
		Key:               a.cfg.APIKey,
		AccessToken:       a.cfg.AccessToken,
		AccessTokenExpiry: a.cfg.AccessTokenExpiry(),
		Timeout:           a.cfg.RequestTimeout,
	}, apiLog)

	fetcher := api.NewFetcher(client, api.FetcherOptions{
		PageSize:       api.DefaultPageSize,
		PageDelay:      a.cfg.PageDelay,
		MaxRetries:     a.cfg.MaxRetries,
		InitialBackoff: a.cfg.InitialBackoff,
	}, a.metrics, apiLog)

	return sync.New(fetcher, a.db, a.metrics, logger.Component(a.log, "sync"))
}

func (a *app) analyticsService() *analytics.Service {
	return analytics.NewService(a.db, logger.Component(a.log, "analytics"))
}
