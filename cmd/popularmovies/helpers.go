package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/PopularMovies/internal/config"
	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/httpclient"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// services holds the catalog client and the favorites store shared by
// every command.
type services struct {
	catalog *tmdb.Client
	store   favorites.Store
}

// Close releases the favorites store.
func (s *services) Close() error {
	return s.store.Close()
}

// initServices creates the TMDb client and opens the configured favorites
// backend.
func initServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services, error) {
	httpCfg := httpclient.DefaultConfig()
	if cfg.TMDb.RequestsPerSecond > 0 {
		httpCfg.RequestsPerSecond = cfg.TMDb.RequestsPerSecond
	}
	if cfg.TMDb.MaxAttempts > 0 {
		httpCfg.MaxAttempts = cfg.TMDb.MaxAttempts
	}

	client := tmdb.New(tmdb.Options{
		APIKey:   cfg.TMDb.APIKey,
		BaseURL:  cfg.TMDb.BaseURL,
		Language: cfg.TMDb.Language,
		Timeout:  cfg.TMDb.Timeout,
		CacheTTL: cfg.TMDb.CacheTTL,
		HTTP:     httpCfg,
	}, logger)
	if cfg.TMDb.BaseURL != "" {
		logger.Info("TMDb client initialized", slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)))
	}

	store, err := favorites.Open(ctx, favorites.Config{
		Driver:   cfg.Store.Driver,
		Path:     cfg.Store.Path,
		DSN:      cfg.Store.DSN,
		RedisURL: cfg.Store.RedisURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open favorites store: %w", err)
	}
	logger.Info("favorites store opened",
		slog.String("driver", cfg.Store.Driver),
		slog.String("location", storeLocation(cfg.Store)),
	)

	return &services{catalog: client, store: store}, nil
}

// setup loads the configuration, configures logging to logOut and starts
// the services. Callers must Close the returned services.
func setup(ctx context.Context, logOut io.Writer) (*services, *config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := config.SetupLogger(cfg.App.LogLevel, logOut)
	svc, err := initServices(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return svc, cfg, logger, nil
}

// storeLocation describes where favorites live without leaking credentials.
func storeLocation(sc config.StoreConfig) string {
	switch sc.Driver {
	case favorites.DriverPostgres:
		return sanitizeURL(sc.DSN)
	case favorites.DriverRedis:
		return sanitizeURL(sc.RedisURL)
	}
	return sc.Path
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
