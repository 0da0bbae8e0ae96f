package cmd

import (
	"os"

	"github.com/conneroisu/sitepanel/internal/backend"
	"github.com/conneroisu/sitepanel/internal/config"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/conneroisu/sitepanel/internal/sites"
	"github.com/conneroisu/sitepanel/internal/version"
	"github.com/spf13/cobra"
)

// app holds what every command that talks to the back-end needs.
type app struct {
	config *config.Config
	logger logging.Logger
	api    backend.API
	sites  *sites.Service
}

// newAPI creates the back-end client. Tests replace it with a fake.
var newAPI = func(cfg *config.Config, logger logging.Logger) (backend.API, error) {
	return backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithUserAgent(version.UserAgent(cfg.Backend.UserAgent)),
		backend.WithLogger(logger))
}

// newApp loads the configuration and wires the logger, back-end client and
// sites service.
func newApp(cmd *cobra.Command, opts ...sites.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range config.Warnings(cfg) {
		logger.Warn(cmd.Context(), nil, "Configuration warning", "warning", w)
	}

	api, err := newAPI(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts = append([]sites.Option{sites.WithLogger(logger)}, opts...)
	return &app{
		config: cfg,
		logger: logger,
		api:    api,
		sites:  sites.NewService(api, opts...),
	}, nil
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	}), nil
}
