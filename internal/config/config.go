// Package config provides configuration management for sitepanel using Viper
// for flexible loading from files, environment variables and command-line
// flags.
//
// The configuration covers the admin HTTP server, the content back-end the
// REST client talks to, list pagination in the admin UI, live reload during
// development and logging. Values are read from .sitepanel.yml, overridden by
// SITEPANEL_<SECTION>_<KEY> environment variables and bound flags.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Backend     BackendConfig     `mapstructure:"backend" yaml:"backend"`
	Admin       AdminConfig       `mapstructure:"admin" yaml:"admin"`
	Development DevelopmentConfig `mapstructure:"development" yaml:"development"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Port           int             `mapstructure:"port" yaml:"port"`
	Host           string          `mapstructure:"host" yaml:"host"`
	Environment    string          `mapstructure:"environment" yaml:"environment"`
	AllowedOrigins []string        `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	TrustedProxies []string        `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type AdminConfig struct {
	PageSize    int `mapstructure:"page_size" yaml:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size" yaml:"max_page_size"`
}

type DevelopmentConfig struct {
	LiveReload bool          `mapstructure:"live_reload" yaml:"live_reload"`
	Debounce   time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads the configuration held by the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(v, &config)

	// The root --log-level flag is bound outside the logging section.
	if v.IsSet("log-level") && !v.IsSet("logging.level") {
		config.Logging.Level = v.GetString("log-level")
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(v *viper.Viper, config *Config) {
	if config.Server.Port == 0 && !v.IsSet("server.port") {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{
			fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port),
		}
	}
	if !v.IsSet("server.rate_limit.enabled") {
		config.Server.RateLimit.Enabled = true
	}
	if config.Server.RateLimit.RequestsPerSecond == 0 {
		config.Server.RateLimit.RequestsPerSecond = 5
	}
	if config.Server.RateLimit.Burst == 0 {
		config.Server.RateLimit.Burst = 10
	}

	if config.Backend.BaseURL == "" {
		config.Backend.BaseURL = "http://localhost:8081"
	}
	if config.Backend.Timeout == 0 {
		config.Backend.Timeout = 10 * time.Second
	}
	if config.Backend.UserAgent == "" {
		config.Backend.UserAgent = "sitepanel"
	}

	if config.Admin.PageSize == 0 {
		config.Admin.PageSize = 20
	}
	if config.Admin.MaxPageSize == 0 {
		config.Admin.MaxPageSize = 100
	}

	if !v.IsSet("development.live_reload") {
		config.Development.LiveReload = config.Server.Environment == "development"
	}
	if config.Development.Debounce == 0 {
		config.Development.Debounce = 250 * time.Millisecond
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// Addr returns the host:port the admin server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
