package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/validation"
)

var validEnvironments = []string{"development", "production", "test"}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	var vec errors.ValidationErrorCollection

	validateServerConfig(&config.Server, &vec)
	validateBackendConfig(&config.Backend, &vec)
	validateAdminConfig(&config.Admin, &vec)
	validateLoggingConfig(&config.Logging, &vec)

	if config.Development.Debounce < 0 {
		vec.AddField("development.debounce", config.Development.Debounce, "debounce cannot be negative")
	}

	if vec.HasErrors() {
		return vec.ToPanelError()
	}
	return nil
}

func validateServerConfig(config *ServerConfig, vec *errors.ValidationErrorCollection) {
	// Port 0 lets the system assign a port, which tests rely on.
	if config.Port < 0 || config.Port > 65535 {
		vec.AddField("server.port", config.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			"Common development ports: 3000, 8080, 8000")
	}

	if err := validation.ValidateHost(config.Host); err != nil {
		vec.AddField("server.host", config.Host, err.Error())
	}

	if !contains(validEnvironments, config.Environment) {
		vec.AddField("server.environment", config.Environment,
			"unknown environment",
			"Use one of: "+strings.Join(validEnvironments, ", "))
	}

	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateURL(origin); err != nil {
			vec.AddField("server.allowed_origins", origin, err.Error())
		}
	}

	for _, proxy := range config.TrustedProxies {
		if _, err := validation.ParseProxy(proxy); err != nil {
			vec.AddField("server.trusted_proxies", proxy, err.Error(),
				"Use an IP address or CIDR range, e.g. 10.0.0.0/8")
		}
	}

	if config.RateLimit.RequestsPerSecond < 0 {
		vec.AddField("server.rate_limit.requests_per_second", config.RateLimit.RequestsPerSecond,
			"requests per second cannot be negative")
	}
	if config.RateLimit.Burst < 0 {
		vec.AddField("server.rate_limit.burst", config.RateLimit.Burst, "burst cannot be negative")
	}
}

func validateBackendConfig(config *BackendConfig, vec *errors.ValidationErrorCollection) {
	if err := validation.ValidateURL(config.BaseURL); err != nil {
		vec.AddField("backend.base_url", config.BaseURL, err.Error(),
			"Point base_url at the content back-end, e.g. http://localhost:8081")
	}
	if config.Timeout < 0 {
		vec.AddField("backend.timeout", config.Timeout, "timeout cannot be negative")
	}
}

func validateAdminConfig(config *AdminConfig, vec *errors.ValidationErrorCollection) {
	if config.PageSize < 1 {
		vec.AddField("admin.page_size", config.PageSize, "page size must be at least 1")
	}
	if config.MaxPageSize < config.PageSize {
		vec.AddField("admin.max_page_size", config.MaxPageSize,
			fmt.Sprintf("max page size must be at least page_size (%d)", config.PageSize))
	}
}

func validateLoggingConfig(config *LoggingConfig, vec *errors.ValidationErrorCollection) {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		vec.AddField("logging.level", config.Level, "unknown log level",
			"Use one of: debug, info, warn, error")
	}
	if config.Format != "text" && config.Format != "json" {
		vec.AddField("logging.format", config.Format, "unknown log format", "Use text or json")
	}
}

// Warnings reports settings that are valid but probably unintended.
func Warnings(config *Config) []string {
	var warnings []string

	if config.Server.Port > 0 && config.Server.Port < 1024 {
		warnings = append(warnings, "server.port below 1024 requires elevated privileges")
	}
	if config.Server.Environment == "production" && config.Development.LiveReload {
		warnings = append(warnings, "development.live_reload is enabled in production")
	}
	if config.Server.Environment == "production" && !config.Server.RateLimit.Enabled {
		warnings = append(warnings, "server.rate_limit is disabled in production")
	}

	return warnings
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
