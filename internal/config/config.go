package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/tim10002/mcp-azresource/internal/toolerror"
	"gopkg.in/yaml.v3"
)

// Configuration validation constants
const (
	MinPort       = 0     // 0 disables the ops HTTP listener
	MaxPort       = 65535 // Maximum valid port number
	MaxAPITimeout = 300   // Upper bound for api_timeout in seconds

	// Default values
	DefaultLogLevel           = "info"
	DefaultAPITimeout         = 30  // API timeout in seconds
	DefaultTokenRefreshMargin = 300 // Re-mint tokens with less than 5 minutes left
	DefaultHTTPPort           = 0
)

// Environment variables holding the service principal and default subscription
const (
	EnvTenantID       = "AZURE_TENANT_ID"
	EnvClientID       = "AZURE_CLIENT_ID"
	EnvClientSecret   = "AZURE_CLIENT_SECRET"
	EnvSubscriptionID = "AZURE_SUBSCRIPTION_ID"
)

// Azure holds the service principal credentials and the default subscription.
// It is read once at startup and never modified afterwards.
type Azure struct {
	TenantID       string `yaml:"tenant_id"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	SubscriptionID string `yaml:"subscription_id"`
}

// MissingCredentials returns the environment variable names of the
// credential fields that are empty
func (a Azure) MissingCredentials() []string {
	var missing []string
	if strings.TrimSpace(a.TenantID) == "" {
		missing = append(missing, EnvTenantID)
	}
	if strings.TrimSpace(a.ClientID) == "" {
		missing = append(missing, EnvClientID)
	}
	if strings.TrimSpace(a.ClientSecret) == "" {
		missing = append(missing, EnvClientSecret)
	}
	return missing
}

// Config represents the application configuration
type Config struct {
	Azure              Azure  `yaml:"azure"`
	LogLevel           string `yaml:"log_level"`
	APITimeout         int    `yaml:"api_timeout"`          // Azure API timeout in seconds
	TokenRefreshMargin int    `yaml:"token_refresh_margin"` // seconds before expiry to re-mint
	HTTPPort           int    `yaml:"http_port"`            // ops listener, 0 = disabled
}

// Load loads configuration from an optional YAML file and applies environment
// variable overrides. An empty path skips the file; a path that was given
// must exist.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 -- Config file path is provided by administrator via CLI flag, not user input
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply defaults
	applyDefaults(&cfg)

	// Override with environment variables
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	// Validate
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for configuration
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.APITimeout == 0 {
		cfg.APITimeout = DefaultAPITimeout
	}
	if cfg.TokenRefreshMargin == 0 {
		cfg.TokenRefreshMargin = DefaultTokenRefreshMargin
	}
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv(EnvTenantID); val != "" {
		cfg.Azure.TenantID = val
	}
	if val := os.Getenv(EnvClientID); val != "" {
		cfg.Azure.ClientID = val
	}
	if val := os.Getenv(EnvClientSecret); val != "" {
		cfg.Azure.ClientSecret = val
	}
	if val := os.Getenv(EnvSubscriptionID); val != "" {
		cfg.Azure.SubscriptionID = val
	}

	if val := os.Getenv("AZURE_RESOURCE_MCP_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	ints := []struct {
		env  string
		dest *int
	}{
		{"AZURE_RESOURCE_MCP_API_TIMEOUT", &cfg.APITimeout},
		{"AZURE_RESOURCE_MCP_TOKEN_REFRESH_MARGIN", &cfg.TokenRefreshMargin},
		{"AZURE_RESOURCE_MCP_HTTP_PORT", &cfg.HTTPPort},
	}
	for _, o := range ints {
		val := os.Getenv(o.env)
		if val == "" {
			continue
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: must be an integer, got %q", o.env, val)
		}
		*o.dest = i
	}

	return nil
}

// validate validates the configuration. Missing credentials are reported as
// AuthConfigurationError so startup fails the same way a tool call would.
func validate(cfg *Config) error {
	if missing := cfg.Azure.MissingCredentials(); len(missing) > 0 {
		return toolerror.New(toolerror.KindAuthConfiguration,
			"missing Azure service principal credentials: set %s", strings.Join(missing, ", "))
	}

	if cfg.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %d", cfg.APITimeout)
	}

	if cfg.APITimeout > MaxAPITimeout {
		return fmt.Errorf("api_timeout should not exceed %d seconds, got %d", MaxAPITimeout, cfg.APITimeout)
	}

	if cfg.TokenRefreshMargin < 0 {
		return fmt.Errorf("token_refresh_margin cannot be negative, got %d", cfg.TokenRefreshMargin)
	}

	if cfg.HTTPPort < MinPort || cfg.HTTPPort > MaxPort {
		return fmt.Errorf("http_port must be between %d and %d", MinPort, MaxPort)
	}

	return nil
}
