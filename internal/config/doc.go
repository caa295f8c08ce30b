// Package config provides configuration management for the Azure resource
// MCP server.
//
// This package handles loading configuration from an optional YAML file
// (an explicitly given path that does not exist is an error),
// applying environment variable overrides, setting defaults, and validating
// the configuration. Validation happens once at startup: a missing tenant ID,
// client ID or client secret fails Load with an AuthConfigurationError, so no
// tool call ever runs without credentials. The default subscription is
// optional; without it every tool call must name a subscription.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// Supported environment variables:
//   - AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET: service principal
//   - AZURE_SUBSCRIPTION_ID: default subscription
//   - AZURE_RESOURCE_MCP_LOG_LEVEL: Log level (debug, info, warn, error)
//   - AZURE_RESOURCE_MCP_API_TIMEOUT: Per-request timeout in seconds (1-300)
//   - AZURE_RESOURCE_MCP_TOKEN_REFRESH_MARGIN: Seconds before expiry to re-mint tokens
//   - AZURE_RESOURCE_MCP_HTTP_PORT: Ops HTTP port for /metrics, 0 disables it
//
// Example configuration file (config.yaml):
//
//	azure:
//	  tenant_id: "00000000-0000-0000-0000-000000000000"
//	  client_id: "11111111-1111-1111-1111-111111111111"
//	  subscription_id: "22222222-2222-2222-2222-222222222222"
//	  # client_secret is best left to AZURE_CLIENT_SECRET
//
//	log_level: "info"
//	api_timeout: 30
//	token_refresh_margin: 300
//	http_port: 9090
//
// Example usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
package config
