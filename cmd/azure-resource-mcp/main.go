package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tim10002/mcp-azresource/internal/auth"
	"github.com/tim10002/mcp-azresource/internal/azure"
	"github.com/tim10002/mcp-azresource/internal/collector"
	"github.com/tim10002/mcp-azresource/internal/config"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/server"
	"github.com/tim10002/mcp-azresource/internal/subscription"
	"github.com/tim10002/mcp-azresource/internal/tools"
	"github.com/tim10002/mcp-azresource/internal/version"
)

const (
	// DefaultShutdownTimeout is the maximum time to wait for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

var (
	configPath  = flag.String("config", "", "Path to an optional YAML configuration file")
	showVersion = flag.Bool("version", false, "Print build information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		for k, v := range version.Info() {
			fmt.Printf("%s: %s\n", k, v)
		}
		return
	}

	// Load configuration first (need log level from config). Missing
	// credentials stop the process here.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger (stderr; stdout carries MCP messages)
	logger := logger.New(cfg.LogLevel)
	logger.Info("Azure resource MCP server starting",
		"version", version.Version,
		"config_path", *configPath)

	logger.Info("Configuration loaded successfully",
		"tenant_id", cfg.Azure.TenantID,
		"client_id", cfg.Azure.ClientID,
		"default_subscription", cfg.Azure.SubscriptionID != "",
		"api_timeout_seconds", cfg.APITimeout,
		"token_refresh_margin_seconds", cfg.TokenRefreshMargin,
		"http_port", cfg.HTTPPort)

	// Create metrics collector
	toolCollector := collector.NewToolCollector(logger)
	if err := prometheus.Register(toolCollector); err != nil {
		logger.Error("Failed to register collector", "error", err)
		os.Exit(1)
	}

	// Register Go runtime metrics (memory, goroutines, GC stats)
	if err := prometheus.Register(prometheus.NewGoCollector()); err != nil {
		logger.Warn("Failed to register Go collector", "error", err)
	}

	// Register process metrics (CPU, memory, file descriptors)
	if err := prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{})); err != nil {
		logger.Warn("Failed to register process collector", "error", err)
	}

	apiTimeout := time.Duration(cfg.APITimeout) * time.Second

	provider, err := auth.NewProvider(cfg.Azure,
		auth.WithRefreshMargin(time.Duration(cfg.TokenRefreshMargin)*time.Second),
		auth.WithMintTimeout(apiTimeout),
		auth.WithMintObserver(toolCollector.ObserveTokenMint),
		auth.WithLogger(logger.WithFields("component", "auth")))
	if err != nil {
		logger.Error("Failed to create credential provider", "error", err)
		os.Exit(1)
	}

	azureClient, err := azure.NewClient(provider, logger.WithFields("component", "azure"), azure.Options{Timeout: apiTimeout})
	if err != nil {
		logger.Error("Failed to create Azure client", "error", err)
		os.Exit(1)
	}

	resolver := subscription.NewResolver(cfg.Azure.SubscriptionID)
	if resolver.Default() == "" {
		logger.Warn("No default subscription configured, every tool call must pass subscription_id")
	}

	handlers := tools.New(azureClient, azureClient, resolver,
		logger.WithFields("component", "tools"),
		tools.WithObserver(toolCollector))

	mcp := mcpserver.NewMCPServer(version.Name, version.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery())
	handlers.Register(mcp)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mint the first token in the background so readiness reflects whether
	// the service principal works before the first tool call
	go func() {
		if _, err := provider.Token(ctx); err != nil {
			logger.Warn("Initial token mint failed, tool calls will retry", "error", err)
			return
		}
		logger.Info("Initial access token acquired")
	}()

	// Optional ops HTTP server
	var srv *server.Server
	serverErrors := make(chan error, 1)
	if cfg.HTTPPort > 0 {
		srv = server.NewServer(fmt.Sprintf(":%d", cfg.HTTPPort), toolCollector, prometheus.DefaultGatherer, logger)
		go func() {
			serverErrors <- srv.Start()
		}()
	}

	// MCP over stdio
	stdioDone := make(chan error, 1)
	go func() {
		errLog := slog.NewLogLogger(logger.Handler(), slog.LevelError)
		stdioDone <- mcpserver.ServeStdio(mcp, mcpserver.WithErrorLogger(errLog))
	}()
	logger.Info("Serving MCP over stdio", "tools", []string{tools.ListResourcesTool, tools.GetCostsTool})

	// Wait for interrupt signal, stdin close or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		logger.Error("Server error", "error", err)
		exitCode = 1

	case err := <-stdioDone:
		if err != nil {
			logger.Error("MCP stdio server stopped", "error", err)
			exitCode = 1
		} else {
			logger.Info("MCP client disconnected")
		}

	case sig := <-shutdown:
		logger.Info("Received shutdown signal, starting graceful shutdown", "signal", sig.String())
	}

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during server shutdown", "error", err)
			exitCode = 1
		}
	}

	logger.Info("Server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
