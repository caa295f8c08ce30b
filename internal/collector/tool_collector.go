package collector

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tim10002/mcp-azresource/internal/clock"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/version"
)

// OutcomeSuccess labels calls and mints that returned without error
const OutcomeSuccess = "success"

// ToolCollector implements prometheus.Collector for tool call and token
// metrics
type ToolCollector struct {
	logger *logger.Logger
	clock  clock.Clock // Time provider for testing

	// Metrics
	toolCallsTotal     *prometheus.CounterVec
	toolCallDuration   *prometheus.HistogramVec
	tokenMintsTotal    *prometheus.CounterVec
	upMetric           *prometheus.Desc
	lastCallTimeMetric *prometheus.Desc
	lastMintTimeMetric *prometheus.Desc
	buildInfo          *prometheus.GaugeVec // Build version information

	// State
	mu          sync.RWMutex
	lastCalls   map[string]time.Time
	lastMint    time.Time
	lastMintErr error
}

// NewToolCollector creates a new ToolCollector
func NewToolCollector(log *logger.Logger) *ToolCollector {
	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "azure_resource_mcp_build_info",
			Help: "Build version information",
		},
		[]string{"version", "git_commit", "build_date", "go_version"},
	)

	// Set build info to 1 with version labels
	versionInfo := version.Info()
	buildInfo.With(prometheus.Labels{
		"version":    versionInfo["version"],
		"git_commit": versionInfo["git_commit"],
		"build_date": versionInfo["build_date"],
		"go_version": versionInfo["go_version"],
	}).Set(1)

	return &ToolCollector{
		logger: log,
		clock:  clock.RealClock{}, // Use real system time by default
		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "azure_resource_mcp_tool_calls_total",
				Help: "Total number of tool calls by tool and outcome (success or error kind)",
			},
			[]string{"tool", "outcome"},
		),
		toolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "azure_resource_mcp_tool_call_duration_seconds",
				Help:    "Duration of tool calls including every Azure page fetched",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
		tokenMintsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "azure_resource_mcp_token_mints_total",
				Help: "Total number of access token mints by outcome",
			},
			[]string{"outcome"},
		),
		upMetric: prometheus.NewDesc(
			"azure_resource_mcp_up",
			"Did the last access token mint succeed (1 = success, 0 = failure or none yet)",
			nil,
			nil,
		),
		lastCallTimeMetric: prometheus.NewDesc(
			"azure_resource_mcp_last_tool_call_timestamp_seconds",
			"Unix timestamp of the last call to each tool",
			[]string{"tool"},
			nil,
		),
		lastMintTimeMetric: prometheus.NewDesc(
			"azure_resource_mcp_last_token_mint_timestamp_seconds",
			"Unix timestamp of the last access token mint attempt",
			nil,
			nil,
		),
		buildInfo: buildInfo,
		lastCalls: make(map[string]time.Time),
	}
}

// ObserveToolCall records one finished tool call. outcome is OutcomeSuccess
// or the error kind.
func (c *ToolCollector) ObserveToolCall(tool, outcome string, duration time.Duration) {
	c.toolCallsTotal.With(prometheus.Labels{"tool": tool, "outcome": outcome}).Inc()
	c.toolCallDuration.With(prometheus.Labels{"tool": tool}).Observe(duration.Seconds())

	c.mu.Lock()
	c.lastCalls[tool] = c.clock.Now()
	c.mu.Unlock()
}

// ObserveTokenMint records one mint attempt. Its signature matches
// auth.MintObserver.
func (c *ToolCollector) ObserveTokenMint(err error, duration time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = "failure"
	}
	c.tokenMintsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastMint = c.clock.Now()
	c.lastMintErr = err

	if err != nil {
		c.logger.Debug("Recorded failed token mint", "duration_seconds", duration.Seconds())
	}
}

// Describe implements prometheus.Collector
func (c *ToolCollector) Describe(ch chan<- *prometheus.Desc) {
	c.toolCallsTotal.Describe(ch)
	c.toolCallDuration.Describe(ch)
	c.tokenMintsTotal.Describe(ch)
	ch <- c.upMetric
	ch <- c.lastCallTimeMetric
	ch <- c.lastMintTimeMetric
	c.buildInfo.Describe(ch) // Describe build info
}

// Collect implements prometheus.Collector
func (c *ToolCollector) Collect(ch chan<- prometheus.Metric) {
	c.toolCallsTotal.Collect(ch)
	c.toolCallDuration.Collect(ch)
	c.tokenMintsTotal.Collect(ch)

	c.mu.RLock()
	defer c.mu.RUnlock()

	upValue := 0.0
	if !c.lastMint.IsZero() && c.lastMintErr == nil {
		upValue = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.upMetric, prometheus.GaugeValue, upValue)

	for tool, at := range c.lastCalls {
		ch <- prometheus.MustNewConstMetric(
			c.lastCallTimeMetric,
			prometheus.GaugeValue,
			float64(at.Unix()),
			tool,
		)
	}

	if !c.lastMint.IsZero() {
		ch <- prometheus.MustNewConstMetric(
			c.lastMintTimeMetric,
			prometheus.GaugeValue,
			float64(c.lastMint.Unix()),
		)
	}

	// Collect build info metric
	c.buildInfo.Collect(ch)
}

// IsReady returns true once a token has been minted and the latest mint
// succeeded
func (c *ToolCollector) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastMint.IsZero() && c.lastMintErr == nil
}

// LastError returns the error of the latest token mint
func (c *ToolCollector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMintErr
}

// LastCallTime returns when tool was last called, zero if never
func (c *ToolCollector) LastCallTime(tool string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastCalls[tool]
}
