// Package collector implements a Prometheus collector for the MCP server's
// own activity.
//
// The collector exposes the following metrics:
//   - azure_resource_mcp_tool_calls_total: Tool calls by tool and outcome (success or error kind)
//   - azure_resource_mcp_tool_call_duration_seconds: Tool call latency histogram by tool
//   - azure_resource_mcp_token_mints_total: Access token mints by outcome
//   - azure_resource_mcp_up: 1 when the latest token mint succeeded
//   - azure_resource_mcp_last_tool_call_timestamp_seconds: Last call time per tool
//   - azure_resource_mcp_last_token_mint_timestamp_seconds: Last mint attempt time
//   - azure_resource_mcp_build_info: Build version information
//
// Cost figures are not exported; every tool call queries Azure afresh and
// nothing is kept between calls.
//
// Example usage:
//
//	c := collector.NewToolCollector(log)
//	prometheus.MustRegister(c)
//
//	provider, _ := auth.NewProvider(cfg.Azure, auth.WithMintObserver(c.ObserveTokenMint))
//	handlers := tools.New(client, client, resolver, log, tools.WithObserver(c))
package collector
