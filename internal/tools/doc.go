// Package tools declares the MCP tools and turns tool calls into Azure
// queries and markdown reports.
//
// Two tools are registered:
//   - list_azure_resources(subscription_id?, resource_group_filter?)
//   - get_azure_costs_rest(subscription_id?, timeframe? = "MonthToDate")
//
// Handlers validate the argument types, resolve the subscription, run the
// query and format the result. Every failure is returned as an MCP error
// result whose text starts with the error kind, for example
// "InvalidTimeframeError: unsupported timeframe ...". Backend response
// bodies are logged and never sent to the client.
package tools
