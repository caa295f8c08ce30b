package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tim10002/mcp-azresource/internal/azure"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/model"
	"github.com/tim10002/mcp-azresource/internal/report"
	"github.com/tim10002/mcp-azresource/internal/subscription"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

// Tool and argument names
const (
	ListResourcesTool = "list_azure_resources"
	GetCostsTool      = "get_azure_costs_rest"

	argSubscriptionID = "subscription_id"
	argGroupFilter    = "resource_group_filter"
	argTimeframe      = "timeframe"

	outcomeSuccess = "success"
)

// ResourceLister enumerates resource groups and their resources
type ResourceLister interface {
	ListResources(ctx context.Context, subscriptionID, nameFilter string) (*model.ResourceQueryResult, error)
}

// CostQuerier returns the daily cost breakdown of a subscription
type CostQuerier interface {
	GetCosts(ctx context.Context, subscriptionID string, query azure.CostQuery) (*model.CostQueryResult, error)
}

// Observer receives the outcome of every tool call
type Observer interface {
	ObserveToolCall(tool, outcome string, duration time.Duration)
}

// Handlers serves the MCP tools
type Handlers struct {
	resources ResourceLister
	costs     CostQuerier
	resolver  *subscription.Resolver
	observer  Observer
	logger    *logger.Logger
}

// Option configures Handlers
type Option func(*Handlers)

// WithObserver reports every call to o
func WithObserver(o Observer) Option {
	return func(h *Handlers) { h.observer = o }
}

// New creates Handlers
func New(resources ResourceLister, costs CostQuerier, resolver *subscription.Resolver, log *logger.Logger, opts ...Option) *Handlers {
	h := &Handlers{
		resources: resources,
		costs:     costs,
		resolver:  resolver,
		logger:    log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds both tools to s
func (h *Handlers) Register(s *server.MCPServer) {
	s.AddTool(ListResourcesToolDef(), h.ListResources)
	s.AddTool(GetCostsToolDef(), h.GetCosts)
}

// ListResourcesToolDef declares list_azure_resources
func ListResourcesToolDef() mcp.Tool {
	return mcp.NewTool(ListResourcesTool,
		mcp.WithDescription("List Azure resource groups and the resources inside them. "+
			"Uses AZURE_SUBSCRIPTION_ID when subscription_id is not given."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString(argSubscriptionID,
			mcp.Description("Azure subscription ID. Defaults to the configured subscription."),
		),
		mcp.WithString(argGroupFilter,
			mcp.Description("Only include resource groups whose name contains this text (case-insensitive)."),
		),
	)
}

// GetCostsToolDef declares get_azure_costs_rest
func GetCostsToolDef() mcp.Tool {
	timeframes := make([]string, len(azure.Timeframes))
	for i, tf := range azure.Timeframes {
		timeframes[i] = string(tf)
	}

	return mcp.NewTool(GetCostsTool,
		mcp.WithDescription("Get the daily actual cost of an Azure subscription and its total for a timeframe. "+
			"Uses AZURE_SUBSCRIPTION_ID when subscription_id is not given."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString(argSubscriptionID,
			mcp.Description("Azure subscription ID. Defaults to the configured subscription."),
		),
		mcp.WithString(argTimeframe,
			mcp.Description("Cost Management timeframe. Custom needs an explicit date range and is rejected here."),
			mcp.Enum(timeframes...),
			mcp.DefaultString(string(azure.DefaultTimeframe)),
		),
	)
}

// ListResources handles list_azure_resources
func (h *Handlers) ListResources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, ListResourcesTool, request, []string{argSubscriptionID, argGroupFilter},
		func(ctx context.Context, subscriptionID string, args map[string]string) (string, error) {
			result, err := h.resources.ListResources(ctx, subscriptionID, args[argGroupFilter])
			if err != nil {
				return "", err
			}
			return report.FormatResources(result), nil
		})
}

// GetCosts handles get_azure_costs_rest
func (h *Handlers) GetCosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, GetCostsTool, request, []string{argSubscriptionID, argTimeframe},
		func(ctx context.Context, subscriptionID string, args map[string]string) (string, error) {
			result, err := h.costs.GetCosts(ctx, subscriptionID, azure.CostQuery{Timeframe: args[argTimeframe]})
			if err != nil {
				return "", err
			}
			return report.FormatCosts(result), nil
		})
}

type queryFunc func(ctx context.Context, subscriptionID string, args map[string]string) (string, error)

// run is shared by both handlers: argument checks, subscription
// resolution, error translation and observation
func (h *Handlers) run(ctx context.Context, tool string, request mcp.CallToolRequest, names []string, query queryFunc) (*mcp.CallToolResult, error) {
	start := time.Now()
	log := h.logger.WithFields("tool", tool)

	text, err := func() (string, error) {
		args, err := stringArgs(request.Params.Arguments, names...)
		if err != nil {
			return "", err
		}
		subscriptionID, err := h.resolver.Resolve(args[argSubscriptionID])
		if err != nil {
			return "", err
		}
		log.Info("Handling tool call", "subscription_id", subscriptionID)
		return query(ctx, subscriptionID, args)
	}()

	duration := time.Since(start)

	if err != nil {
		te := classify(err)
		log.Error("Tool call failed",
			"kind", te.Kind,
			"status", te.Status,
			"body", te.Body,
			"duration_seconds", duration.Seconds(),
			"error", err)
		h.observe(tool, string(te.Kind), duration)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", te.Kind, te.Message)), nil
	}

	log.Info("Tool call succeeded", "duration_seconds", duration.Seconds())
	h.observe(tool, outcomeSuccess, duration)
	return mcp.NewToolResultText(text), nil
}

func (h *Handlers) observe(tool, outcome string, duration time.Duration) {
	if h.observer != nil {
		h.observer.ObserveToolCall(tool, outcome, duration)
	}
}

// classify guarantees a kind for every error leaving the handlers
func classify(err error) *toolerror.Error {
	if te, ok := toolerror.As(err); ok {
		return te
	}
	return toolerror.Wrap(toolerror.KindAPI, err, "unexpected error while querying Azure")
}

// stringArgs extracts the named arguments, each of which must be absent,
// null or a string. raw itself must be an object or absent.
func stringArgs(raw any, names ...string) (map[string]string, error) {
	args := make(map[string]string, len(names))
	if raw == nil {
		return args, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, toolerror.New(toolerror.KindInvalidArgument, "arguments must be an object, got %T", raw)
	}

	for _, name := range names {
		v, present := m[name]
		if !present || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, toolerror.New(toolerror.KindInvalidArgument, "argument %q must be a string, got %T", name, v)
		}
		args[name] = s
	}
	return args, nil
}
