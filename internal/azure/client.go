package azure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/tim10002/mcp-azresource/internal/clock"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/version"
)

const moduleName = "github.com/tim10002/mcp-azresource"

// Credential is a token source that can also be handed to the ARM SDK
// clients. auth.Provider satisfies it.
type Credential interface {
	azcore.TokenCredential
	Token(ctx context.Context) (azcore.AccessToken, error)
}

// Options configures a Client
type Options struct {
	// Timeout bounds every HTTP request to Azure. Zero means 30 seconds.
	Timeout time.Duration

	// Transport overrides the HTTP transport; Timeout is ignored when set
	Transport policy.Transporter

	// Clock defaults to the system clock
	Clock clock.Clock
}

// Client queries Azure Resource Manager for resources and costs. Calls are
// read-only and are never retried.
type Client struct {
	cred     Credential
	options  *arm.ClientOptions
	costs    *armcostmanagement.QueryClient
	pipeline runtime.Pipeline
	logger   *logger.Logger
	clock    clock.Clock
}

// NewClient creates a Client sharing cred's token cache
func NewClient(cred Credential, log *logger.Logger, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Client{Timeout: opts.Timeout}
	}

	armOpts := &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry:     policy.RetryOptions{MaxRetries: -1},
			Transport: transport,
			Telemetry: policy.TelemetryOptions{ApplicationID: version.UserAgent()},
		},
		DisableRPRegistration: true,
	}

	costs, err := armcostmanagement.NewQueryClient(cred, armOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}

	// Raw ARM client for following cost query continuation links
	raw, err := arm.NewClient(moduleName, version.Version, cred, armOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARM pipeline: %w", err)
	}

	return &Client{
		cred:     cred,
		options:  armOpts,
		costs:    costs,
		pipeline: raw.Pipeline(),
		logger:   log,
		clock:    opts.Clock,
	}, nil
}
