package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	_ "github.com/Azure/azure-sdk-for-go/sdk/azcore/arm/runtime" // registers the ResourceManager audience
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/tim10002/mcp-azresource/internal/clock"
	"github.com/tim10002/mcp-azresource/internal/config"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
	"golang.org/x/sync/singleflight"
)

// DefaultScope is the Azure Resource Manager scope used by Token. It is built
// the same way the ARM pipeline builds the scope for its bearer policy, so
// Token and SDK clients share one cache entry.
var DefaultScope = cloud.AzurePublic.Services[cloud.ResourceManager].Audience + "/.default"

const (
	// DefaultRefreshMargin re-mints tokens that expire within five minutes
	DefaultRefreshMargin = 5 * time.Minute

	// DefaultMintTimeout bounds a single round-trip to the identity endpoint
	DefaultMintTimeout = 30 * time.Second
)

// MintObserver is notified after every mint attempt
type MintObserver func(err error, duration time.Duration)

// Provider caches access tokens minted by a service principal credential.
// It is safe for concurrent use.
type Provider struct {
	minter      azcore.TokenCredential
	clock       clock.Clock
	margin      time.Duration
	mintTimeout time.Duration
	observer    MintObserver
	logger      *logger.Logger

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]azcore.AccessToken
}

var _ azcore.TokenCredential = (*Provider)(nil)

// Option configures a Provider
type Option func(*Provider)

// WithClock sets the time source used for expiry checks
func WithClock(c clock.Clock) Option {
	return func(p *Provider) { p.clock = c }
}

// WithRefreshMargin sets how long before expiry a cached token is replaced
func WithRefreshMargin(d time.Duration) Option {
	return func(p *Provider) { p.margin = d }
}

// WithMintTimeout bounds each call to the identity endpoint
func WithMintTimeout(d time.Duration) Option {
	return func(p *Provider) { p.mintTimeout = d }
}

// WithMinter replaces the client secret credential that mints tokens
func WithMinter(m azcore.TokenCredential) Option {
	return func(p *Provider) { p.minter = m }
}

// WithMintObserver registers a callback invoked after each mint attempt
func WithMintObserver(o MintObserver) Option {
	return func(p *Provider) { p.observer = o }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider for the given service principal. It fails
// with an AuthConfigurationError before any network call when a credential
// field is missing.
func NewProvider(cfg config.Azure, opts ...Option) (*Provider, error) {
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		return nil, toolerror.New(toolerror.KindAuthConfiguration,
			"missing Azure service principal credentials: set %s", strings.Join(missing, ", "))
	}

	p := &Provider{
		clock:       clock.RealClock{},
		margin:      DefaultRefreshMargin,
		mintTimeout: DefaultMintTimeout,
		cache:       make(map[string]azcore.AccessToken),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.New("info")
	}

	if p.minter == nil {
		cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret,
			&azidentity.ClientSecretCredentialOptions{
				ClientOptions: azcore.ClientOptions{
					Retry: policy.RetryOptions{MaxRetries: -1},
				},
			})
		if err != nil {
			return nil, toolerror.Wrap(toolerror.KindAuthConfiguration, err, "invalid service principal configuration")
		}
		p.minter = cred
	}

	return p, nil
}

// Token returns an Azure Resource Manager token, minting a new one when the
// cached token is absent or close to expiry
func (p *Provider) Token(ctx context.Context) (azcore.AccessToken, error) {
	return p.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{DefaultScope}})
}

// GetToken implements azcore.TokenCredential
func (p *Provider) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if len(opts.Scopes) == 0 {
		opts.Scopes = []string{DefaultScope}
	}
	key := cacheKey(opts.Scopes)

	if tok, ok := p.cached(key); ok {
		return tok, nil
	}

	ch := p.group.DoChan(key, func() (any, error) {
		// Another caller may have refreshed between our check and joining the group
		if tok, ok := p.cached(key); ok {
			return tok, nil
		}
		return p.mint(ctx, key, opts)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return azcore.AccessToken{}, res.Err
		}
		return res.Val.(azcore.AccessToken), nil
	case <-ctx.Done():
		return azcore.AccessToken{}, toolerror.Wrap(toolerror.KindAuthFailure, ctx.Err(), "gave up waiting for access token")
	}
}

func (p *Provider) cached(key string) (azcore.AccessToken, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tok, ok := p.cache[key]
	if !ok || !p.clock.Now().Add(p.margin).Before(tok.ExpiresOn) {
		return azcore.AccessToken{}, false
	}
	return tok, true
}

// mint runs detached from the first caller's cancellation since other
// callers may be waiting on the same result
func (p *Provider) mint(ctx context.Context, key string, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	mintCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.mintTimeout)
	defer cancel()

	start := time.Now()
	tok, err := p.minter.GetToken(mintCtx, opts)
	duration := time.Since(start)

	if err != nil {
		err = toolerror.Wrap(toolerror.KindAuthFailure, err, "failed to acquire access token")
	}

	if err == nil {
		p.mu.Lock()
		p.cache[key] = tok
		p.mu.Unlock()
	}

	if p.observer != nil {
		p.observer(err, duration)
	}

	if err != nil {
		p.logger.Error("Token mint failed", "scopes", key, "duration", duration, "error", err)
		return azcore.AccessToken{}, err
	}

	p.logger.Debug("Minted access token",
		"scopes", key,
		"expires_on", tok.ExpiresOn.UTC().Format(time.RFC3339),
		"duration", duration)
	return tok, nil
}

func cacheKey(scopes []string) string {
	sorted := append([]string(nil), scopes...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
