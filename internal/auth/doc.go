// Package auth produces Azure Resource Manager access tokens for the tool
// handlers and the SDK clients behind them.
//
// Provider mints tokens with a service principal client secret and caches
// them per scope set until they come within the refresh margin of expiry.
// Concurrent callers that find a stale entry share one mint through a
// singleflight group, so the identity endpoint sees at most one request per
// scope at a time. Provider implements azcore.TokenCredential and can be
// handed directly to armresources and armcostmanagement clients.
//
// Example usage:
//
//	p, err := auth.NewProvider(cfg.Azure, auth.WithRefreshMargin(5*time.Minute))
//	if err != nil {
//		return err // AuthConfigurationError
//	}
//	tok, err := p.Token(ctx) // AuthFailureError when the mint fails
package auth
