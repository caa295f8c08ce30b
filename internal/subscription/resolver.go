// Package subscription decides which Azure subscription a tool call targets.
package subscription

import (
	"strings"

	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

// Resolver picks between an explicit subscription ID and the configured default
type Resolver struct {
	defaultID string
}

// NewResolver creates a Resolver. defaultID may be empty.
func NewResolver(defaultID string) *Resolver {
	return &Resolver{defaultID: strings.TrimSpace(defaultID)}
}

// Resolve returns explicit when it is non-blank, otherwise the default. The
// ID is not checked against Azure; an unknown subscription surfaces later as
// SubscriptionNotFoundError.
func (r *Resolver) Resolve(explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if r.defaultID != "" {
		return r.defaultID, nil
	}
	return "", toolerror.New(toolerror.KindSubscriptionNotConfigured,
		"no subscription_id argument was given and AZURE_SUBSCRIPTION_ID is not set")
}

// Default returns the configured default subscription, possibly empty
func (r *Resolver) Default() string {
	return r.defaultID
}
