package azure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

// ARM error codes meaning the subscription is unknown or unusable
var subscriptionErrorCodes = map[string]bool{
	"SubscriptionNotFound":         true,
	"InvalidSubscriptionId":        true,
	"DisabledSubscription":         true,
	"ReadOnlyDisabledSubscription": true,
}

// callScope tells classify whether the failed request addressed the
// subscription itself or something inside it
type callScope int

const (
	subscriptionScope callScope = iota
	groupScope
)

// classify converts an SDK error into a toolerror kind. A 403 or 404 on a
// subscription-scoped call means the subscription is missing or invisible to
// the service principal.
func classify(err error, scope callScope, subscriptionID, action string) error {
	if err == nil {
		return nil
	}
	if te, ok := toolerror.As(err); ok {
		return te
	}

	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return toolerror.Wrap(toolerror.KindAuthFailure, err, "failed to acquire access token")
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.StatusCode
		switch {
		case subscriptionErrorCodes[respErr.ErrorCode]:
			return toolerror.Wrap(toolerror.KindSubscriptionNotFound, err,
				"subscription %q does not exist or is not accessible (%s)", subscriptionID, respErr.ErrorCode)
		case status == http.StatusUnauthorized:
			return toolerror.Wrap(toolerror.KindAuthFailure, err, "Azure rejected the access token while trying to %s", action)
		case scope == subscriptionScope && (status == http.StatusForbidden || status == http.StatusNotFound):
			return toolerror.Wrap(toolerror.KindSubscriptionNotFound, err,
				"subscription %q does not exist or is not accessible (HTTP %d)", subscriptionID, status)
		}
		return toolerror.API(status, responseBody(respErr), err, "failed to %s: HTTP %d %s", action, status, respErr.ErrorCode)
	}

	if isTimeout(err) {
		return toolerror.API(0, "", err, "failed to %s: request timed out", action)
	}

	return toolerror.API(0, "", err, "failed to %s", action)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func responseBody(respErr *azcore.ResponseError) string {
	if respErr.RawResponse == nil {
		return ""
	}
	body, err := runtime.Payload(respErr.RawResponse)
	if err != nil {
		return fmt.Sprintf("<unreadable body: %v>", err)
	}
	return string(body)
}
