// Package toolerror defines the failure taxonomy shared by every component
// that sits behind the MCP tools.
//
// Components return the most specific *Error they can. The tools package is
// the only place that turns an *Error into a tool response; anything that
// reaches it unclassified is reported as ApiError.
//
// Kinds:
//   - AuthConfigurationError: tenant, client ID or secret missing
//   - AuthFailureError: the identity endpoint rejected or could not be reached
//   - SubscriptionNotConfiguredError: no explicit or default subscription
//   - SubscriptionNotFoundError: subscription missing or inaccessible
//   - InvalidTimeframeError: unknown timeframe, or Custom without dates
//   - CurrencyMismatchError: cost rows in more than one currency
//   - InvalidArgumentError: tool argument of the wrong type
//   - ApiError: any other backend failure, with status and body
//
// Example usage:
//
//	if toolerror.Is(err, toolerror.KindSubscriptionNotFound) {
//		// ...
//	}
package toolerror
