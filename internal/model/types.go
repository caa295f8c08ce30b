// Package model holds the result types shared by the Azure clients, the
// report formatter and the tool handlers.
package model

import "time"

// Resource is a single Azure resource inside a resource group
type Resource struct {
	Name     string
	Type     string
	Location string
	Tags     map[string]string
}

// ResourceGroup is a named container of resources within a subscription.
// Resources keep the order the backend returned them in.
type ResourceGroup struct {
	Name      string
	Location  string
	Tags      map[string]string
	Resources []Resource
}

// ResourceQueryResult is the outcome of one resource enumeration
type ResourceQueryResult struct {
	SubscriptionID string
	Filter         string // empty when no filter was applied
	Groups         []ResourceGroup
}

// CostRow is the aggregated actual cost of one UTC day
type CostRow struct {
	Date     time.Time
	Amount   float64
	Currency string
}

// CostQueryResult is the daily cost breakdown for one subscription.
// Rows are sorted by date with no duplicates and share Currency.
type CostQueryResult struct {
	SubscriptionID string
	Timeframe      string
	Rows           []CostRow
	Total          float64
	Currency       string // empty when there are no rows
}

// DateLayout is the rendering of CostRow.Date
const DateLayout = "2006-01-02"
