// Package azure queries Azure Resource Manager for the two read-only reports
// served by the tools: resource inventory and daily actual cost.
//
// It handles:
//   - Resource group and resource enumeration through armresources pagers
//   - Cost queries through armcostmanagement, following nextLink pages
//   - Response parsing by column name, summing same-day cost rows
//   - Mapping SDK failures onto toolerror kinds
//
// Every call reads all pages before returning. The SDK retry policy is
// disabled and each HTTP request is bounded by Options.Timeout.
//
// Example usage:
//
//	client, err := azure.NewClient(provider, log, azure.Options{Timeout: 30 * time.Second})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	costs, err := client.GetCosts(ctx, "sub-123", azure.CostQuery{Timeframe: "TheLastMonth"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, row := range costs.Rows {
//		fmt.Printf("%s %.2f %s\n", row.Date.Format(model.DateLayout), row.Amount, row.Currency)
//	}
package azure
