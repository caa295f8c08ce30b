// Package report renders resource and cost query results as markdown text
// for tool responses. Output depends only on the input, with map keys
// sorted so identical results render identically.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tim10002/mcp-azresource/internal/model"
)

// FormatResources renders resource groups with their nested resources
func FormatResources(result *model.ResourceQueryResult) string {
	if result == nil || len(result.Groups) == 0 {
		return noGroupsLine(result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Azure Resources in Subscription '%s'\n\n", result.SubscriptionID)
	if result.Filter != "" {
		fmt.Fprintf(&b, "**Filter**: resource group names containing '%s'\n\n", result.Filter)
	}

	for _, group := range result.Groups {
		fmt.Fprintf(&b, "### Resource Group: %s\n\n", group.Name)
		fmt.Fprintf(&b, "- **Location**: %s\n", group.Location)
		if len(group.Tags) > 0 {
			fmt.Fprintf(&b, "- **Tags**: %s\n", formatTags(group.Tags))
		}

		b.WriteString("\n**Resources:**\n\n")
		if len(group.Resources) == 0 {
			b.WriteString("No resources found in this resource group.\n\n")
		}
		for _, res := range group.Resources {
			fmt.Fprintf(&b, "- **%s**\n", res.Name)
			fmt.Fprintf(&b, "  - **Type**: %s\n", res.Type)
			fmt.Fprintf(&b, "  - **Location**: %s\n", res.Location)
			if len(res.Tags) > 0 {
				fmt.Fprintf(&b, "  - **Tags**: %s\n", formatTags(res.Tags))
			}
			b.WriteString("\n")
		}

		b.WriteString("---\n\n")
	}

	return b.String()
}

func noGroupsLine(result *model.ResourceQueryResult) string {
	if result == nil {
		return "No resource groups found.\n"
	}
	line := fmt.Sprintf("No resource groups found in subscription '%s'", result.SubscriptionID)
	if result.Filter != "" {
		line += fmt.Sprintf(" matching filter '%s'", result.Filter)
	}
	return line + "\n"
}

// FormatCosts renders the daily cost table and the total
func FormatCosts(result *model.CostQueryResult) string {
	if result == nil {
		result = &model.CostQueryResult{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Azure Cost Analysis for Subscription '%s'\n\n", result.SubscriptionID)
	fmt.Fprintf(&b, "**Timeframe**: %s\n\n", result.Timeframe)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Date", "Cost", "Currency"})
	if len(result.Rows) == 0 {
		t.AppendRow(table.Row{"No data", "-", "-"})
	}
	for _, row := range result.Rows {
		t.AppendRow(table.Row{row.Date.Format(model.DateLayout), formatAmount(row.Amount), row.Currency})
	}
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n")

	if len(result.Rows) == 0 {
		b.WriteString("\nNo cost data available for the specified parameters.\n")
	}

	total := strings.TrimSpace(formatAmount(result.Total) + " " + result.Currency)
	fmt.Fprintf(&b, "\n**Total Cost**: %s\n", total)

	return b.String()
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatTags renders tags as k=v pairs in key order
func formatTags(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + tags[k]
	}
	return strings.Join(pairs, ", ")
}
