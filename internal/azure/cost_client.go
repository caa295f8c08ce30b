package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/tim10002/mcp-azresource/internal/model"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

// DefaultTimeframe is used when a cost query names no timeframe
const DefaultTimeframe = armcostmanagement.TimeframeTypeMonthToDate

// Timeframes lists the accepted timeframe values in canonical spelling
var Timeframes = []armcostmanagement.TimeframeType{
	armcostmanagement.TimeframeTypeMonthToDate,
	armcostmanagement.TimeframeTypeBillingMonthToDate,
	armcostmanagement.TimeframeTypeTheLastMonth,
	armcostmanagement.TimeframeTypeTheLastBillingMonth,
	armcostmanagement.TimeframeTypeWeekToDate,
	armcostmanagement.TimeframeTypeCustom,
}

// Column names in cost query results
const (
	columnCost       = "Cost"
	columnPreTaxCost = "PreTaxCost"
	columnTotalCost  = "totalCost"
	columnUsageDate  = "UsageDate"
	columnCurrency   = "Currency"
)

// usageDateLayout is how UsageDate cells encode a day
const usageDateLayout = "20060102"

// costColumns are tried in order; the name depends on the API version and
// the account type
var costColumns = []string{columnCost, columnPreTaxCost, columnTotalCost}

// CostQuery selects the period of a cost query. From and To are only used
// with the Custom timeframe, which requires both.
type CostQuery struct {
	Timeframe string
	From      *time.Time
	To        *time.Time
}

// ResolveTimeframe matches name against Timeframes ignoring case. An empty
// name selects DefaultTimeframe.
func ResolveTimeframe(name string) (armcostmanagement.TimeframeType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultTimeframe, nil
	}
	for _, tf := range Timeframes {
		if strings.EqualFold(string(tf), name) {
			return tf, nil
		}
	}
	return "", toolerror.New(toolerror.KindInvalidTimeframe,
		"unsupported timeframe %q, expected one of %s", name, timeframeList())
}

func timeframeList() string {
	names := make([]string, len(Timeframes))
	for i, tf := range Timeframes {
		names[i] = string(tf)
	}
	return strings.Join(names, ", ")
}

// GetCosts returns the actual cost of a subscription per day over the
// requested timeframe. Rows of the same day are summed and the result is
// sorted by date. Mixed currencies fail the whole query.
func (c *Client) GetCosts(ctx context.Context, subscriptionID string, query CostQuery) (*model.CostQueryResult, error) {
	timeframe, err := ResolveTimeframe(query.Timeframe)
	if err != nil {
		return nil, err
	}
	queryDef, err := buildQueryDefinition(timeframe, query)
	if err != nil {
		return nil, err
	}

	if _, err := c.cred.Token(ctx); err != nil {
		return nil, err
	}

	c.logger.Debug("Querying Azure Cost Management API",
		"subscription_id", subscriptionID,
		"timeframe", timeframe,
		"current_time", c.clock.Now().Format("2006-01-02 15:04:05 MST"))

	scope := fmt.Sprintf("/subscriptions/%s", subscriptionID)
	pager := c.newCostPager(scope, queryDef)

	var (
		rows    []model.CostRow
		skipped int
		pages   int
	)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err, subscriptionScope, subscriptionID, "query costs")
		}
		pages++
		pageRows, pageSkipped, err := parseResponse(page)
		if err != nil {
			return nil, err
		}
		rows = append(rows, pageRows...)
		skipped += pageSkipped
	}

	if skipped > 0 {
		c.logger.Warn("Skipped unparseable cost rows",
			"subscription_id", subscriptionID,
			"skipped", skipped)
	}

	result, err := aggregate(rows)
	if err != nil {
		return nil, err
	}
	result.SubscriptionID = subscriptionID
	result.Timeframe = string(timeframe)

	c.logger.Debug("Cost query complete",
		"subscription_id", subscriptionID,
		"pages", pages,
		"days", len(result.Rows),
		"total", result.Total)

	return result, nil
}

// buildQueryDefinition requests actual cost summed per day without grouping
func buildQueryDefinition(timeframe armcostmanagement.TimeframeType, query CostQuery) (armcostmanagement.QueryDefinition, error) {
	queryDef := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(timeframe),
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				columnTotalCost: {
					Name:     to.Ptr(columnCost),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
		},
	}

	if timeframe != armcostmanagement.TimeframeTypeCustom {
		return queryDef, nil
	}

	if query.From == nil || query.To == nil {
		return queryDef, toolerror.New(toolerror.KindInvalidTimeframe,
			"timeframe %s requires an explicit start and end date", timeframe)
	}
	start := truncateToDay(*query.From)
	end := truncateToDay(*query.To)
	if end.Before(start) {
		return queryDef, toolerror.New(toolerror.KindInvalidTimeframe,
			"custom range ends (%s) before it starts (%s)", end.Format(model.DateLayout), start.Format(model.DateLayout))
	}
	queryDef.TimePeriod = &armcostmanagement.QueryTimePeriod{From: &start, To: &end}

	return queryDef, nil
}

// newCostPager fetches the first page with the SDK and follows nextLink by
// re-posting the same definition through the ARM pipeline
func (c *Client) newCostPager(scope string, queryDef armcostmanagement.QueryDefinition) *runtime.Pager[armcostmanagement.QueryResult] {
	return runtime.NewPager(runtime.PagingHandler[armcostmanagement.QueryResult]{
		More: func(page armcostmanagement.QueryResult) bool {
			return nextLink(page) != ""
		},
		Fetcher: func(ctx context.Context, page *armcostmanagement.QueryResult) (armcostmanagement.QueryResult, error) {
			if page == nil {
				resp, err := c.costs.Usage(ctx, scope, queryDef, nil)
				if err != nil {
					return armcostmanagement.QueryResult{}, err
				}
				return resp.QueryResult, nil
			}
			return c.fetchNextCostPage(ctx, nextLink(*page), queryDef)
		},
	})
}

func (c *Client) fetchNextCostPage(ctx context.Context, link string, queryDef armcostmanagement.QueryDefinition) (armcostmanagement.QueryResult, error) {
	var result armcostmanagement.QueryResult

	req, err := runtime.NewRequest(ctx, http.MethodPost, link)
	if err != nil {
		return result, err
	}
	if err := runtime.MarshalAsJSON(req, queryDef); err != nil {
		return result, err
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return result, err
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return result, runtime.NewResponseError(resp)
	}
	if err := runtime.UnmarshalAsJSON(resp, &result); err != nil {
		return result, err
	}
	return result, nil
}

func nextLink(page armcostmanagement.QueryResult) string {
	if page.Properties == nil || page.Properties.NextLink == nil {
		return ""
	}
	return *page.Properties.NextLink
}

// columnSet maps result column names to their position in each row
type columnSet map[string]int

func newColumnSet(columns []*armcostmanagement.QueryColumn) columnSet {
	set := make(columnSet, len(columns))
	for i, col := range columns {
		if col != nil && col.Name != nil {
			set[*col.Name] = i
		}
	}
	return set
}

// first returns the position of the first of names present in the result
func (cs columnSet) first(names ...string) (int, bool) {
	for _, name := range names {
		if idx, ok := cs[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// text returns the named cell as a string, "" when absent or null
func (cs columnSet) text(row []any, name string) string {
	idx, ok := cs[name]
	if !ok || idx >= len(row) || row[idx] == nil {
		return ""
	}
	if s, ok := row[idx].(string); ok {
		return s
	}
	return fmt.Sprint(row[idx])
}

// parseCost converts a cost cell to float64
func parseCost(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseUsageDate turns a UsageDate cell (20260115, "20260115" or
// "2026-01-15T00:00:00") into a UTC day. Only the first eight digits count.
func parseUsageDate(value any) (time.Time, bool) {
	var digits string
	switch v := value.(type) {
	case int:
		digits = strconv.Itoa(v)
	case int64:
		digits = strconv.FormatInt(v, 10)
	case float64:
		digits = strconv.FormatFloat(v, 'f', 0, 64)
	case json.Number:
		digits = onlyDigits(v.String())
	case string:
		digits = onlyDigits(v)
	default:
		return time.Time{}, false
	}
	if len(digits) < 8 {
		return time.Time{}, false
	}
	day, err := time.Parse(usageDateLayout, digits[:8])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// parseResponse converts one page of query results into cost rows. Rows
// that cannot be parsed are counted and left out.
func parseResponse(result armcostmanagement.QueryResult) ([]model.CostRow, int, error) {
	if result.Properties == nil || len(result.Properties.Rows) == 0 {
		return nil, 0, nil
	}

	columns := newColumnSet(result.Properties.Columns)
	costIdx, hasCost := columns.first(costColumns...)
	dateIdx, hasDate := columns.first(columnUsageDate)

	if !hasCost {
		return nil, 0, toolerror.New(toolerror.KindAPI, "cost query result has no %s column", columnCost)
	}
	if !hasDate {
		return nil, 0, toolerror.New(toolerror.KindAPI, "cost query result has no %s column", columnUsageDate)
	}

	rows := make([]model.CostRow, 0, len(result.Properties.Rows))
	skipped := 0
	for _, row := range result.Properties.Rows {
		if len(row) <= costIdx || len(row) <= dateIdx {
			skipped++
			continue
		}
		amount, ok := parseCost(row[costIdx])
		if !ok {
			skipped++
			continue
		}
		day, ok := parseUsageDate(row[dateIdx])
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, model.CostRow{
			Date:     day,
			Amount:   amount,
			Currency: columns.text(row, columnCurrency),
		})
	}

	return rows, skipped, nil
}

// aggregate sums rows per day and sorts them. All rows must share one
// currency.
func aggregate(rows []model.CostRow) (*model.CostQueryResult, error) {
	result := &model.CostQueryResult{}
	if len(rows) == 0 {
		return result, nil
	}

	currency := rows[0].Currency
	byDay := make(map[time.Time]int)
	daily := make([]model.CostRow, 0, len(rows))

	for _, row := range rows {
		if row.Currency != currency {
			return nil, toolerror.New(toolerror.KindCurrencyMismatch,
				"cost rows are reported in more than one currency (%s and %s)", currency, row.Currency)
		}
		if idx, ok := byDay[row.Date]; ok {
			daily[idx].Amount += row.Amount
			continue
		}
		byDay[row.Date] = len(daily)
		daily = append(daily, row)
	}

	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})

	for _, row := range daily {
		result.Total += row.Amount
	}
	result.Rows = daily
	result.Currency = currency

	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
