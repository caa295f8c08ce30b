package azure

import (
	"context"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/tim10002/mcp-azresource/internal/model"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

// ListResources enumerates the resource groups of a subscription and the
// resources inside each one. nameFilter, when non-empty, keeps only groups
// whose name contains it, ignoring case. Every page is read before
// returning.
func (c *Client) ListResources(ctx context.Context, subscriptionID, nameFilter string) (*model.ResourceQueryResult, error) {
	if _, err := c.cred.Token(ctx); err != nil {
		return nil, err
	}

	groupsClient, err := armresources.NewResourceGroupsClient(subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, toolerror.Wrap(toolerror.KindAPI, err, "failed to create resource groups client")
	}
	resourcesClient, err := armresources.NewClient(subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, toolerror.Wrap(toolerror.KindAPI, err, "failed to create resources client")
	}

	groups, err := c.listResourceGroups(ctx, groupsClient, subscriptionID)
	if err != nil {
		return nil, err
	}

	groups = filterGroups(groups, nameFilter)

	c.logger.Debug("Listing resources",
		"subscription_id", subscriptionID,
		"filter", nameFilter,
		"groups", len(groups))

	for i := range groups {
		resources, err := c.listGroupResources(ctx, resourcesClient, subscriptionID, groups[i].Name)
		if err != nil {
			return nil, err
		}
		groups[i].Resources = resources
	}

	return &model.ResourceQueryResult{
		SubscriptionID: subscriptionID,
		Filter:         nameFilter,
		Groups:         groups,
	}, nil
}

// listResourceGroups follows the group listing to exhaustion, keeping API
// order. Group names are case-insensitive; a repeated name keeps its first
// occurrence.
func (c *Client) listResourceGroups(ctx context.Context, client *armresources.ResourceGroupsClient, subscriptionID string) ([]model.ResourceGroup, error) {
	var groups []model.ResourceGroup
	seen := make(map[string]bool)

	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err, subscriptionScope, subscriptionID, "list resource groups")
		}
		for _, rg := range page.Value {
			if rg == nil {
				continue
			}
			name := deref(rg.Name)
			key := strings.ToLower(name)
			if seen[key] {
				c.logger.Warn("Duplicate resource group in listing, keeping first",
					"subscription_id", subscriptionID,
					"resource_group", name)
				continue
			}
			seen[key] = true
			groups = append(groups, model.ResourceGroup{
				Name:     name,
				Location: deref(rg.Location),
				Tags:     tagMap(rg.Tags),
			})
		}
	}

	return groups, nil
}

func (c *Client) listGroupResources(ctx context.Context, client *armresources.Client, subscriptionID, group string) ([]model.Resource, error) {
	var resources []model.Resource

	pager := client.NewListByResourceGroupPager(group, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err, groupScope, subscriptionID, "list resources in group "+group)
		}
		for _, res := range page.Value {
			if res == nil {
				continue
			}
			resources = append(resources, model.Resource{
				Name:     deref(res.Name),
				Type:     deref(res.Type),
				Location: deref(res.Location),
				Tags:     tagMap(res.Tags),
			})
		}
	}

	return resources, nil
}

// filterGroups keeps groups whose name contains filter, case-insensitively
func filterGroups(groups []model.ResourceGroup, filter string) []model.ResourceGroup {
	if filter == "" {
		return groups
	}
	needle := strings.ToLower(filter)
	filtered := make([]model.ResourceGroup, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), needle) {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func tagMap(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
