package azure

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tim10002/mcp-azresource/internal/model"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

const (
	groupsPath        = "/subscriptions/sub-1/resourcegroups"
	prodWebResources  = "/subscriptions/sub-1/resourceGroups/prod-web/resources"
	prodDataResources = "/subscriptions/sub-1/resourceGroups/PROD-data/resources"
	devWebResources   = "/subscriptions/sub-1/resourceGroups/dev-web/resources"
)

func newResourceTransport(t *testing.T) *mockTransport {
	transport := newMockTransport()
	transport.on(http.MethodGet, groupsPath, okResponse(loadFixture(t, "groups_page1.json")))
	transport.on(http.MethodGet, groupsPath+"?page2", okResponse(loadFixture(t, "groups_page2.json")))
	transport.on(http.MethodGet, prodWebResources, okResponse(loadFixture(t, "resources_prod_web.json")))
	transport.on(http.MethodGet, prodDataResources, okResponse(loadFixture(t, "resources_empty.json")))
	transport.on(http.MethodGet, devWebResources, okResponse(loadFixture(t, "resources_empty.json")))
	return transport
}

func TestListResources_FilterAcrossPages(t *testing.T) {
	client := newTestClient(t, newResourceTransport(t), nil)

	result, err := client.ListResources(context.Background(), "sub-1", "prod")
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}

	if result.SubscriptionID != "sub-1" || result.Filter != "prod" {
		t.Errorf("result header = %q/%q, want sub-1/prod", result.SubscriptionID, result.Filter)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("got %d groups, want 2: %+v", len(result.Groups), result.Groups)
	}

	// First page order, then second page; dev-web filtered out, duplicate dropped
	if result.Groups[0].Name != "prod-web" || result.Groups[1].Name != "PROD-data" {
		t.Errorf("group order = [%s %s], want [prod-web PROD-data]", result.Groups[0].Name, result.Groups[1].Name)
	}

	web := result.Groups[0]
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Location", web.Location, "westeurope"},
		{"Tag env", web.Tags["env"], "prod"},
		{"Tag owner", web.Tags["owner"], "web"},
		{"Resource count", len(web.Resources), 2},
		{"First resource", web.Resources[0].Name, "shop"},
		{"First type", web.Resources[0].Type, "Microsoft.Web/sites"},
		{"First tag", web.Resources[0].Tags["tier"], "frontend"},
		{"Second resource", web.Resources[1].Name, "shop-plan"},
		{"Second tags", len(web.Resources[1].Tags), 0},
		{"Empty group", len(result.Groups[1].Resources), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestListResources_NoFilterKeepsAllGroups(t *testing.T) {
	transport := newResourceTransport(t)
	client := newTestClient(t, transport, nil)

	result, err := client.ListResources(context.Background(), "sub-1", "")
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}

	want := []string{"prod-web", "dev-web", "PROD-data"}
	if len(result.Groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(result.Groups), len(want))
	}
	for i, name := range want {
		if result.Groups[i].Name != name {
			t.Errorf("group %d = %s, want %s", i, result.Groups[i].Name, name)
		}
	}

	// two group pages plus one resource listing per group
	if got := transport.requestCount(); got != 5 {
		t.Errorf("requests = %d, want 5", got)
	}
}

func TestListResources_NoMatchIsNotAnError(t *testing.T) {
	transport := newResourceTransport(t)
	client := newTestClient(t, transport, nil)

	result, err := client.ListResources(context.Background(), "sub-1", "staging")
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if len(result.Groups) != 0 {
		t.Errorf("got %d groups, want 0", len(result.Groups))
	}
	if got := transport.requestCount(); got != 2 {
		t.Errorf("requests = %d, want 2 (group pages only)", got)
	}
}

func TestListResources_GroupResourcesAcrossPages(t *testing.T) {
	transport := newResourceTransport(t)
	transport.on(http.MethodGet, prodWebResources, okResponse(loadFixture(t, "resources_prod_web_page1.json")))
	transport.on(http.MethodGet, prodWebResources+"?web2", okResponse(loadFixture(t, "resources_prod_web_page2.json")))
	client := newTestClient(t, transport, nil)

	result, err := client.ListResources(context.Background(), "sub-1", "prod-web")
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}

	want := []string{"shop", "shop-plan", "shop-db", "shop-cache"}
	got := result.Groups[0].Resources
	if len(got) != len(want) {
		t.Fatalf("got %d resources, want %d: %+v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("resource %d = %s, want %s", i, got[i].Name, name)
		}
	}
	if got[3].Tags["tier"] != "cache" {
		t.Errorf("second page tags = %v", got[3].Tags)
	}

	// two group pages plus two resource pages
	if n := transport.requestCount(); n != 4 {
		t.Errorf("requests = %d, want 4", n)
	}
}

func TestListResources_DuplicateGroupNamesIgnoreCase(t *testing.T) {
	transport := newMockTransport()
	transport.on(http.MethodGet, groupsPath, okResponse(loadFixture(t, "groups_case_duplicates.json")))
	transport.on(http.MethodGet, "/subscriptions/sub-1/resourceGroups/Shared-RG/resources", okResponse(loadFixture(t, "resources_empty.json")))
	transport.on(http.MethodGet, "/subscriptions/sub-1/resourceGroups/other/resources", okResponse(loadFixture(t, "resources_empty.json")))
	client := newTestClient(t, transport, nil)

	result, err := client.ListResources(context.Background(), "sub-1", "")
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("got %d groups, want 2: %+v", len(result.Groups), result.Groups)
	}
	if result.Groups[0].Name != "Shared-RG" || result.Groups[0].Location != "westeurope" {
		t.Errorf("first group = %+v, want the first occurrence Shared-RG/westeurope", result.Groups[0])
	}
	if result.Groups[1].Name != "other" {
		t.Errorf("second group = %s, want other", result.Groups[1].Name)
	}
}

func TestListResources_SubscriptionNotFound(t *testing.T) {
	tests := []struct {
		name string
		resp mockResponse
	}{
		{"error code", mockResponse{status: http.StatusNotFound, body: `{"error":{"code":"SubscriptionNotFound","message":"The subscription 'sub-1' could not be found."}}`}},
		{"invalid id", mockResponse{status: http.StatusBadRequest, body: `{"error":{"code":"InvalidSubscriptionId","message":"The provided subscription identifier 'sub-1' is malformed or invalid."}}`}},
		{"forbidden", mockResponse{status: http.StatusForbidden, body: `{"error":{"code":"AuthorizationFailed","message":"no access"}}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newMockTransport()
			transport.on(http.MethodGet, groupsPath, tt.resp)
			client := newTestClient(t, transport, nil)

			_, err := client.ListResources(context.Background(), "sub-1", "")
			wantKind(t, err, toolerror.KindSubscriptionNotFound)
		})
	}
}

func TestListResources_ApiErrorKeepsStatusAndBody(t *testing.T) {
	transport := newResourceTransport(t)
	body := `{"error":{"code":"InternalServerError","message":"try later"}}`
	transport.on(http.MethodGet, prodWebResources, mockResponse{status: http.StatusInternalServerError, body: body})
	client := newTestClient(t, transport, nil)

	_, err := client.ListResources(context.Background(), "sub-1", "prod")
	te := wantKind(t, err, toolerror.KindAPI)
	if te.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", te.Status)
	}
	if te.Body != body {
		t.Errorf("Body = %q, want %q", te.Body, body)
	}

	// SDK retries are disabled: one request per call
	if got := transport.requestCount(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

func TestListResources_GroupNotFoundIsApiError(t *testing.T) {
	transport := newResourceTransport(t)
	transport.on(http.MethodGet, prodWebResources, mockResponse{status: http.StatusNotFound, body: `{"error":{"code":"ResourceGroupNotFound","message":"gone"}}`})
	client := newTestClient(t, transport, nil)

	_, err := client.ListResources(context.Background(), "sub-1", "prod-web")
	te := wantKind(t, err, toolerror.KindAPI)
	if te.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", te.Status)
	}
}

func TestListResources_AuthFailurePropagates(t *testing.T) {
	transport := newResourceTransport(t)
	cred := &mockCredential{err: toolerror.Wrap(toolerror.KindAuthFailure, errors.New("invalid secret"), "failed to acquire access token")}
	client := newTestClient(t, transport, cred)

	_, err := client.ListResources(context.Background(), "sub-1", "")
	wantKind(t, err, toolerror.KindAuthFailure)
	if got := transport.requestCount(); got != 0 {
		t.Errorf("requests = %d, want 0 after a failed token", got)
	}
}

func TestListResources_TransportTimeout(t *testing.T) {
	transport := newMockTransport()
	transport.on(http.MethodGet, groupsPath, mockResponse{err: context.DeadlineExceeded})
	client := newTestClient(t, transport, nil)

	_, err := client.ListResources(context.Background(), "sub-1", "")
	te := wantKind(t, err, toolerror.KindAPI)
	if te.Status != 0 {
		t.Errorf("Status = %d, want 0 for a timeout", te.Status)
	}
}

func TestFilterGroups(t *testing.T) {
	tests := []struct {
		filter string
		want   int
	}{
		{"", 3},
		{"prod", 2},
		{"PROD", 2},
		{"web", 1},
		{"none", 0},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			in := []model.ResourceGroup{{Name: "Prod-Web"}, {Name: "dev"}, {Name: "preprod"}}
			if got := len(filterGroups(in, tt.filter)); got != tt.want {
				t.Errorf("filterGroups(%q) kept %d, want %d", tt.filter, got, tt.want)
			}
		})
	}
}
