package azure

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/tim10002/mcp-azresource/internal/logger"
	"github.com/tim10002/mcp-azresource/internal/toolerror"
)

// mockCredential hands out a fixed token, or fails like auth.Provider does
type mockCredential struct {
	err        error
	tokenCalls int
}

func (m *mockCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if m.err != nil {
		return azcore.AccessToken{}, m.err
	}
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func (m *mockCredential) Token(ctx context.Context) (azcore.AccessToken, error) {
	m.tokenCalls++
	return m.GetToken(ctx, policy.TokenRequestOptions{})
}

// mockResponse is what mockTransport returns for a route
type mockResponse struct {
	status int
	body   string
	err    error
}

// mockTransport answers requests from routes keyed by "METHOD lower-case-path",
// optionally suffixed with "?skiptoken" for continuation pages
type mockTransport struct {
	mu       sync.Mutex
	routes   map[string]mockResponse
	requests []*http.Request
	bodies   []string
}

func newMockTransport() *mockTransport {
	return &mockTransport{routes: make(map[string]mockResponse)}
}

func (m *mockTransport) on(method, path string, resp mockResponse) {
	m.routes[method+" "+strings.ToLower(path)] = resp
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	body := ""
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	key := req.Method + " " + strings.ToLower(req.URL.Path)
	if token := req.URL.Query().Get("$skiptoken"); token != "" {
		key += "?" + token
	}

	resp, ok := m.routes[key]
	if !ok {
		resp = mockResponse{status: http.StatusNotFound, body: `{"error":{"code":"NoRoute","message":"` + key + `"}}`}
	}
	if resp.err != nil {
		return nil, resp.err
	}

	return &http.Response{
		StatusCode: resp.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Request:    req,
	}, nil
}

func (m *mockTransport) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func loadFixture(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", filename, err)
	}
	return string(data)
}

func okResponse(body string) mockResponse {
	return mockResponse{status: http.StatusOK, body: body}
}

func newTestClient(t *testing.T, transport *mockTransport, cred *mockCredential) *Client {
	t.Helper()
	if cred == nil {
		cred = &mockCredential{}
	}
	client, err := NewClient(cred, logger.New("error"), Options{Transport: transport})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func wantKind(t *testing.T, err error, kind toolerror.Kind) *toolerror.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", kind)
	}
	te, ok := toolerror.As(err)
	if !ok {
		t.Fatalf("error %v is not classified, want %s", err, kind)
	}
	if te.Kind != kind {
		t.Fatalf("error kind = %s, want %s (%v)", te.Kind, kind, err)
	}
	return te
}
