package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/config"
	"github.com/voucherifyio/core-mcp/internal/infra/credentials"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

func TestNewRegistersFullCatalog(t *testing.T) {
	srv, err := New(Options{
		Config:   config.Config{},
		Upstream: upstream.NewClient(upstream.Options{}),
	})
	require.NoError(t, err)

	reg := srv.Registry()
	assert.Equal(t, 14, reg.Len())

	for _, name := range []string{"get_voucher", "qualifications", "export_redemptions"} {
		_, err := reg.Lookup(name)
		assert.NoError(t, err)
	}
	for _, descriptor := range reg.Descriptors() {
		assert.NotEmpty(t, descriptor.Description)
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/mcp", normalizePath("/mcp/"))
	assert.Equal(t, "/mcp", normalizePath("/mcp"))
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "/", normalizePath(""))
}

func emptySchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
}

func envSource(t *testing.T) credentials.Source {
	t.Helper()
	source, err := credentials.NewEnvSource(domain.CallerContext{
		AppID:    "app",
		AppToken: "token",
		BaseURL:  "https://api.voucherify.io",
	})
	require.NoError(t, err)
	return source
}

// connectInMemory wires a client session to the server's MCP surface over the
// in-memory transport pair, the same single-session machinery the stdio
// transport runs on.
func connectInMemory(t *testing.T, ctx context.Context, srv *Server, source credentials.Source) *mcp.ClientSession {
	t.Helper()
	ct, st := mcp.NewInMemoryTransports()
	_, err := srv.buildMCP(source).Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestSessionRespondsInRequestOrder(t *testing.T) {
	ctx := context.Background()
	slowStarted := make(chan struct{})

	reg := registry.New()
	require.NoError(t, reg.Register(registry.Descriptor{
		Name:   "slow_report",
		Schema: emptySchema(),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			close(slowStarted)
			time.Sleep(200 * time.Millisecond)
			return map[string]any{"report": "done"}, nil
		},
	}))
	require.NoError(t, reg.Register(registry.Descriptor{
		Name:   "fast_lookup",
		Schema: emptySchema(),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			return map[string]any{"lookup": "done"}, nil
		},
	}))

	srv := &Server{cfg: config.Config{}, logger: zap.NewNop(), registry: reg}
	session := connectInMemory(t, ctx, srv, envSource(t))

	completed := make(chan string, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "slow_report"})
		if assert.NoError(t, err) {
			assert.False(t, res.IsError)
		}
		completed <- "slow_report"
	}()

	// Submit the fast call only after the slow one is being handled.
	<-slowStarted
	go func() {
		defer wg.Done()
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "fast_lookup"})
		if assert.NoError(t, err) {
			assert.False(t, res.IsError)
		}
		completed <- "fast_lookup"
	}()

	wg.Wait()
	assert.Equal(t, "slow_report", <-completed)
	assert.Equal(t, "fast_lookup", <-completed)
}

// headerRoundTripper injects the per-request credential headers the way a
// real MCP client would.
type headerRoundTripper struct {
	appID    string
	appToken string
}

func (h headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if h.appID != "" {
		req.Header.Set("x-app-id", h.appID)
		req.Header.Set("x-app-token", h.appToken)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func newStreamableFixture(t *testing.T, upstreamHandler http.Handler) (string, *httptest.Server) {
	t.Helper()
	upstreamFake := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstreamFake.Close)

	srv, err := New(Options{
		Config: config.Config{
			BaseURL:  upstreamFake.URL,
			HTTPPath: domain.DefaultHTTPPath,
		},
		Upstream: upstream.NewClient(upstream.Options{
			Timeout: 5 * time.Second,
			Retry:   upstream.RetryPolicy{MaxAttempts: 1, Base: time.Millisecond, Max: time.Millisecond},
		}),
	})
	require.NoError(t, err)

	web := httptest.NewServer(srv.streamableHandler(credentials.NewHeaderSource(upstreamFake.URL)))
	t.Cleanup(web.Close)
	return web.URL + domain.DefaultHTTPPath, web
}

func connectStreamable(t *testing.T, ctx context.Context, endpoint string, rt http.RoundTripper) *mcp.ClientSession {
	t.Helper()
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Transport: rt},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestStreamableHTTPHeadersReachUpstream(t *testing.T) {
	ctx := context.Background()
	var gotAppID, gotToken string
	endpoint, _ := newStreamableFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAppID = r.Header.Get("X-App-Id")
		gotToken = r.Header.Get("X-App-Token")
		w.Write([]byte(`{"id":"v_1","code":"WELCOME10"}`))
	}))

	session := connectStreamable(t, ctx, endpoint, headerRoundTripper{appID: "app", appToken: "token"})
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_voucher",
		Arguments: map[string]any{"identifier": "WELCOME10"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, "app", gotAppID)
	assert.Equal(t, "token", gotToken)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "WELCOME10")
}

func TestStreamableHTTPMissingCredentials(t *testing.T) {
	ctx := context.Background()
	var upstreamCalls atomic.Int32
	endpoint, _ := newStreamableFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		w.Write([]byte(`{}`))
	}))

	session := connectStreamable(t, ctx, endpoint, headerRoundTripper{})
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_voucher",
		Arguments: map[string]any{"identifier": "WELCOME10"},
	})
	// The failure is a structured payload inside a valid result envelope, not
	// a transport error.
	require.NoError(t, err)
	require.True(t, res.IsError)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var envelope domain.ToolErrorEnvelope
	require.NoError(t, json.Unmarshal([]byte(text.Text), &envelope))
	assert.Equal(t, domain.CodeUnauthenticated, envelope.Error.Kind)
	assert.Equal(t, int32(0), upstreamCalls.Load())
}

func TestStreamableHTTPUnknownPath(t *testing.T) {
	_, web := newStreamableFixture(t, http.NotFoundHandler())

	resp, err := http.Get(web.URL + "/other")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunStreamableHTTPStopsOnContextCancel(t *testing.T) {
	srv, err := New(Options{
		Config: config.Config{
			BaseURL:  "https://api.voucherify.io",
			HTTPAddr: "127.0.0.1:0",
			HTTPPath: domain.DefaultHTTPPath,
		},
		Upstream: upstream.NewClient(upstream.Options{}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.RunStreamableHTTP(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
