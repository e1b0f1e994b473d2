package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

func testClient(t *testing.T, maxAttempts int) *Client {
	t.Helper()
	return NewClient(Options{
		Timeout: 5 * time.Second,
		Retry: RetryPolicy{
			MaxAttempts: maxAttempts,
			Base:        time.Millisecond,
			Max:         5 * time.Millisecond,
		},
	})
}

func testCaller(baseURL string) domain.CallerContext {
	return domain.CallerContext{AppID: "app", AppToken: "token", BaseURL: baseURL}
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotAppID, gotToken, gotChannel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAppID = r.Header.Get("X-App-Id")
		gotToken = r.Header.Get("X-App-Token")
		gotChannel = r.Header.Get("X-Voucherify-Channel")
		w.Write([]byte(`{"id":"v_1","code":"WELCOME10"}`))
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 1)
	voucher, err := client.GetVoucher(context.Background(), testCaller(server.URL), "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, "app", gotAppID)
	assert.Equal(t, "token", gotToken)
	assert.Equal(t, domain.ChannelHeader, gotChannel)
	assert.Equal(t, "WELCOME10", voucher["code"])
}

func TestClientRetriesExactlyMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"internal"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 3)
	_, err := client.GetVoucher(context.Background(), testCaller(server.URL), "CODE")
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnavailable, domain.CodeOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryNonRetryable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"no such voucher"}`, http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 3)
	_, err := client.GetVoucher(context.Background(), testCaller(server.URL), "BK-4829")
	require.Error(t, err)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientRecoversAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, `{"message":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id":"v_1"}`))
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 3)
	voucher, err := client.GetVoucher(context.Background(), testCaller(server.URL), "CODE")
	require.NoError(t, err)
	assert.Equal(t, "v_1", voucher["id"])
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   domain.ErrorCode
	}{
		{http.StatusBadRequest, domain.CodeBadRequest},
		{http.StatusUnauthorized, domain.CodeUnauthenticated},
		{http.StatusForbidden, domain.CodeUnauthenticated},
		{http.StatusNotFound, domain.CodeNotFound},
		{http.StatusServiceUnavailable, domain.CodeUnavailable},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"nope"}`, tc.status)
		}))
		client := testClient(t, 1)
		_, err := client.GetCampaign(context.Background(), testCaller(server.URL), "camp_1")
		server.Close()
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.code, domain.CodeOf(err), "status %d", tc.status)
	}
}

func TestClientRateLimitCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		http.Error(w, `{"message":"slow down"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 1)
	_, err := client.GetCampaign(context.Background(), testCaller(server.URL), "camp_1")
	require.Error(t, err)

	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeRateLimited, derr.Code)
	assert.Equal(t, 7*time.Second, derr.RetryAfter)
}

func TestClientUpstreamMessageSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"voucher not found","details":"code BK-4829"}`, http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 1)
	_, err := client.GetVoucher(context.Background(), testCaller(server.URL), "BK-4829")
	require.Error(t, err)
	assert.ErrorContains(t, err, "voucher not found")
	assert.ErrorContains(t, err, "code BK-4829")
}

func TestClientConnectionFailure(t *testing.T) {
	client := testClient(t, 1)
	_, err := client.GetVoucher(context.Background(), testCaller("http://127.0.0.1:1"), "CODE")
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnavailable, domain.CodeOf(err))
}

func TestManagementHeadersReplaceAppAuth(t *testing.T) {
	var gotMgmtID, gotMgmtToken, gotAppID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMgmtID = r.Header.Get("X-Management-Id")
		gotMgmtToken = r.Header.Get("X-Management-Token")
		gotAppID = r.Header.Get("X-App-Id")
		w.Write([]byte(`{"id":"proj_1","server_side_key":{"app_id":"app","app_token":"token"}}`))
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 1)
	mgmt := ManagementContext{ID: "mgmt-id", Token: "mgmt-token", BaseURL: server.URL}
	project, err := client.CreateProject(context.Background(), mgmt, "Test", "Europe/Warsaw", "USD")
	require.NoError(t, err)
	assert.Equal(t, "mgmt-id", gotMgmtID)
	assert.Equal(t, "mgmt-token", gotMgmtToken)
	assert.Empty(t, gotAppID)
	assert.Equal(t, "proj_1", project.ID)
	assert.Equal(t, "app", project.AppID)
}

func TestCreateProjectRejectsMissingKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"proj_1"}`))
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 1)
	mgmt := ManagementContext{ID: "id", Token: "token", BaseURL: server.URL}
	_, err := client.CreateProject(context.Background(), mgmt, "Test", "Europe/Warsaw", "USD")
	require.Error(t, err)
	assert.ErrorContains(t, err, "server-side key")
}
