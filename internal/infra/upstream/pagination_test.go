package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedServer serves a listing of n items under dataKey, honoring page and
// limit query parameters the way the upstream does.
func pagedServer(t *testing.T, dataKey string, n int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		require.Positive(t, page)
		require.Positive(t, limit)

		start := (page - 1) * limit
		items := []map[string]any{}
		for i := start; i < start+limit && i < n; i++ {
			items = append(items, map[string]any{"id": fmt.Sprintf("item_%d", i)})
		}
		json.NewEncoder(w).Encode(map[string]any{
			dataKey: items,
			"total": n,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestListPagesWalksAllPages(t *testing.T) {
	server := pagedServer(t, "redemptions", 5)
	client := testClient(t, 1)

	page, err := client.listPages(context.Background(), testCaller(server.URL), "/v1/redemptions", nil, "redemptions", 2, 100)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 5, page.Total)
	assert.False(t, page.HasMore)
	assert.Equal(t, "item_0", page.Items[0]["id"])
	assert.Equal(t, "item_4", page.Items[4]["id"])
}

func TestListPagesStopsAtMaxItems(t *testing.T) {
	server := pagedServer(t, "campaigns", 10)
	client := testClient(t, 1)

	page, err := client.listPages(context.Background(), testCaller(server.URL), "/v1/campaigns", nil, "campaigns", 3, 4)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
	assert.True(t, page.HasMore)
}

func TestListPagesEmptyListing(t *testing.T) {
	server := pagedServer(t, "campaigns", 0)
	client := testClient(t, 1)

	page, err := client.listPages(context.Background(), testCaller(server.URL), "/v1/campaigns", nil, "campaigns", 2, 100)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestListPagesPreservesBaseParams(t *testing.T) {
	var sawCampaign string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawCampaign = r.URL.Query().Get("campaign")
		json.NewEncoder(w).Encode(map[string]any{"redemptions": []any{}, "total": 0})
	}))
	t.Cleanup(server.Close)

	client := testClient(t, 1)
	_, err := client.ListRedemptions(context.Background(), testCaller(server.URL), map[string]any{"campaign": "BK-Sept-20OFF"}, 100)
	require.NoError(t, err)
	assert.Equal(t, "BK-Sept-20OFF", sawCampaign)
}
