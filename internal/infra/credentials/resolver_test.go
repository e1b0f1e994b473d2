package credentials

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

func TestEnvSourceValidatesAtConstruction(t *testing.T) {
	_, err := NewEnvSource(domain.CallerContext{BaseURL: "https://api.voucherify.io"})
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))

	source, err := NewEnvSource(domain.CallerContext{
		AppID:    "app",
		AppToken: "token",
		BaseURL:  "https://api.voucherify.io",
	})
	require.NoError(t, err)

	caller, err := source.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app", caller.AppID)
}

func TestHeaderSourceResolvesFromRequestHeaders(t *testing.T) {
	source := NewHeaderSource("https://api.voucherify.io")

	header := http.Header{}
	header.Set("x-app-id", "app")
	header.Set("x-app-token", "token")
	ctx := WithHeaders(context.Background(), header)

	caller, err := source.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "app", caller.AppID)
	assert.Equal(t, "token", caller.AppToken)
	assert.Equal(t, "https://api.voucherify.io", caller.BaseURL)
}

func TestHeaderSourceBaseURLOverride(t *testing.T) {
	source := NewHeaderSource("https://api.voucherify.io")

	header := http.Header{}
	header.Set("x-app-id", "app")
	header.Set("x-app-token", "token")
	header.Set("x-voucherify-api-url", "https://eu.api.voucherify.io/")
	ctx := WithHeaders(context.Background(), header)

	caller, err := source.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://eu.api.voucherify.io", caller.BaseURL)
}

func TestHeaderSourceFailsClosed(t *testing.T) {
	source := NewHeaderSource("https://api.voucherify.io")

	// No headers captured at all.
	_, err := source.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))

	// Headers present but credentials missing.
	header := http.Header{}
	header.Set("x-app-id", "app")
	ctx := WithHeaders(context.Background(), header)
	_, err = source.Resolve(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))

	// Whitespace-only values are rejected, not trimmed into validity.
	header = http.Header{}
	header.Set("x-app-id", "   ")
	header.Set("x-app-token", "token")
	ctx = WithHeaders(context.Background(), header)
	_, err = source.Resolve(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
}
