package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := E(CodeNotFound, "/v1/vouchers", "voucher not found", nil)
	assert.Equal(t, "/v1/vouchers: NOT_FOUND: voucher not found", err.Error())

	bare := &Error{Code: CodeInternal}
	assert.Equal(t, "INTERNAL", bare.Error())
}

func TestWrapPreservesClassifiedErrors(t *testing.T) {
	original := E(CodeRateLimited, "GET /v1/customers", "slow down", nil)
	original.RetryAfter = 2 * time.Second

	wrapped := Wrap(CodeInternal, "dispatch", original)
	assert.Equal(t, CodeRateLimited, wrapped.Code)
	assert.Equal(t, 2*time.Second, wrapped.RetryAfter)
	assert.Equal(t, "GET /v1/customers", wrapped.Op)
}

func TestWrapAddsOpWithoutMutating(t *testing.T) {
	original := E(CodeNotFound, "", "gone", nil)
	wrapped := Wrap(CodeInternal, "lookup", original)

	assert.Equal(t, "lookup", wrapped.Op)
	assert.Empty(t, original.Op)
	assert.Equal(t, CodeNotFound, wrapped.Code)
}

func TestWrapUnclassified(t *testing.T) {
	wrapped := Wrap(CodeUnavailable, "op", errors.New("boom"))
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeUnavailable, wrapped.Code)
	assert.ErrorContains(t, wrapped, "boom")
}

func TestRetryable(t *testing.T) {
	assert.True(t, E(CodeRateLimited, "", "", nil).Retryable())
	assert.True(t, E(CodeUnavailable, "", "", nil).Retryable())
	assert.False(t, E(CodeNotFound, "", "", nil).Retryable())
	assert.False(t, E(CodeBadRequest, "", "", nil).Retryable())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(E(CodeNotFound, "", "", nil)))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("mystery")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestEncodeToolError(t *testing.T) {
	err := E(CodeInvalidArgument, "validate", "invalid arguments: a: required", nil)
	err.Fields = []string{"a"}

	env := EncodeToolError(err)
	assert.Equal(t, CodeInvalidArgument, env.Error.Kind)
	assert.Equal(t, []string{"a"}, env.Error.Fields)
	assert.Zero(t, env.Error.RetryAfterMS)

	limited := E(CodeRateLimited, "op", "slow down", nil)
	limited.RetryAfter = 1500 * time.Millisecond
	env = EncodeToolError(limited)
	assert.Equal(t, int64(1500), env.Error.RetryAfterMS)
}

func TestCallerContextValidate(t *testing.T) {
	err := CallerContext{BaseURL: "https://api.example.com"}.Validate()
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeUnauthenticated, derr.Code)

	ok := CallerContext{AppID: "app", AppToken: "token", BaseURL: "https://api.example.com"}
	assert.NoError(t, ok.Validate())
}
