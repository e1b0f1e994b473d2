// Package credentials resolves the caller context for one invocation. The
// two sources are mutually exclusive per transport: stdio sessions inherit
// the process environment once, HTTP requests must carry headers. There is
// no fallback from one source to the other.
package credentials

import (
	"context"
	"net/http"
	"strings"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// Source produces the caller context for the current invocation.
type Source interface {
	Resolve(ctx context.Context) (domain.CallerContext, error)
}

// EnvSource serves the stdio transport: credentials are captured once at
// process start and shared by every invocation on the connection.
type EnvSource struct {
	caller domain.CallerContext
}

// NewEnvSource validates the environment-derived context up front so a
// misconfigured stdio process fails at startup, not on the first call.
func NewEnvSource(caller domain.CallerContext) (*EnvSource, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	return &EnvSource{caller: caller}, nil
}

func (s *EnvSource) Resolve(context.Context) (domain.CallerContext, error) {
	return s.caller, nil
}

type headerKey struct{}

// WithHeaders stores the inbound request headers for later resolution. The
// HTTP adapter installs this; resolution is deferred to dispatch time so an
// authentication failure still produces a protocol-conformant payload.
func WithHeaders(ctx context.Context, header http.Header) context.Context {
	return context.WithValue(ctx, headerKey{}, header)
}

// HeaderSource serves the HTTP transport: every request is independently
// authenticated from its own headers.
type HeaderSource struct {
	defaultBaseURL string
}

func NewHeaderSource(defaultBaseURL string) *HeaderSource {
	return &HeaderSource{defaultBaseURL: strings.TrimRight(defaultBaseURL, "/")}
}

func (s *HeaderSource) Resolve(ctx context.Context) (domain.CallerContext, error) {
	header, _ := ctx.Value(headerKey{}).(http.Header)
	if header == nil {
		return domain.CallerContext{}, domain.E(domain.CodeUnauthenticated, "credentials", "no request headers present", nil)
	}
	caller := domain.CallerContext{
		AppID:    strings.TrimSpace(header.Get(domain.HeaderAppID)),
		AppToken: strings.TrimSpace(header.Get(domain.HeaderAppToken)),
		BaseURL:  s.defaultBaseURL,
	}
	if override := strings.TrimSpace(header.Get(domain.HeaderBaseURL)); override != "" {
		caller.BaseURL = strings.TrimRight(override, "/")
	}
	if err := caller.Validate(); err != nil {
		return domain.CallerContext{}, err
	}
	return caller, nil
}
