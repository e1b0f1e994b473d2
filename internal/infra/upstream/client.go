// Package upstream wraps the Voucherify REST API. The client is stateless
// apart from its connection pool and is safe for concurrent use; every call
// takes the caller context explicitly, carries a bounded timeout, and maps
// upstream failures into the stable error taxonomy.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// Observer receives upstream request outcomes. Nil observers are allowed.
type Observer interface {
	UpstreamRequest(op, status string, elapsed time.Duration)
	UpstreamRetry(op string)
}

type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryPolicy
	logger     *zap.Logger
	observer   Observer
}

type Options struct {
	Timeout  time.Duration
	Retry    RetryPolicy
	Logger   *zap.Logger
	Observer Observer

	// Transport overrides the pooled default, used by tests.
	Transport http.RoundTripper
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultUpstreamTimeout
	}
	retry := opts.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
		timeout:    timeout,
		retry:      retry,
		logger:     logger.Named("upstream"),
		observer:   opts.Observer,
	}
}

type request struct {
	method   string
	path     string
	rawQuery string
	body     any

	// headers replaces the app-key auth headers, used by management-plane
	// calls that authenticate with management credentials instead.
	headers map[string]string
}

// do executes one upstream call with bounded retries. Only RATE_LIMITED and
// UNAVAILABLE failures are re-attempted, up to the policy's MaxAttempts in
// total, honoring any retry-after hint.
func (c *Client) do(ctx context.Context, caller domain.CallerContext, req request, out any) error {
	op := req.method + " " + req.path
	var lastErr *domain.Error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if c.observer != nil {
				c.observer.UpstreamRetry(op)
			}
			if err := sleep(ctx, c.retry.Delay(attempt-1, lastErr.RetryAfter)); err != nil {
				return domain.E(domain.CodeUnavailable, op, "canceled while waiting to retry", err)
			}
		}

		start := time.Now()
		err := c.doOnce(ctx, caller, req, out)
		elapsed := time.Since(start)
		if c.observer != nil {
			status := "ok"
			if err != nil {
				status = string(domain.CodeOf(err))
			}
			c.observer.UpstreamRequest(op, status, elapsed)
		}
		if err == nil {
			return nil
		}

		lastErr = domain.Wrap(domain.CodeInternal, op, err)
		if !lastErr.Retryable() {
			return lastErr
		}
		c.logger.Warn("upstream call failed, may retry",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, caller domain.CallerContext, req request, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := strings.TrimRight(caller.BaseURL, "/") + req.path
	if req.rawQuery != "" {
		u += "?" + req.rawQuery
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return domain.E(domain.CodeBadRequest, req.path, "encode request body", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.method, u, body)
	if err != nil {
		return domain.E(domain.CodeBadRequest, req.path, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(domain.HeaderChannelWire, domain.ChannelHeader)
	if req.headers != nil {
		for name, value := range req.headers {
			httpReq.Header.Set(name, value)
		}
	} else {
		httpReq.Header.Set(domain.HeaderAppIDWire, caller.AppID)
		httpReq.Header.Set(domain.HeaderTokenWire, caller.AppToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(req.path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return domain.E(domain.CodeUnavailable, req.path, "read response", err)
	}

	if resp.StatusCode >= 400 {
		return classifyStatus(req.path, resp, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return domain.E(domain.CodeUnavailable, req.path, "decode response", err)
	}
	return nil
}

func classifyTransportError(path string, err error) *domain.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.E(domain.CodeUnavailable, path, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return domain.E(domain.CodeUnavailable, path, "request canceled", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.E(domain.CodeUnavailable, path, "request timed out", err)
	}
	return domain.E(domain.CodeUnavailable, path, "connection failed", err)
}

func classifyStatus(path string, resp *http.Response, payload []byte) *domain.Error {
	msg := upstreamMessage(payload)
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return domain.E(domain.CodeBadRequest, path, msg, nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.E(domain.CodeUnauthenticated, path, msg, nil)
	case resp.StatusCode == http.StatusNotFound:
		return domain.E(domain.CodeNotFound, path, msg, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		e := domain.E(domain.CodeRateLimited, path, msg, nil)
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return e
	case resp.StatusCode >= 500:
		return domain.E(domain.CodeUnavailable, path, fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, msg), nil)
	default:
		return domain.E(domain.CodeBadRequest, path, fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, msg), nil)
	}
}

func upstreamMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Key     string `json:"key"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		if body.Details != "" {
			return body.Message + ": " + body.Details
		}
		return body.Message
	}
	text := strings.TrimSpace(string(payload))
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
