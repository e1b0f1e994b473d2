// Package dispatch is the core of the server: it turns one decoded tool
// invocation into a protocol-conformant result or structured error. The
// dispatcher holds no mutable state between calls; concurrent dispatches
// share only the read-only registry and the pooled upstream client behind
// the handlers.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/credentials"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
)

// Observer receives dispatch outcomes. Nil observers are allowed.
type Observer interface {
	DispatchObserved(tool, status string, elapsed time.Duration)
}

type Dispatcher struct {
	registry *registry.Registry
	source   credentials.Source
	logger   *zap.Logger
	observer Observer
}

func New(reg *registry.Registry, source credentials.Source, logger *zap.Logger, observer Observer) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry: reg,
		source:   source,
		logger:   logger.Named("dispatch"),
		observer: observer,
	}
}

// Dispatch runs the full pipeline: decode, authenticate, lookup, validate,
// invoke, encode. Every failure becomes a structured error payload inside a
// valid result envelope; the session is never torn down by a bad call.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Invocation) *mcp.CallToolResult {
	start := time.Now()
	result, code := d.dispatch(ctx, inv)
	if d.observer != nil {
		status := "ok"
		if code != "" {
			status = string(code)
		}
		d.observer.DispatchObserved(inv.Tool, status, time.Since(start))
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, inv domain.Invocation) (*mcp.CallToolResult, domain.ErrorCode) {
	if inv.Tool == "" {
		return d.errorResult(inv, domain.E(domain.CodeProtocol, "dispatch", "tool name is required", nil))
	}

	var args map[string]any
	if len(inv.Args) > 0 {
		if err := json.Unmarshal(inv.Args, &args); err != nil {
			return d.errorResult(inv, domain.E(domain.CodeProtocol, "dispatch", "arguments are not a JSON object", err))
		}
	}

	caller, err := d.source.Resolve(ctx)
	if err != nil {
		return d.errorResult(inv, domain.Wrap(domain.CodeUnauthenticated, "dispatch", err))
	}

	descriptor, err := d.registry.Lookup(inv.Tool)
	if err != nil {
		return d.errorResult(inv, domain.Wrap(domain.CodeNotFound, "dispatch", err))
	}

	validated, verr := registry.ValidateArgs(descriptor.Schema, args)
	if verr != nil {
		return d.errorResult(inv, verr)
	}

	payload, err := descriptor.Handler(ctx, caller, validated)
	if err != nil {
		return d.errorResult(inv, normalize(err))
	}
	return d.successResult(inv, payload)
}

func (d *Dispatcher) successResult(inv domain.Invocation, payload any) (*mcp.CallToolResult, domain.ErrorCode) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return d.errorResult(inv, domain.E(domain.CodeInternal, "dispatch", "encode result", err))
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(body)}},
		StructuredContent: payload,
	}, ""
}

func (d *Dispatcher) errorResult(inv domain.Invocation, derr *domain.Error) (*mcp.CallToolResult, domain.ErrorCode) {
	envelope := domain.EncodeToolError(derr)
	d.logger.Debug("tool call failed",
		zap.String("tool", inv.Tool),
		zap.String("kind", string(derr.Code)),
		zap.String("message", envelope.Error.Message))

	body, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		body = []byte(`{"error":{"kind":"INTERNAL","message":"failed to encode error"}}`)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(body)}},
		StructuredContent: envelope,
		IsError:           true,
	}, derr.Code
}

// normalize maps any handler failure to a stable error kind before encoding.
func normalize(err error) *domain.Error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr
	}
	return domain.E(domain.CodeInternal, "dispatch", "", err)
}
