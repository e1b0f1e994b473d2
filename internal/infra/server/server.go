// Package server assembles the MCP surface: the tool catalog, the
// dispatcher, and the stdio and streamable HTTP transports.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/config"
	"github.com/voucherifyio/core-mcp/internal/infra/credentials"
	"github.com/voucherifyio/core-mcp/internal/infra/dispatch"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/tools"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

const (
	serverName    = "voucherify-core-mcp"
	serverVersion = "0.1.0"
)

type Options struct {
	Config config.Config
	Logger *zap.Logger

	// Metrics observes dispatches; it usually also serves as the upstream
	// observer passed through Upstream. Nil disables observation.
	Metrics dispatch.Observer

	// Upstream overrides the default client construction, used by tests.
	Upstream *upstream.Client
}

type Server struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *registry.Registry
	metrics  dispatch.Observer
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := opts.Upstream
	if client == nil {
		var observer upstream.Observer
		if o, ok := opts.Metrics.(upstream.Observer); ok {
			observer = o
		}
		retry := upstream.DefaultRetryPolicy()
		if opts.Config.MaxAttempts > 0 {
			retry.MaxAttempts = opts.Config.MaxAttempts
		}
		client = upstream.NewClient(upstream.Options{
			Timeout:  opts.Config.UpstreamTimeout,
			Retry:    retry,
			Logger:   logger,
			Observer: observer,
		})
	}

	reg := registry.New()
	if err := tools.Register(reg, client); err != nil {
		return nil, fmt.Errorf("register tool catalog: %w", err)
	}

	return &Server{
		cfg:      opts.Config,
		logger:   logger.Named("server"),
		registry: reg,
		metrics:  opts.Metrics,
	}, nil
}

// Registry exposes the catalog for tests and startup logging.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// buildMCP constructs an mcp.Server whose tools funnel into one dispatcher
// bound to the given credential source.
func (s *Server) buildMCP(source credentials.Source) *mcp.Server {
	dispatcher := dispatch.New(s.registry, source, s.logger, s.metrics)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	for _, descriptor := range s.registry.Descriptors() {
		tool := &mcp.Tool{
			Name:        descriptor.Name,
			Description: descriptor.Description,
			InputSchema: descriptor.Schema,
		}
		mcpServer.AddTool(tool, s.toolHandler(dispatcher, descriptor.Name))
	}
	return mcpServer
}

func (s *Server) toolHandler(dispatcher *dispatch.Dispatcher, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inv := domain.Invocation{
			Tool: name,
			Args: json.RawMessage(req.Params.Arguments),
		}
		return dispatcher.Dispatch(ctx, inv), nil
	}
}

// RunStdio serves a single FIFO session over stdin/stdout. Credentials come
// from the environment and are validated before the session starts.
func (s *Server) RunStdio(ctx context.Context) error {
	source, err := credentials.NewEnvSource(s.cfg.Credentials())
	if err != nil {
		return err
	}
	mcpServer := s.buildMCP(source)

	s.logger.Info("serving on stdio", zap.Int("tools", s.registry.Len()))
	return mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// RunStreamableHTTP serves concurrent sessions over streamable HTTP.
// Credentials arrive per request in the x-app-id and x-app-token headers and
// are captured into the request context here; resolution happens at dispatch
// so that missing credentials produce a structured tool error, not a
// transport failure.
func (s *Server) RunStreamableHTTP(ctx context.Context) error {
	source := credentials.NewHeaderSource(s.cfg.BaseURL)

	httpServer := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.streamableHandler(source),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("serving on streamable http",
			zap.String("addr", httpServer.Addr),
			zap.String("path", s.cfg.HTTPPath),
			zap.Int("tools", s.registry.Len()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mcp server failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("mcp server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("mcp server stopped")
		return nil
	}
}

// streamableHandler serves the configured path only, capturing each request's
// headers into its context before handing it to the MCP handler.
func (s *Server) streamableHandler(source credentials.Source) http.Handler {
	mcpServer := s.buildMCP(source)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	path := normalizePath(s.cfg.HTTPPath)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if normalizePath(r.URL.Path) != path {
			http.NotFound(w, r)
			return
		}
		reqCtx := credentials.WithHeaders(r.Context(), r.Header)
		mcpHandler.ServeHTTP(w, r.WithContext(reqCtx))
	})
}

// Run starts the transport named by the configuration.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case domain.TransportStdio:
		return s.RunStdio(ctx)
	case domain.TransportStreamableHTTP:
		return s.RunStreamableHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Transport)
	}
}

func normalizePath(p string) string {
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "/"
	}
	return p
}
