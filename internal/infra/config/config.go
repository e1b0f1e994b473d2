// Package config loads the startup configuration from the process
// environment. Everything here is read once; nothing is re-read at runtime.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

type Config struct {
	AppID    string
	AppToken string
	BaseURL  string

	Transport   string
	HTTPAddr    string
	HTTPPath    string
	MetricsAddr string

	UpstreamTimeout time.Duration
	MaxAttempts     int

	ManagementID    string
	ManagementToken string
	TestEnvPath     string
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("voucherify_api_base_url", domain.DefaultAPIBaseURL)
	v.SetDefault("mcp_transport", domain.TransportStreamableHTTP)
	v.SetDefault("mcp_http_addr", domain.DefaultHTTPListenAddress)
	v.SetDefault("mcp_http_path", domain.DefaultHTTPPath)
	v.SetDefault("upstream_timeout_seconds", int(domain.DefaultUpstreamTimeout/time.Second))
	v.SetDefault("upstream_max_attempts", domain.DefaultMaxAttempts)
	v.SetDefault("test_env_path", ".test-project.db")
	v.AutomaticEnv()
	return v
}

// Load reads configuration from environment variables with defaults applied.
func Load() (Config, error) {
	v := newEnvViper()

	cfg := Config{
		AppID:           v.GetString("voucherify_app_id"),
		AppToken:        v.GetString("voucherify_app_token"),
		BaseURL:         strings.TrimRight(v.GetString("voucherify_api_base_url"), "/"),
		Transport:       v.GetString("mcp_transport"),
		HTTPAddr:        v.GetString("mcp_http_addr"),
		HTTPPath:        v.GetString("mcp_http_path"),
		MetricsAddr:     v.GetString("metrics_addr"),
		UpstreamTimeout: time.Duration(v.GetInt("upstream_timeout_seconds")) * time.Second,
		MaxAttempts:     v.GetInt("upstream_max_attempts"),
		ManagementID:    v.GetString("voucherify_management_app_id"),
		ManagementToken: v.GetString("voucherify_management_app_token"),
		TestEnvPath:     v.GetString("test_env_path"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the startup-time invariants. Failures here are fatal to
// the process; nothing else is.
func (c Config) Validate() error {
	switch c.Transport {
	case domain.TransportStdio, domain.TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport: %q", c.Transport)
	}
	if c.Transport == domain.TransportStreamableHTTP {
		if strings.TrimSpace(c.HTTPAddr) == "" {
			return errors.New("http listen address is required for streamable-http transport")
		}
		if !strings.HasPrefix(c.HTTPPath, "/") {
			return fmt.Errorf("http path must start with /: %q", c.HTTPPath)
		}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("api base url is required")
	}
	if c.UpstreamTimeout <= 0 {
		return errors.New("upstream timeout must be > 0")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("upstream max attempts must be > 0")
	}
	return nil
}

// Credentials returns the process-environment caller context used by the
// stdio transport.
func (c Config) Credentials() domain.CallerContext {
	return domain.CallerContext{
		AppID:    c.AppID,
		AppToken: c.AppToken,
		BaseURL:  c.BaseURL,
	}
}
