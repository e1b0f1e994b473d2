package domain

import "time"

const (
	DefaultAPIBaseURL = "https://api.voucherify.io"

	DefaultHTTPListenAddress = "127.0.0.1:10000"
	DefaultHTTPPath          = "/mcp/"

	DefaultUpstreamTimeout = 30 * time.Second
	DefaultMaxAttempts     = 3
	DefaultRetryBase       = 500 * time.Millisecond
	DefaultRetryMax        = 8 * time.Second

	DefaultPageLimit    = 100
	DefaultMaxListItems = 1000

	// ChannelHeader identifies this integration to the upstream API.
	ChannelHeader = "mcp-core-go"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

const (
	HeaderAppID       = "x-app-id"
	HeaderAppToken    = "x-app-token"
	HeaderBaseURL     = "x-voucherify-api-url"
	HeaderMgmtID      = "X-Management-Id"
	HeaderMgmtToken   = "X-Management-Token"
	HeaderAppIDWire   = "X-App-Id"
	HeaderTokenWire   = "X-App-Token"
	HeaderChannelWire = "X-Voucherify-Channel"
)
