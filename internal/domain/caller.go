package domain

import "strings"

// CallerContext carries the resolved upstream credentials for one request.
// It is immutable after resolution and never persisted.
type CallerContext struct {
	AppID    string
	AppToken string
	BaseURL  string
}

// Validate fails closed: a caller context with missing credentials must never
// reach the upstream client.
func (c CallerContext) Validate() error {
	var missing []string
	if strings.TrimSpace(c.AppID) == "" {
		missing = append(missing, "app id")
	}
	if strings.TrimSpace(c.AppToken) == "" {
		missing = append(missing, "app token")
	}
	if len(missing) > 0 {
		return E(CodeUnauthenticated, "caller", "missing "+strings.Join(missing, " and "), nil)
	}
	return nil
}
