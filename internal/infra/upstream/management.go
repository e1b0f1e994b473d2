package upstream

import (
	"context"
	"net/url"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// ManagementContext carries the organization-level credentials used to
// create and delete projects. Distinct from CallerContext on purpose: the
// management plane must never be reachable with per-request app keys.
type ManagementContext struct {
	ID      string
	Token   string
	BaseURL string
}

func (m ManagementContext) caller() domain.CallerContext {
	return domain.CallerContext{BaseURL: m.BaseURL}
}

func (m ManagementContext) headers() map[string]string {
	return map[string]string{
		domain.HeaderMgmtID:    m.ID,
		domain.HeaderMgmtToken: m.Token,
	}
}

// Project is the subset of a created project the test environment needs.
type Project struct {
	ID       string
	AppID    string
	AppToken string
}

// CreateProject provisions a new upstream project and returns its id and
// server-side key pair.
func (c *Client) CreateProject(ctx context.Context, mgmt ManagementContext, name, timezone, currency string) (Project, error) {
	body := Object{
		"name":                 name,
		"timezone":             timezone,
		"currency":             currency,
		"case_sensitive_codes": true,
	}
	var raw map[string]any
	err := c.do(ctx, mgmt.caller(), request{
		method:  "POST",
		path:    "/management/v1/projects",
		body:    body,
		headers: mgmt.headers(),
	}, &raw)
	if err != nil {
		return Project{}, err
	}

	project := Project{}
	project.ID, _ = raw["id"].(string)
	if key, ok := raw["server_side_key"].(map[string]any); ok {
		project.AppID, _ = key["app_id"].(string)
		project.AppToken, _ = key["app_token"].(string)
	}
	if project.ID == "" || project.AppID == "" || project.AppToken == "" {
		return Project{}, domain.E(domain.CodeUnavailable, "/management/v1/projects", "create project response missing id or server-side key", nil)
	}
	return project, nil
}

// DeleteProject removes a project. NOT_FOUND propagates; the caller decides
// whether a missing project is acceptable.
func (c *Client) DeleteProject(ctx context.Context, mgmt ManagementContext, projectID string) error {
	return c.do(ctx, mgmt.caller(), request{
		method:  "DELETE",
		path:    "/management/v1/projects/" + url.PathEscape(projectID),
		headers: mgmt.headers(),
	}, nil)
}

// The fixture creation calls below are used only by the test environment
// manager; payloads are passed through opaquely.

func (c *Client) CreateCustomer(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/customers", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSegment(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/segments", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/products", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProductCollection(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/product-collections", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateValidationRule(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/validation-rules", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCampaign(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/campaigns", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateVoucher(ctx context.Context, caller domain.CallerContext, code string, payload Object) (Object, error) {
	var out Object
	path := "/v1/vouchers/" + url.PathEscape(code)
	if err := c.do(ctx, caller, request{method: "POST", path: path, body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateLoyaltyProgram(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/loyalties", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePublication(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/publications", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Redeem(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/redemptions", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
