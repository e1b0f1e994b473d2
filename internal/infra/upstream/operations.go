package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// GetCustomer reads one customer by id or source id.
func (c *Client) GetCustomer(ctx context.Context, caller domain.CallerContext, id string) (Object, error) {
	var out Object
	path := "/v1/customers/" + url.PathEscape(id)
	if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindCustomerByEmail searches the customer listing and returns the first
// match, or NOT_FOUND when the address is unknown.
func (c *Client) FindCustomerByEmail(ctx context.Context, caller domain.CallerContext, email string) (Object, error) {
	query := EncodeQuery(map[string]any{"limit": 1, "email": email})
	var raw map[string]any
	if err := c.do(ctx, caller, request{method: "GET", path: "/v1/customers", rawQuery: query}, &raw); err != nil {
		return nil, err
	}
	customers := extractItems(raw, "customers")
	if len(customers) == 0 {
		return nil, domain.E(domain.CodeNotFound, "/v1/customers", fmt.Sprintf("customer with email %q not found", email), nil)
	}
	return customers[0], nil
}

// CountCustomersInSegment returns the upstream total of customers currently
// in the segment, without materializing the membership.
func (c *Client) CountCustomersInSegment(ctx context.Context, caller domain.CallerContext, segmentID string) (int, error) {
	query := EncodeQuery(map[string]any{
		"limit": 1,
		"filters": map[string]any{
			"junction": "and",
			"segment_id": map[string]any{
				"conditions": map[string]any{"$is": segmentID},
			},
		},
	})
	var raw map[string]any
	if err := c.do(ctx, caller, request{method: "GET", path: "/v1/customers", rawQuery: query}, &raw); err != nil {
		return 0, err
	}
	total, ok := toInt(raw["total"])
	if !ok {
		return 0, domain.E(domain.CodeUnavailable, "/v1/customers", "listing response missing total", nil)
	}
	return total, nil
}

// FindSegment resolves a segment by id (seg_ prefix) or by exact name.
func (c *Client) FindSegment(ctx context.Context, caller domain.CallerContext, idOrName string) (Object, error) {
	if strings.HasPrefix(idOrName, "seg_") {
		var out Object
		path := "/v1/segments/" + url.PathEscape(idOrName)
		if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var raw map[string]any
	if err := c.do(ctx, caller, request{method: "GET", path: "/v1/segments"}, &raw); err != nil {
		return nil, err
	}
	for _, seg := range extractItems(raw, "segments") {
		if name, _ := seg["name"].(string); name == idOrName {
			return seg, nil
		}
	}
	return nil, domain.E(domain.CodeNotFound, "/v1/segments", fmt.Sprintf("segment %q not found", idOrName), nil)
}

// ListCampaigns collects the campaign catalog, auto-paginating up to the
// configured maximum.
func (c *Client) ListCampaigns(ctx context.Context, caller domain.CallerContext, maxItems int) (ListPage, error) {
	return c.listPages(ctx, caller, "/v1/campaigns", nil, "campaigns", domain.DefaultPageLimit, maxItems)
}

// GetCampaign reads one campaign by id.
func (c *Client) GetCampaign(ctx context.Context, caller domain.CallerContext, campaignID string) (Object, error) {
	var out Object
	path := "/v1/campaigns/" + url.PathEscape(campaignID)
	if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CampaignSummary reads the analytics summary, optionally bounded by a date
// range. Both dates must be set together; callers validate that upstream of
// this method.
func (c *Client) CampaignSummary(ctx context.Context, caller domain.CallerContext, campaignID, startDate, endDate string) (Object, error) {
	params := map[string]any{}
	if startDate != "" {
		params["start_date"] = startDate
	}
	if endDate != "" {
		params["end_date"] = endDate
	}
	var out Object
	path := "/v1/campaigns/" + url.PathEscape(campaignID) + "/summary"
	if err := c.do(ctx, caller, request{method: "GET", path: path, rawQuery: EncodeQuery(params)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetVoucher reads one voucher by code or v_-prefixed id.
func (c *Client) GetVoucher(ctx context.Context, caller domain.CallerContext, identifier string) (Object, error) {
	var out Object
	path := "/v1/vouchers/" + url.PathEscape(identifier)
	if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPromotionTier reads one promotion tier by promo_-prefixed id.
func (c *Client) GetPromotionTier(ctx context.Context, caller domain.CallerContext, tierID string) (Object, error) {
	var out Object
	path := "/v1/promotions/tiers/" + url.PathEscape(tierID)
	if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetValidationRule reads one validation rule definition.
func (c *Client) GetValidationRule(ctx context.Context, caller domain.CallerContext, ruleID string) (Object, error) {
	var out Object
	path := "/v1/validation-rules/" + url.PathEscape(ruleID)
	if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Qualifications posts a qualification scenario request.
func (c *Client) Qualifications(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/qualifications", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts queries the product catalog with the bracket-encoded filter
// object, one page at a time (the filter surface is too open-ended for safe
// auto-pagination).
func (c *Client) ListProducts(ctx context.Context, caller domain.CallerContext, filters Object, page int) (Object, error) {
	if page <= 0 {
		page = 1
	}
	params := map[string]any{
		"page":  page,
		"limit": domain.DefaultPageLimit,
		"order": "-created_at",
	}
	if len(filters) > 0 {
		params["filters"] = filters
	}
	var out Object
	if err := c.do(ctx, caller, request{method: "GET", path: "/v1/products", rawQuery: EncodeQuery(params)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRedemptions collects redemptions matching the given filters,
// auto-paginating up to maxItems.
func (c *Client) ListRedemptions(ctx context.Context, caller domain.CallerContext, params map[string]any, maxItems int) (ListPage, error) {
	return c.listPages(ctx, caller, "/v1/redemptions", params, "redemptions", domain.DefaultPageLimit, maxItems)
}

// CreateExport schedules an asynchronous export and returns its reference;
// it never waits for the export to materialize.
func (c *Client) CreateExport(ctx context.Context, caller domain.CallerContext, payload Object) (Object, error) {
	var out Object
	if err := c.do(ctx, caller, request{method: "POST", path: "/v1/exports", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetExport polls an export's status and, once done, its result location.
func (c *Client) GetExport(ctx context.Context, caller domain.CallerContext, exportID string) (Object, error) {
	var out Object
	path := "/v1/exports/" + url.PathEscape(exportID)
	if err := c.do(ctx, caller, request{method: "GET", path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WaitExport polls an export a bounded number of times, returning the last
// observed state. An export still running after the final poll is not an
// error; the caller hands the reference back and lets the consumer poll.
func (c *Client) WaitExport(ctx context.Context, caller domain.CallerContext, exportID string, polls int, interval time.Duration) (Object, error) {
	var out Object
	for i := 0; i < polls; i++ {
		if i > 0 {
			if err := sleep(ctx, interval); err != nil {
				path := "/v1/exports/" + url.PathEscape(exportID)
				return nil, domain.E(domain.CodeUnavailable, path, "canceled while waiting for export", err)
			}
		}
		var err error
		out, err = c.GetExport(ctx, caller, exportID)
		if err != nil {
			return nil, err
		}
		if status, _ := out["status"].(string); status == "DONE" || status == "ERROR" {
			return out, nil
		}
	}
	return out, nil
}
