package upstream

import (
	"context"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// Object is an opaque upstream resource. The server treats domain payloads
// as pass-through JSON; only envelope fields are interpreted.
type Object = map[string]any

// ListPage is a normalized slice of one upstream listing.
type ListPage struct {
	Items   []Object
	Total   int
	HasMore bool
}

// listPages walks a page/limit paginated listing, collecting up to maxItems
// entries. The upstream signals the final page by returning fewer items than
// requested.
func (c *Client) listPages(ctx context.Context, caller domain.CallerContext, path string, baseParams map[string]any, dataKey string, limit, maxItems int) (ListPage, error) {
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}
	if maxItems <= 0 {
		maxItems = domain.DefaultMaxListItems
	}

	params := make(map[string]any, len(baseParams)+2)
	for k, v := range baseParams {
		params[k] = v
	}
	params["limit"] = limit

	page := 1
	if p, ok := params["page"]; ok {
		if n, ok := toInt(p); ok && n > 0 {
			page = n
		}
	}

	var out ListPage
	for {
		params["page"] = page
		var raw map[string]any
		if err := c.do(ctx, caller, request{method: "GET", path: path, rawQuery: EncodeQuery(params)}, &raw); err != nil {
			return ListPage{}, err
		}
		items := extractItems(raw, dataKey)
		if total, ok := toInt(raw["total"]); ok {
			out.Total = total
		}
		if len(items) == 0 {
			out.HasMore = false
			return out, nil
		}
		if remaining := maxItems - len(out.Items); len(items) > remaining {
			items = items[:remaining]
			out.HasMore = true
			out.Items = append(out.Items, items...)
			return out, nil
		}
		out.Items = append(out.Items, items...)
		if len(items) < limit {
			out.HasMore = false
			return out, nil
		}
		if len(out.Items) >= maxItems {
			out.HasMore = true
			return out, nil
		}
		page++
	}
}

func extractItems(raw map[string]any, dataKey string) []Object {
	list, ok := raw[dataKey].([]any)
	if !ok {
		return nil
	}
	items := make([]Object, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(Object); ok {
			items = append(items, obj)
		}
	}
	return items
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
