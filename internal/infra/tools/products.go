package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

func findProducts(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name: "find_products",
		Description: "List products with optional filtering and pagination, 100 per page, newest first. " +
			"Filters are nested objects of the form {\"field\": {\"conditions\": {\"$operator\": value}}}; " +
			"fields include name, source_id, price, created_at, and metadata.<field>. Prices are in cents.",
		Schema: objectSchema(nil, map[string]*jsonschema.Schema{
			"filters": objectProp("Filter object keyed by field path, each with a 'conditions' operator map (e.g. $is, $contains, $more_than, $after)."),
			"page":    intProp("Page number, starting at 1. Omit for the first page."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			page := intArg(args, "page")
			if page < 0 {
				return nil, argErr("find_products", "page must be positive", "page")
			}
			return client.ListProducts(ctx, caller, objectArg(args, "filters"), page)
		},
	}
}
