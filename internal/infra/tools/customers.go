package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

func findCustomer(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "find_customer",
		Description: "Find a customer by email or id and return the complete customer object, including the loyalty summary when available. Provide exactly one of 'email' or 'id'.",
		Schema: objectSchema(nil, map[string]*jsonschema.Schema{
			"email": stringProp("Customer email address for lookup. Mutually exclusive with 'id'."),
			"id":    stringProp("Customer id with 'cust_' prefix, or a source id. Mutually exclusive with 'email'."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			email := strArg(args, "email")
			id := strArg(args, "id")
			switch {
			case email == "" && id == "":
				return nil, argErr("find_customer", "provide either 'email' or 'id'", "email", "id")
			case email != "" && id != "":
				return nil, argErr("find_customer", "'email' and 'id' are mutually exclusive", "email", "id")
			case id != "":
				return client.GetCustomer(ctx, caller, id)
			default:
				return client.FindCustomerByEmail(ctx, caller, email)
			}
		},
	}
}

func countCustomersInSegment(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "count_customers_in_segment",
		Description: "Count customers currently in a segment. Accepts a segment id with 'seg_' prefix or an exact segment name; the count comes from the customer listing total, not a materialized membership.",
		Schema: objectSchema([]string{"segment"}, map[string]*jsonschema.Schema{
			"segment": stringProp("Segment id with 'seg_' prefix or exact segment name."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			segment, err := client.FindSegment(ctx, caller, strArg(args, "segment"))
			if err != nil {
				return nil, err
			}
			segmentID, _ := segment["id"].(string)
			count, err := client.CountCustomersInSegment(ctx, caller, segmentID)
			if err != nil {
				return nil, err
			}
			name, _ := segment["name"].(string)
			return upstream.Object{
				"segment_id": segmentID,
				"segment":    name,
				"count":      count,
			}, nil
		},
	}
}
