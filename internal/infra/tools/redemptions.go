package tools

import (
	"context"
	"sort"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

const (
	defaultTopCodes    = 10
	exportPolls        = 5
	exportPollInterval = time.Second
)

// redemptionFilterProps is shared by the redemption reporting tools.
func redemptionFilterProps() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"campaign":   stringProp("Campaign name to scope redemptions to."),
		"result":     enumProp("Only count redemptions with this outcome.", "SUCCESS", "FAILURE"),
		"start_date": dateProp("Period start, YYYY-MM-DD. Requires end_date."),
		"end_date":   dateProp("Period end, YYYY-MM-DD. Requires start_date."),
	}
}

func redemptionListParams(op string, args map[string]any) (map[string]any, *domain.Error) {
	startDate, endDate := strArg(args, "start_date"), strArg(args, "end_date")
	if err := requireDateRange(op, startDate, endDate); err != nil {
		return nil, err
	}
	params := map[string]any{}
	if campaign := strArg(args, "campaign"); campaign != "" {
		params["campaign"] = campaign
	}
	if result := strArg(args, "result"); result != "" {
		params["result"] = result
	}
	if startDate != "" {
		params["created_at"] = map[string]any{"after": startDate, "before": endDate}
	}
	return params, nil
}

func getRedemptionsAggregate(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_redemptions_aggregate",
		Description: "Aggregate redemptions matching the filters: total, succeeded, and failed counts plus the summed applied discount amount in cents. Walks the redemption listing up to 1000 entries; 'truncated' reports whether the cap was hit.",
		Schema:      objectSchema(nil, redemptionFilterProps()),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			params, verr := redemptionListParams("get_redemptions_aggregate", args)
			if verr != nil {
				return nil, verr
			}
			page, err := client.ListRedemptions(ctx, caller, params, domain.DefaultMaxListItems)
			if err != nil {
				return nil, err
			}

			var succeeded, failed int
			var discount float64
			for _, redemption := range page.Items {
				switch redemption["result"] {
				case "SUCCESS":
					succeeded++
				case "FAILURE":
					failed++
				}
				if order, ok := redemption["order"].(map[string]any); ok {
					if amount, ok := order["total_applied_discount_amount"].(float64); ok {
						discount += amount
					}
				}
			}
			return upstream.Object{
				"total":                 len(page.Items),
				"succeeded":             succeeded,
				"failed":                failed,
				"total_discount_amount": int(discount),
				"truncated":             page.HasMore,
			}, nil
		},
	}
}

func topCodesByRedemptions(client *upstream.Client) registry.Descriptor {
	props := redemptionFilterProps()
	props["limit"] = intProp("How many codes to return. Defaults to 10.")
	return registry.Descriptor{
		Name:        "top_codes_by_redemptions",
		Description: "Rank voucher codes by successful redemption count within the filters, most redeemed first. Ties break alphabetically by code.",
		Schema:      objectSchema(nil, props),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			params, verr := redemptionListParams("top_codes_by_redemptions", args)
			if verr != nil {
				return nil, verr
			}
			limit := intArg(args, "limit")
			if limit < 0 {
				return nil, argErr("top_codes_by_redemptions", "limit must be positive", "limit")
			}
			if limit == 0 {
				limit = defaultTopCodes
			}

			page, err := client.ListRedemptions(ctx, caller, params, domain.DefaultMaxListItems)
			if err != nil {
				return nil, err
			}

			counts := map[string]int{}
			for _, redemption := range page.Items {
				if redemption["result"] != "SUCCESS" {
					continue
				}
				voucher, ok := redemption["voucher"].(map[string]any)
				if !ok {
					continue
				}
				if code, _ := voucher["code"].(string); code != "" {
					counts[code]++
				}
			}

			ranked := make([]upstream.Object, 0, len(counts))
			for code, n := range counts {
				ranked = append(ranked, upstream.Object{"code": code, "redemptions": n})
			}
			sort.Slice(ranked, func(i, j int) bool {
				ni, nj := ranked[i]["redemptions"].(int), ranked[j]["redemptions"].(int)
				if ni != nj {
					return ni > nj
				}
				return ranked[i]["code"].(string) < ranked[j]["code"].(string)
			})
			if len(ranked) > limit {
				ranked = ranked[:limit]
			}
			return upstream.Object{
				"codes":     ranked,
				"truncated": page.HasMore,
			}, nil
		},
	}
}

func exportRedemptions(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "export_redemptions",
		Description: "Schedule an asynchronous redemption export and return a download reference, never the rows inline. If the export finishes within the short poll window the reference includes the download URL; otherwise poll with the export id.",
		Schema: objectSchema(nil, map[string]*jsonschema.Schema{
			"start_date": dateProp("Period start, YYYY-MM-DD. Requires end_date."),
			"end_date":   dateProp("Period end, YYYY-MM-DD. Requires start_date."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			startDate, endDate := strArg(args, "start_date"), strArg(args, "end_date")
			if err := requireDateRange("export_redemptions", startDate, endDate); err != nil {
				return nil, err
			}

			parameters := upstream.Object{
				"order":  "-created_at",
				"fields": []string{"id", "object", "date", "voucher_code", "campaign", "customer_id", "result", "order_amount"},
			}
			if startDate != "" {
				parameters["filters"] = upstream.Object{
					"junction": "and",
					"created_at": upstream.Object{
						"conditions": upstream.Object{
							"$after":  []string{startDate},
							"$before": []string{endDate},
						},
					},
				}
			}

			created, err := client.CreateExport(ctx, caller, upstream.Object{
				"exported_object": "redemption",
				"parameters":      parameters,
			})
			if err != nil {
				return nil, err
			}
			exportID, _ := created["id"].(string)
			if exportID == "" {
				return nil, domain.E(domain.CodeUnavailable, "export_redemptions", "export response missing id", nil)
			}

			final, err := client.WaitExport(ctx, caller, exportID, exportPolls, exportPollInterval)
			if err != nil {
				return nil, err
			}
			status, _ := final["status"].(string)
			reference := upstream.Object{
				"export_id": exportID,
				"status":    status,
			}
			if result, ok := final["result"].(map[string]any); ok {
				if url, _ := result["url"].(string); url != "" {
					reference["download_url"] = url
				}
			}
			return reference, nil
		},
	}
}
