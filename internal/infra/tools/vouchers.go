package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

func getVoucher(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_voucher",
		Description: "Retrieve one voucher by code or 'v_'-prefixed id, including discount configuration, usage tracking, assets, and resolved validation rules under assigned_validation_rules. Codes are case-sensitive.",
		Schema: objectSchema([]string{"identifier"}, map[string]*jsonschema.Schema{
			"identifier": stringProp("Voucher code (e.g. 'WELCOME10') or voucher id with 'v_' prefix."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			voucher, err := client.GetVoucher(ctx, caller, strArg(args, "identifier"))
			if err != nil {
				return nil, err
			}
			if err := expandValidationRules(ctx, client, caller, voucher); err != nil {
				return nil, err
			}
			return voucher, nil
		},
	}
}

func getPromotionTier(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_promotion_tier",
		Description: "Retrieve one promotion tier by id, including its discount action, hierarchy, parent campaign, and resolved validation rules under assigned_validation_rules.",
		Schema: objectSchema([]string{"promotion_tier_id"}, map[string]*jsonschema.Schema{
			"promotion_tier_id": stringProp("Promotion tier id with 'promo_' prefix."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			tier, err := client.GetPromotionTier(ctx, caller, strArg(args, "promotion_tier_id"))
			if err != nil {
				return nil, err
			}
			if err := expandValidationRules(ctx, client, caller, tier); err != nil {
				return nil, err
			}
			return tier, nil
		},
	}
}
