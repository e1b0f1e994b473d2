package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

var qualificationScenarios = []string{
	"ALL",
	"CUSTOMER_WALLET",
	"AUDIENCE_ONLY",
	"PRODUCTS",
	"PRODUCTS_DISCOUNT",
	"PROMOTION_STACKS",
	"PRODUCTS_BY_CUSTOMER",
	"PRODUCTS_DISCOUNT_BY_CUSTOMER",
}

// customerPayload keeps only the fields the qualification API accepts.
func customerPayload(customer map[string]any) upstream.Object {
	out := upstream.Object{}
	for _, key := range []string{"id", "source_id", "metadata"} {
		if value, ok := customer[key]; ok && value != nil {
			out[key] = value
		}
	}
	return out
}

func qualifications(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "qualifications",
		Description: "Find redeemables (vouchers, promotion tiers, campaigns) applicable to a customer. The customer object must contain 'id' or 'source_id'; the scenario narrows which redeemables are evaluated and defaults to ALL.",
		Schema: objectSchema([]string{"customer"}, map[string]*jsonschema.Schema{
			"customer": objectProp("Customer object with 'id' ('cust_' prefix) or 'source_id', optionally 'metadata'."),
			"scenario": enumProp("Qualification scenario. Defaults to ALL.", qualificationScenarios...),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			customer := customerPayload(objectArg(args, "customer"))
			if len(customer) == 0 {
				return nil, argErr("qualifications", "customer must include 'id' or 'source_id'", "customer")
			}
			scenario := strArg(args, "scenario")
			if scenario == "" {
				scenario = "ALL"
			}
			payload := upstream.Object{
				"customer": customer,
				"scenario": scenario,
				"options":  upstream.Object{"limit": 100},
			}
			return client.Qualifications(ctx, caller, payload)
		},
	}
}

func getBestDeals(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_best_deals",
		Description: "Find the top 5 best-deal promotions for a customer's order, sorted by deal value. Returns each promotion's qualification result and resolved validation rules, including what is still missing for partially applicable deals. Prices are in cents.",
		Schema: objectSchema([]string{"customer", "order"}, map[string]*jsonschema.Schema{
			"customer": objectProp("Customer object with 'id' ('cust_' prefix) or 'source_id', optionally 'metadata'."),
			"order":    objectProp("Order object with an 'items' list; each item carries product_id or source_id+related_object, optional price in cents, and quantity."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			customer := customerPayload(objectArg(args, "customer"))
			if len(customer) == 0 {
				return nil, argErr("get_best_deals", "customer must include 'id' or 'source_id'", "customer")
			}
			order := objectArg(args, "order")
			if len(order) == 0 {
				return nil, argErr("get_best_deals", "order with an 'items' list is required", "order")
			}

			payload := upstream.Object{
				"customer": customer,
				"order":    order,
				"scenario": "PRODUCTS_DISCOUNT_BY_CUSTOMER",
				"options": upstream.Object{
					"limit":        5,
					"expand":       []string{"redeemable", "validation_rules"},
					"sorting_rule": "BEST_DEAL",
				},
			}
			result, err := client.Qualifications(ctx, caller, payload)
			if err != nil {
				return nil, err
			}
			return shapeBestDeals(ctx, client, caller, result)
		},
	}
}

// shapeBestDeals flattens the qualification response into the deal list the
// catalog promises: id, result, display details, the resolved order, and the
// expanded validation rules with their per-rule status.
func shapeBestDeals(ctx context.Context, client *upstream.Client, caller domain.CallerContext, result upstream.Object) (any, error) {
	redeemables, _ := result["redeemables"].(map[string]any)
	data, _ := redeemables["data"].([]any)

	deals := make([]upstream.Object, 0, len(data))
	for _, entry := range data {
		redeemable, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		var rules []upstream.Object
		if assignments, ok := redeemable["validation_rules_assignments"].(map[string]any); ok {
			assignmentData, _ := assignments["data"].([]any)
			for _, raw := range assignmentData {
				assignment, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				ruleID, _ := assignment["rule_id"].(string)
				if ruleID == "" {
					continue
				}
				rule, err := client.GetValidationRule(ctx, caller, ruleID)
				if err != nil {
					return nil, err
				}
				rules = append(rules, upstream.Object{
					"validation_rules_definition": upstream.Object{
						"rules":         rule["rules"],
						"bundle_rules":  rule["bundle_rules"],
						"applicable_to": rule["applicable_to"],
					},
					"validation_status":            assignment["validation_status"],
					"validation_omitted_sub_rules": assignment["validation_omitted_rules"],
				})
			}
		}

		deals = append(deals, upstream.Object{
			"id":     redeemable["id"],
			"object": redeemable["object"],
			"result": redeemable["result"],
			"redeemable_details": upstream.Object{
				"public_banner":           redeemable["banner"],
				"alternative_description": redeemable["name"],
				"campaign_name":           redeemable["campaign_name"],
			},
			"resolved_order":   redeemable["order"],
			"validation_rules": rules,
		})
	}
	return deals, nil
}
