package testenv

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

// randomCode builds a unique, human-readable fixture code.
func randomCode(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return prefix + "-" + suffix
}

type fixtureCustomer struct {
	sourceID string
	email    string
	metadata upstream.Object
}

var fixtureCustomers = []fixtureCustomer{
	{sourceID: "test-1", email: "test1@voucherify.io", metadata: upstream.Object{"foo": "bar", "club": "Katowice"}},
	{sourceID: "test2@voucherify.io", email: "test2+foobar@voucherify.io", metadata: upstream.Object{"club": "VIP-Warsaw"}},
	{sourceID: "test-3", email: "test3@voucherify.io", metadata: upstream.Object{"club": "VIP-Warsaw"}},
	{sourceID: "test-4", email: "test4@voucherify.io", metadata: upstream.Object{"foo": "baz"}},
}

type fixtureProduct struct {
	name     string
	price    int
	category string
}

var fixtureProducts = []fixtureProduct{
	{name: "Burger Classic", price: 1500, category: "Burgers"},
	{name: "Burger Premium", price: 2100, category: "Burgers"},
	{name: "Burger Deluxe", price: 2500, category: "Burgers"},
	{name: "Cesar Salad", price: 500, category: "Salads"},
	{name: "Wagyu Steak", price: 10000, category: "Steaks"},
}

// fixtureBuilder creates the fixture set step by step, recording each
// resource id under a stable label as it goes.
type fixtureBuilder struct {
	client    *upstream.Client
	caller    domain.CallerContext
	resources map[string]string
}

func (b *fixtureBuilder) record(label string, obj upstream.Object) string {
	id, _ := obj["id"].(string)
	b.resources[label] = id
	return id
}

// buildFixtures populates a fresh project with the full fixture set. Any
// failure aborts the whole build; the caller is responsible for deleting the
// half-populated project.
func buildFixtures(ctx context.Context, client *upstream.Client, caller domain.CallerContext) (map[string]string, error) {
	b := &fixtureBuilder{
		client:    client,
		caller:    caller,
		resources: map[string]string{},
	}

	customerIDs, err := b.createCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}
	vipsSegmentID, nonVIPsSegmentID, err := b.createSegments(ctx)
	if err != nil {
		return nil, fmt.Errorf("segments: %w", err)
	}
	burgerDeluxeID, meatCollectionID, err := b.createProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}
	rules, err := b.createValidationRules(ctx, burgerDeluxeID, meatCollectionID, vipsSegmentID, nonVIPsSegmentID)
	if err != nil {
		return nil, fmt.Errorf("validation rules: %w", err)
	}
	if err := b.createDiscountCampaign(ctx); err != nil {
		return nil, fmt.Errorf("discount campaign: %w", err)
	}
	if err := b.createInactiveCampaign(ctx); err != nil {
		return nil, fmt.Errorf("inactive campaign: %w", err)
	}
	if err := b.createPromotionCampaign(ctx, rules); err != nil {
		return nil, fmt.Errorf("promotion campaign: %w", err)
	}
	if err := b.createLoyaltyProgram(ctx, customerIDs[0]); err != nil {
		return nil, fmt.Errorf("loyalty program: %w", err)
	}
	if err := b.createPublishedVouchers(ctx, customerIDs[0], rules.burgerDeluxe); err != nil {
		return nil, fmt.Errorf("published vouchers: %w", err)
	}
	if err := b.createBurgerCampaign(ctx, rules.burgerDeluxe); err != nil {
		return nil, fmt.Errorf("burger campaign: %w", err)
	}
	return b.resources, nil
}

func (b *fixtureBuilder) createCustomers(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(fixtureCustomers))
	for i, c := range fixtureCustomers {
		created, err := b.client.CreateCustomer(ctx, b.caller, upstream.Object{
			"source_id": c.sourceID,
			"email":     c.email,
			"metadata":  c.metadata,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, b.record(fmt.Sprintf("customer_%d", i+1), created))
	}
	return ids, nil
}

func (b *fixtureBuilder) createSegments(ctx context.Context) (string, string, error) {
	vips, err := b.client.CreateSegment(ctx, b.caller, upstream.Object{
		"name": "VIPs",
		"type": "auto-update",
		"filter": upstream.Object{
			"junction":      "and",
			"metadata.club": upstream.Object{"conditions": upstream.Object{"$is": "VIP-Warsaw"}},
		},
	})
	if err != nil {
		return "", "", err
	}
	nonVIPs, err := b.client.CreateSegment(ctx, b.caller, upstream.Object{
		"name": "non-VIPs",
		"type": "auto-update",
		"filter": upstream.Object{
			"junction":      "and",
			"metadata.club": upstream.Object{"conditions": upstream.Object{"$is_not": "VIP-Warsaw"}},
		},
	})
	if err != nil {
		return "", "", err
	}
	return b.record("segment_vips", vips), b.record("segment_non_vips", nonVIPs), nil
}

func (b *fixtureBuilder) createProducts(ctx context.Context) (burgerDeluxeID, meatCollectionID string, err error) {
	collection, err := b.client.CreateProductCollection(ctx, b.caller, upstream.Object{
		"name": "Meat Dishes",
		"type": "AUTO_UPDATE",
		"filter": upstream.Object{
			"junction":          "and",
			"metadata.category": upstream.Object{"conditions": upstream.Object{"$is": []string{"Meat"}}},
		},
	})
	if err != nil {
		return "", "", err
	}
	meatCollectionID = b.record("collection_meat", collection)

	for i, p := range fixtureProducts {
		created, err := b.client.CreateProduct(ctx, b.caller, upstream.Object{
			"name":     p.name,
			"price":    p.price,
			"metadata": upstream.Object{"category": p.category},
		})
		if err != nil {
			return "", "", err
		}
		id := b.record(fmt.Sprintf("product_%d", i+1), created)
		if p.name == "Burger Deluxe" {
			burgerDeluxeID = id
		}
	}
	return burgerDeluxeID, meatCollectionID, nil
}

type fixtureRules struct {
	burgerDeluxe   string
	meatCollection string
	vips           string
	nonVIPs        string
}

func (b *fixtureBuilder) createValidationRules(ctx context.Context, burgerDeluxeID, meatCollectionID, vipsSegmentID, nonVIPsSegmentID string) (fixtureRules, error) {
	var rules fixtureRules

	deluxe, err := b.client.CreateValidationRule(ctx, b.caller, upstream.Object{
		"name":         "Burger Deluxe for Big Family",
		"context_type": "global",
		"rules": upstream.Object{
			"1": upstream.Object{
				"name": "order.items.any",
				"conditions": upstream.Object{
					"$is": []upstream.Object{{
						"id":     burgerDeluxeID,
						"type":   "product_or_sku",
						"object": "product",
					}},
				},
				"rules": upstream.Object{
					"1": upstream.Object{
						"name":       "order.items.aggregated_quantity",
						"conditions": upstream.Object{"$more_than_or_equal": []int{4}},
						"rules":      upstream.Object{},
					},
					"logic": "1",
				},
			},
			"logic": "1",
		},
		"applicable_to": upstream.Object{
			"excluded": []upstream.Object{},
			"included": []upstream.Object{{
				"object":         "product",
				"id":             burgerDeluxeID,
				"strict":         false,
				"effect":         "APPLY_TO_EVERY",
				"skip_initially": 0,
				"repeat":         1,
				"target":         "ITEM",
			}},
			"included_all": false,
		},
	})
	if err != nil {
		return rules, err
	}
	rules.burgerDeluxe = b.record("rule_burger_deluxe", deluxe)

	meat, err := b.client.CreateValidationRule(ctx, b.caller, upstream.Object{
		"name":         "Meat Dishes 2$ discount per item for 3 or more items",
		"context_type": "global",
		"rules": upstream.Object{
			"1": upstream.Object{
				"name": "order.items.any",
				"conditions": upstream.Object{
					"$is": []upstream.Object{{
						"id":     meatCollectionID,
						"type":   "products_collection",
						"object": "products_collection",
					}},
				},
				"rules": upstream.Object{
					"1": upstream.Object{
						"name":       "order.items.aggregated_quantity",
						"conditions": upstream.Object{"$more_than_or_equal": []int{3}},
						"rules":      upstream.Object{},
					},
					"logic": "1",
				},
			},
			"logic": "1",
		},
		"applicable_to": upstream.Object{
			"excluded": []upstream.Object{},
			"included": []upstream.Object{{
				"object":         "products_collection",
				"id":             meatCollectionID,
				"strict":         false,
				"effect":         "APPLY_TO_EVERY",
				"skip_initially": 0,
				"repeat":         1,
				"target":         "ITEM",
			}},
			"included_all": false,
		},
	})
	if err != nil {
		return rules, err
	}
	rules.meatCollection = b.record("rule_meat_collection", meat)

	vips, err := b.client.CreateValidationRule(ctx, b.caller, upstream.Object{
		"name":         "Customer in VIPs",
		"context_type": "campaign.promotion",
		"rules": upstream.Object{
			"1": upstream.Object{
				"name":       "customer.segment",
				"conditions": upstream.Object{"$is": []string{vipsSegmentID}},
			},
			"logic": "1",
		},
	})
	if err != nil {
		return rules, err
	}
	rules.vips = b.record("rule_vips", vips)

	nonVIPs, err := b.client.CreateValidationRule(ctx, b.caller, upstream.Object{
		"name":         "Customer in non-VIPs",
		"context_type": "campaign.promotion",
		"rules": upstream.Object{
			"1": upstream.Object{
				"name":       "customer.segment",
				"conditions": upstream.Object{"$is": []string{nonVIPsSegmentID}},
			},
			"logic": "1",
		},
	})
	if err != nil {
		return rules, err
	}
	rules.nonVIPs = b.record("rule_non_vips", nonVIPs)

	return rules, nil
}

// createDiscountCampaign builds the BK-Sept-20OFF campaign with five
// vouchers as its budget and redeems three of them.
func (b *fixtureBuilder) createDiscountCampaign(ctx context.Context) error {
	campaign, err := b.client.CreateCampaign(ctx, b.caller, upstream.Object{
		"campaign_type": "DISCOUNT_COUPONS",
		"name":          "BK-Sept-20OFF",
		"voucher": upstream.Object{
			"type":     "DISCOUNT_VOUCHER",
			"discount": upstream.Object{"type": "PERCENT", "percent_off": 20},
		},
	})
	if err != nil {
		return err
	}
	campaignID := b.record("campaign_bk_sept_20off", campaign)

	codes := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		code := randomCode("BKSEPT20")
		if _, err := b.client.CreateVoucher(ctx, b.caller, code, upstream.Object{
			"type":        "DISCOUNT_VOUCHER",
			"discount":    upstream.Object{"type": "PERCENT", "percent_off": 20},
			"campaign_id": campaignID,
		}); err != nil {
			return err
		}
		codes = append(codes, code)
		b.resources[fmt.Sprintf("voucher_bk_sept_%d", i+1)] = code
	}

	for i := 0; i < 3; i++ {
		if _, err := b.client.Redeem(ctx, b.caller, upstream.Object{
			"customer": upstream.Object{"source_id": fixtureCustomers[i].sourceID},
			"redeemables": []upstream.Object{
				{"object": "voucher", "id": codes[i]},
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *fixtureBuilder) createInactiveCampaign(ctx context.Context) error {
	campaign, err := b.client.CreateCampaign(ctx, b.caller, upstream.Object{
		"campaign_type": "DISCOUNT_COUPONS",
		"name":          "BK-Inactive",
		"voucher": upstream.Object{
			"type":     "DISCOUNT_VOUCHER",
			"discount": upstream.Object{"type": "PERCENT", "percent_off": 15},
		},
	})
	if err != nil {
		return err
	}
	b.record("campaign_bk_inactive", campaign)
	return nil
}

func (b *fixtureBuilder) createPromotionCampaign(ctx context.Context, rules fixtureRules) error {
	tier := func(name, banner string, discount upstream.Object, ruleIDs ...string) upstream.Object {
		t := upstream.Object{
			"name":   name,
			"banner": banner,
			"action": upstream.Object{"discount": discount},
		}
		if len(ruleIDs) > 0 {
			t["validation_rules"] = ruleIDs
		}
		return t
	}

	campaign, err := b.client.CreateCampaign(ctx, b.caller, upstream.Object{
		"campaign_type": "PROMOTION",
		"name":          "Promotion - Example",
		"promotion": upstream.Object{
			"tiers": []upstream.Object{
				tier("Percent Discount", "All Gets 5% off",
					upstream.Object{"type": "PERCENT", "percent_off": 5, "effect": "APPLY_TO_ORDER"}),
				tier("VIPs 40% off", "VIPs get 40% off",
					upstream.Object{"type": "PERCENT", "percent_off": 40, "effect": "APPLY_TO_ORDER"}, rules.vips),
				tier("non-VIPs 10% off", "non-VIPs get 10% off",
					upstream.Object{"type": "PERCENT", "percent_off": 10, "effect": "APPLY_TO_ORDER"}, rules.nonVIPs),
				tier("Burger Deluxe for Big Family", "Burger Deluxe for Big Family 15% off",
					upstream.Object{"type": "PERCENT", "percent_off": 15, "effect": "APPLY_TO_ITEMS"}, rules.burgerDeluxe),
				tier("Meat Dishes 2$ discount per item", "2$ discount per meat dish",
					upstream.Object{"type": "AMOUNT", "amount_off": 200, "effect": "APPLY_TO_ITEMS_BY_QUANTITY"}, rules.meatCollection),
			},
		},
	})
	if err != nil {
		return err
	}
	b.record("campaign_promotion", campaign)

	if promotion, ok := campaign["promotion"].(map[string]any); ok {
		if tiers, ok := promotion["tiers"].([]any); ok {
			for i, raw := range tiers {
				if t, ok := raw.(map[string]any); ok {
					if id, _ := t["id"].(string); id != "" {
						b.resources[fmt.Sprintf("promotion_tier_%d", i+1)] = id
					}
				}
			}
		}
	}
	return nil
}

// createLoyaltyProgram provisions the loyalty campaign and publishes a card
// with 140 points to the first customer.
func (b *fixtureBuilder) createLoyaltyProgram(ctx context.Context, customerID string) error {
	program, err := b.client.CreateLoyaltyProgram(ctx, b.caller, upstream.Object{
		"name":          "Test loyalty program: " + randomCode("LP"),
		"campaign_type": "LOYALTY_PROGRAM",
		"type":          "AUTO_UPDATE",
		"auto_join":     true,
		"join_once":     true,
		"voucher": upstream.Object{
			"type":         "LOYALTY_CARD",
			"loyalty_card": upstream.Object{"points": 0},
		},
	})
	if err != nil {
		return err
	}
	programID := b.record("campaign_loyalty", program)

	cardCode := randomCode("LOYALTY")
	card, err := b.client.CreateVoucher(ctx, b.caller, cardCode, upstream.Object{
		"type":         "LOYALTY_CARD",
		"campaign_id":  programID,
		"loyalty_card": upstream.Object{"points": 140},
	})
	if err != nil {
		return err
	}
	b.record("loyalty_card", card)
	b.resources["loyalty_card_code"] = cardCode

	_, err = b.client.CreatePublication(ctx, b.caller, upstream.Object{
		"customer": upstream.Object{"id": customerID},
		"voucher":  cardCode,
	})
	return err
}

// createPublishedVouchers creates three standalone 10% vouchers (two
// published to the first customer, one free) plus the 25% weekday voucher
// carrying the burger deluxe rule.
func (b *fixtureBuilder) createPublishedVouchers(ctx context.Context, customerID, burgerDeluxeRuleID string) error {
	discountVoucher := func(label, code string, payload upstream.Object) error {
		created, err := b.client.CreateVoucher(ctx, b.caller, code, payload)
		if err != nil {
			return err
		}
		b.record(label, created)
		b.resources[label+"_code"] = code
		return nil
	}

	code1, code2, codeFree := randomCode("CUST1"), randomCode("CUST1"), randomCode("FREE1")
	tenPercent := upstream.Object{
		"type":     "DISCOUNT_VOUCHER",
		"discount": upstream.Object{"type": "PERCENT", "percent_off": 10},
	}
	if err := discountVoucher("voucher_cust1_1", code1, tenPercent); err != nil {
		return err
	}
	if err := discountVoucher("voucher_cust1_2", code2, tenPercent); err != nil {
		return err
	}
	if err := discountVoucher("voucher_free", codeFree, tenPercent); err != nil {
		return err
	}
	for _, code := range []string{code1, code2} {
		if _, err := b.client.CreatePublication(ctx, b.caller, upstream.Object{
			"customer": upstream.Object{"id": customerID},
			"voucher":  code,
		}); err != nil {
			return err
		}
	}

	deluxeCode := randomCode("DELUXE")
	if err := discountVoucher("voucher_burger_deluxe", deluxeCode, upstream.Object{
		"type":                 "DISCOUNT_VOUCHER",
		"discount":             upstream.Object{"type": "PERCENT", "percent_off": 25},
		"validation_rules":     []string{burgerDeluxeRuleID},
		"validity_day_of_week": []int{1, 2, 3, 4, 5},
	}); err != nil {
		return err
	}
	_, err := b.client.CreatePublication(ctx, b.caller, upstream.Object{
		"customer": upstream.Object{"id": customerID},
		"voucher":  deluxeCode,
	})
	return err
}

func (b *fixtureBuilder) createBurgerCampaign(ctx context.Context, burgerDeluxeRuleID string) error {
	campaign, err := b.client.CreateCampaign(ctx, b.caller, upstream.Object{
		"campaign_type": "DISCOUNT_COUPONS",
		"name":          "Burger Deluxe Family Campaign",
		"voucher": upstream.Object{
			"type":                 "DISCOUNT_VOUCHER",
			"discount":             upstream.Object{"type": "PERCENT", "percent_off": 3},
			"validity_day_of_week": []int{1, 2, 3, 4, 5},
		},
		"validation_rules": []string{burgerDeluxeRuleID},
		"vouchers_count":   10,
	})
	if err != nil {
		return err
	}
	b.record("campaign_burger_deluxe_family", campaign)
	return nil
}
