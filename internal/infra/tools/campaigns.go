package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

func listCampaigns(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "list_campaigns",
		Description: "List all campaigns (up to 1000) trimmed to id, name, campaign_type, and created_at. Intended for resolving a campaign id from a campaign name.",
		Schema:      objectSchema(nil, map[string]*jsonschema.Schema{}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			page, err := client.ListCampaigns(ctx, caller, domain.DefaultMaxListItems)
			if err != nil {
				return nil, err
			}
			trimmed := make([]upstream.Object, 0, len(page.Items))
			for _, campaign := range page.Items {
				trimmed = append(trimmed, upstream.Object{
					"id":            campaign["id"],
					"name":          campaign["name"],
					"campaign_type": campaign["campaign_type"],
					"created_at":    campaign["created_at"],
				})
			}
			return trimmed, nil
		},
	}
}

func getCampaign(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_campaign",
		Description: "Retrieve one campaign by id, including its voucher template, status, and resolved validation rules under assigned_validation_rules.",
		Schema: objectSchema([]string{"campaign_id"}, map[string]*jsonschema.Schema{
			"campaign_id": stringProp("Campaign id with 'camp_' prefix."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			campaign, err := client.GetCampaign(ctx, caller, strArg(args, "campaign_id"))
			if err != nil {
				return nil, err
			}
			if err := expandValidationRules(ctx, client, caller, campaign); err != nil {
				return nil, err
			}
			return campaign, nil
		},
	}
}

func getCampaignSummary(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_campaign_summary",
		Description: "Retrieve the analytics summary for a campaign: validations, redemptions, publications, and campaign-type-specific metrics. start_date and end_date bound the period and must be provided together.",
		Schema: objectSchema([]string{"campaign_id"}, map[string]*jsonschema.Schema{
			"campaign_id": stringProp("Campaign id with 'camp_' prefix."),
			"start_date":  dateProp("Period start, YYYY-MM-DD. Requires end_date."),
			"end_date":    dateProp("Period end, YYYY-MM-DD. Requires start_date."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			startDate, endDate := strArg(args, "start_date"), strArg(args, "end_date")
			if err := requireDateRange("get_campaign_summary", startDate, endDate); err != nil {
				return nil, err
			}
			return client.CampaignSummary(ctx, caller, strArg(args, "campaign_id"), startDate, endDate)
		},
	}
}

// summaryCounterKeys are the counter blocks of a campaign summary; everything
// else in the summary payload is configuration echo.
var summaryCounterKeys = []string{
	"vouchers_count",
	"vouchers_published",
	"validations_count",
	"redemptions_count",
	"redemptions_succeeded",
	"redemptions_failed",
	"publications_count",
	"orders",
	"points",
}

func getCampaignCounters(client *upstream.Client) registry.Descriptor {
	return registry.Descriptor{
		Name:        "get_campaign_counters",
		Description: "Retrieve just the counters of a campaign's summary: voucher, publication, validation, and redemption counts, without the configuration echo of the full summary.",
		Schema: objectSchema([]string{"campaign_id"}, map[string]*jsonschema.Schema{
			"campaign_id": stringProp("Campaign id with 'camp_' prefix."),
		}),
		Handler: func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error) {
			campaignID := strArg(args, "campaign_id")
			summary, err := client.CampaignSummary(ctx, caller, campaignID, "", "")
			if err != nil {
				return nil, err
			}
			counters := upstream.Object{"campaign_id": campaignID}
			for _, key := range summaryCounterKeys {
				if value, ok := summary[key]; ok {
					counters[key] = value
				}
			}
			if nested, ok := summary["summary"].(map[string]any); ok {
				for _, key := range summaryCounterKeys {
					if value, ok := nested[key]; ok {
						counters[key] = value
					}
				}
			}
			return counters, nil
		},
	}
}
