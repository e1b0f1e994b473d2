package tools

import (
	"github.com/voucherifyio/core-mcp/internal/infra/registry"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

// Register installs the full catalog into the registry. Registration errors
// are configuration bugs and abort startup.
func Register(reg *registry.Registry, client *upstream.Client) error {
	catalog := []registry.Descriptor{
		countCustomersInSegment(client),
		exportRedemptions(client),
		findCustomer(client),
		findProducts(client),
		getBestDeals(client),
		getCampaign(client),
		getCampaignCounters(client),
		getCampaignSummary(client),
		getPromotionTier(client),
		getRedemptionsAggregate(client),
		getVoucher(client),
		listCampaigns(client),
		qualifications(client),
		topCodesByRedemptions(client),
	}
	for _, descriptor := range catalog {
		if err := reg.Register(descriptor); err != nil {
			return err
		}
	}
	return nil
}
