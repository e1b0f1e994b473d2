package tools

import (
	"context"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

// Campaigns and vouchers attach rules under validation_rules_assignments;
// promotion tiers use validation_rule_assignments.
var ruleAssignmentKeys = []string{"validation_rules_assignments", "validation_rule_assignments"}

// expandValidationRules replaces the raw rule-assignment block on a resource
// with the resolved rule definitions under assigned_validation_rules. The
// rule name is dropped so it cannot be confused with the incentive's own
// name. Resources without assignments are returned untouched.
func expandValidationRules(ctx context.Context, client *upstream.Client, caller domain.CallerContext, resource upstream.Object) error {
	for _, key := range ruleAssignmentKeys {
		assignments, ok := resource[key].(map[string]any)
		if !ok {
			continue
		}
		total, _ := assignments["total"].(float64)
		if total <= 0 {
			continue
		}
		data, _ := assignments["data"].([]any)

		rules := make([]upstream.Object, 0, len(data))
		for _, entry := range data {
			assignment, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			ruleID, _ := assignment["rule_id"].(string)
			if ruleID == "" {
				continue
			}
			rule, err := client.GetValidationRule(ctx, caller, ruleID)
			if err != nil {
				return err
			}
			rules = append(rules, upstream.Object{
				"rules":         rule["rules"],
				"bundle_rules":  rule["bundle_rules"],
				"applicable_to": rule["applicable_to"],
			})
		}
		delete(resource, key)
		resource["assigned_validation_rules"] = rules
	}
	return nil
}
