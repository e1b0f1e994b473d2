package tools

import (
	"strings"

	"github.com/voucherifyio/core-mcp/internal/domain"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
)

// The dispatcher has already validated types against the schema; these
// helpers only read the coerced values back out.

func strArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]any, name string) int {
	n, _ := args[name].(int)
	return n
}

func objectArg(args map[string]any, name string) upstream.Object {
	obj, _ := args[name].(map[string]any)
	return obj
}

func argErr(op, message string, fields ...string) *domain.Error {
	err := domain.E(domain.CodeInvalidArgument, op, message, nil)
	err.Fields = fields
	return err
}

// requireDateRange enforces that start_date and end_date arrive together.
func requireDateRange(op, startDate, endDate string) *domain.Error {
	if (startDate == "") != (endDate == "") {
		return argErr(op, "start_date and end_date must be provided together", "end_date", "start_date")
	}
	return nil
}
