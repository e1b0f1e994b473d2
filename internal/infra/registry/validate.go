package registry

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// ValidateArgs checks the decoded argument object against the descriptor's
// schema and returns the coerced arguments. All failing fields are reported
// in one error, not just the first.
func ValidateArgs(schema *jsonschema.Schema, args map[string]any) (map[string]any, *domain.Error) {
	if args == nil {
		args = map[string]any{}
	}

	var failures []fieldFailure
	out := make(map[string]any, len(args))

	for _, name := range schema.Required {
		value, ok := args[name]
		if !ok || value == nil {
			failures = append(failures, fieldFailure{field: name, reason: "required parameter missing"})
		} else if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			failures = append(failures, fieldFailure{field: name, reason: "required parameter is empty"})
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			failures = append(failures, fieldFailure{field: name, reason: "unknown parameter"})
			continue
		}
		if value == nil {
			continue
		}
		coerced, reason := coerceValue(prop, value)
		if reason != "" {
			failures = append(failures, fieldFailure{field: name, reason: reason})
			continue
		}
		out[name] = coerced
	}

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].field < failures[j].field })
		fields := make([]string, 0, len(failures))
		parts := make([]string, 0, len(failures))
		seen := map[string]bool{}
		for _, f := range failures {
			if !seen[f.field] {
				fields = append(fields, f.field)
				seen[f.field] = true
			}
			parts = append(parts, f.field+": "+f.reason)
		}
		err := domain.E(domain.CodeInvalidArgument, "validate", "invalid arguments: "+strings.Join(parts, "; "), nil)
		err.Fields = fields
		return nil, err
	}
	return out, nil
}

type fieldFailure struct {
	field  string
	reason string
}

func coerceValue(prop *jsonschema.Schema, value any) (any, string) {
	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Sprintf("expected string, got %T", value)
		}
		if prop.Format == "date" {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return nil, fmt.Sprintf("expected ISO 8601 date (YYYY-MM-DD), got %q", s)
			}
		}
		if len(prop.Enum) > 0 && !enumContains(prop.Enum, s) {
			return nil, fmt.Sprintf("value %q not in %v", s, prop.Enum)
		}
		return s, ""
	case "integer":
		switch n := value.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Sprintf("expected integer, got %v", n)
			}
			return int(n), ""
		case int:
			return n, ""
		default:
			return nil, fmt.Sprintf("expected integer, got %T", value)
		}
	case "number":
		switch n := value.(type) {
		case float64:
			return n, ""
		case int:
			return float64(n), ""
		default:
			return nil, fmt.Sprintf("expected number, got %T", value)
		}
	case "boolean":
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Sprintf("expected boolean, got %T", value)
		}
		return b, ""
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Sprintf("expected object, got %T", value)
		}
		return obj, ""
	case "array":
		list, ok := value.([]any)
		if !ok {
			return nil, fmt.Sprintf("expected array, got %T", value)
		}
		if prop.Items != nil {
			for i, item := range list {
				if _, reason := coerceValue(prop.Items, item); reason != "" {
					return nil, fmt.Sprintf("item %d: %s", i, reason)
				}
			}
		}
		return list, ""
	default:
		return value, ""
	}
}

func enumContains(enum []any, value string) bool {
	for _, e := range enum {
		if s, ok := e.(string); ok && s == value {
			return true
		}
	}
	return false
}
