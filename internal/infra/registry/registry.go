// Package registry holds the immutable tool catalog: a read-only mapping
// from tool name to descriptor, built once at startup.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// Handler executes one validated tool invocation against the upstream API.
type Handler func(ctx context.Context, caller domain.CallerContext, args map[string]any) (any, error)

// Descriptor describes one registered tool. Immutable after registration.
type Descriptor struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     Handler
}

type Registry struct {
	byName map[string]Descriptor
}

func New() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a descriptor. Duplicate names and malformed schemas are
// configuration errors surfaced at startup, never at runtime.
func (r *Registry) Register(d Descriptor) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if name != d.Name {
		return fmt.Errorf("tool name %q has surrounding whitespace", d.Name)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("duplicate tool registration: %s", name)
	}
	if d.Schema == nil {
		return fmt.Errorf("tool %s: parameter schema is required", name)
	}
	if d.Schema.Type != "object" {
		return fmt.Errorf("tool %s: parameter schema must be an object schema", name)
	}
	if _, err := d.Schema.Resolve(nil); err != nil {
		return fmt.Errorf("tool %s: invalid parameter schema: %w", name, err)
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", name)
	}
	r.byName[name] = d
	return nil
}

// Lookup is case-sensitive and returns NOT_FOUND for unknown names.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, domain.E(domain.CodeNotFound, "registry", fmt.Sprintf("unknown tool: %s", name), nil)
	}
	return d, nil
}

// Descriptors returns the catalog sorted by tool name.
func (r *Registry) Descriptors() []Descriptor {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.byName)
}
