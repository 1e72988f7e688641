// Package tool holds the static catalog of host operations the assistant
// may invoke, and the executor that runs them safely.
//
// Every operation is described by a Spec: an MCP-shaped tool definition
// (name, description, JSON Schema parameters) plus orchestration
// metadata (category, mutating flag). Specs are registered once at
// process start; the registry is read-only afterwards and needs no
// locking.
package tool

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Spec describes one registered operation.
type Spec struct {
	// Tool carries the provider-facing name, description, and parameter
	// schema in MCP form. The schema is converted to each provider's
	// function-calling format by the converter.
	Tool mcptypes.Tool

	// Category groups specs for registration isolation ("scene",
	// "animation", "rigging", ...). A failure loading one category must
	// not prevent the others from registering.
	Category string

	// Mutating marks operations that change scene state. Mutating
	// operations require user confirmation and run inside an undo
	// checkpoint. Pure queries (QA checks, viewport capture) do not.
	Mutating bool
}

// Name returns the spec's unique tool name.
func (s Spec) Name() string { return s.Tool.Name }

// Registry is the static catalog of callable operations. It grows only
// during startup registration and is immutable afterwards.
type Registry struct {
	specs  []Spec
	byName map[string]int // name → index into specs
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]int),
	}
}

// Register adds a spec to the catalog. Registration order is preserved
// and is the order AllSpecs iterates in.
func (r *Registry) Register(spec Spec) error {
	if _, exists := r.byName[spec.Tool.Name]; exists {
		return &DuplicateToolError{Name: spec.Tool.Name}
	}
	r.byName[spec.Tool.Name] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// Resolve looks up a spec by name.
func (r *Registry) Resolve(name string) (Spec, error) {
	idx, ok := r.byName[name]
	if !ok {
		return Spec{}, &UnknownToolError{Name: name}
	}
	return r.specs[idx], nil
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// AllSpecs returns the catalog in registration order. Callers must not
// modify the returned slice.
func (r *Registry) AllSpecs() []Spec {
	return r.specs
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Tool.Name
	}
	return names
}

// Len returns the number of registered specs.
func (r *Registry) Len() int {
	return len(r.specs)
}
