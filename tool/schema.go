package tool

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Helpers for building JSON Schema property maps in the shape the MCP
// tool type carries them (and providers expect them).

func makeSpec(name, description string, props map[string]any, required []string, mutating bool) Spec {
	return Spec{
		Tool: mcptypes.Tool{
			Name:        name,
			Description: description,
			InputSchema: mcptypes.ToolInputSchema{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
		},
		Mutating: mutating,
	}
}

func strProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]any{"type": "string", "description": description, "enum": enum}
}

func numProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func strArrayProp(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}
