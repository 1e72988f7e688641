package tool

import (
	"encoding/json"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
)

// ToOpenAIFormat converts the catalog to the OpenAI function-tool wire
// shape. MCP InputSchema and OpenAI FunctionParameters are both JSON
// Schema, so this is a struct-to-map reshuffle.
func ToOpenAIFormat(specs []Spec) []openai.ChatCompletionToolUnionParam {
	if len(specs) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(specs))
	for i, spec := range specs {
		t := spec.Tool
		params := openai.FunctionParameters{
			"type":       t.InputSchema.Type,
			"properties": t.InputSchema.Properties,
		}
		if len(t.InputSchema.Required) > 0 {
			params["required"] = t.InputSchema.Required
		}

		result[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		)
	}
	return result
}

// MCPTools strips the catalog down to the plain MCP tool list the
// provider interface carries.
func MCPTools(specs []Spec) []mcptypes.Tool {
	out := make([]mcptypes.Tool, len(specs))
	for i, spec := range specs {
		out[i] = spec.Tool
	}
	return out
}

// CatalogJSON renders the tool catalog as indented JSON for embedding
// in the static system prompt. Output is deterministic for a given
// catalog so prompt-prefix caching stays effective across requests.
func CatalogJSON(specs []Spec) string {
	type entry struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Category    string         `json:"category,omitempty"`
		Parameters  map[string]any `json:"parameters"`
	}
	entries := make([]entry, len(specs))
	for i, spec := range specs {
		params := map[string]any{
			"type":       spec.Tool.InputSchema.Type,
			"properties": spec.Tool.InputSchema.Properties,
		}
		if len(spec.Tool.InputSchema.Required) > 0 {
			params["required"] = spec.Tool.InputSchema.Required
		}
		entries[i] = entry{
			Name:        spec.Tool.Name,
			Description: spec.Tool.Description,
			Category:    spec.Category,
			Parameters:  params,
		}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
