package openai

import (
	"github.com/sashabaranov/go-openai"

	"github.com/cofacts/factagent"
)

// convertTool converts a tool spec to an OpenAI function tool.
func convertTool(tool factagent.Tool) openai.Tool {
	spec := tool.Spec()

	properties := make(map[string]any)
	for name, param := range spec.Parameters {
		properties[name] = convertParameterToSchema(param)
	}

	parameters := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(spec.Required) > 0 {
		parameters["required"] = spec.Required
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  parameters,
		},
	}
}

func convertParameterToSchema(param *factagent.Parameter) map[string]any {
	schema := map[string]any{
		"type":        getOpenAIType(param.Type),
		"description": param.Description,
	}

	if len(param.Enum) > 0 {
		schema["enum"] = param.Enum
	}

	if param.Properties != nil {
		properties := make(map[string]any)
		for name, prop := range param.Properties {
			properties[name] = convertParameterToSchema(prop)
		}
		schema["properties"] = properties
		if len(param.Required) > 0 {
			schema["required"] = param.Required
		}
	}

	if param.Items != nil {
		schema["items"] = convertParameterToSchema(param.Items)
	}

	if param.Minimum != nil {
		schema["minimum"] = *param.Minimum
	}
	if param.Maximum != nil {
		schema["maximum"] = *param.Maximum
	}
	if param.Pattern != "" {
		schema["pattern"] = param.Pattern
	}

	return schema
}

func getOpenAIType(paramType factagent.ParameterType) string {
	switch paramType {
	case factagent.TypeString:
		return "string"
	case factagent.TypeNumber:
		return "number"
	case factagent.TypeInteger:
		return "integer"
	case factagent.TypeBoolean:
		return "boolean"
	case factagent.TypeArray:
		return "array"
	case factagent.TypeObject:
		return "object"
	default:
		return "string"
	}
}
