package gemini

import (
	"google.golang.org/genai"

	"github.com/cofacts/factagent"
)

// convertTool converts a tool spec to a Gemini function declaration.
func convertTool(tool factagent.Tool) *genai.FunctionDeclaration {
	spec := tool.Spec()

	// Gemini requires an empty slice for Required, not nil.
	required := spec.Required
	if required == nil {
		required = []string{}
	}

	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   required,
	}

	for name, param := range spec.Parameters {
		parameters.Properties[name] = convertParameterToSchema(param)
	}

	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  parameters,
	}
}

func convertParameterToSchema(param *factagent.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Type:        getGeminiType(param.Type),
		Description: param.Description,
		Title:       param.Title,
	}

	if len(param.Enum) > 0 {
		schema.Enum = param.Enum
	}

	if param.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range param.Properties {
			schema.Properties[name] = convertParameterToSchema(prop)
		}
		if len(param.Required) > 0 {
			schema.Required = param.Required
		} else {
			schema.Required = []string{}
		}
	}

	if param.Items != nil {
		schema.Items = convertParameterToSchema(param.Items)
	}

	if param.Type == factagent.TypeNumber || param.Type == factagent.TypeInteger {
		if param.Minimum != nil {
			minVal := *param.Minimum
			schema.Minimum = &minVal
		}
		if param.Maximum != nil {
			maxVal := *param.Maximum
			schema.Maximum = &maxVal
		}
	}

	if param.Type == factagent.TypeString {
		if param.MinLength != nil {
			minLen := int64(*param.MinLength)
			schema.MinLength = &minLen
		}
		if param.MaxLength != nil {
			maxLen := int64(*param.MaxLength)
			schema.MaxLength = &maxLen
		}
		if param.Pattern != "" {
			schema.Pattern = param.Pattern
		}
	}

	if param.Type == factagent.TypeArray {
		if param.MinItems != nil {
			minItems := int64(*param.MinItems)
			schema.MinItems = &minItems
		}
		if param.MaxItems != nil {
			maxItems := int64(*param.MaxItems)
			schema.MaxItems = &maxItems
		}
	}

	return schema
}

func getGeminiType(paramType factagent.ParameterType) genai.Type {
	switch paramType {
	case factagent.TypeString:
		return genai.TypeString
	case factagent.TypeNumber:
		return genai.TypeNumber
	case factagent.TypeInteger:
		return genai.TypeInteger
	case factagent.TypeBoolean:
		return genai.TypeBoolean
	case factagent.TypeArray:
		return genai.TypeArray
	case factagent.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
