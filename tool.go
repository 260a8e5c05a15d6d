package factagent

import (
	"context"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// ToolSpec is the specification of a tool.
// It defines the interface and behavior of a tool that can be used by LLMs.
type ToolSpec struct {
	// Name is the unique identifier for the tool.
	// It must be unique across all tools in the system.
	Name string

	// Description is a human-readable description of what the tool does.
	// It should be clear and concise to help LLMs understand the tool's purpose.
	Description string

	// Parameters defines the input parameters that the tool accepts.
	Parameters map[string]*Parameter

	// Required is the list of required parameter names.
	Required []string
}

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}

	for _, param := range s.Parameters {
		if err := param.Validate(); err != nil {
			return eb.Wrap(ErrInvalidTool, "invalid parameter")
		}
	}

	for _, req := range s.Required {
		if _, ok := s.Parameters[req]; !ok {
			return eb.Wrap(ErrInvalidTool, "required parameter not found", goerr.V("parameter", req))
		}
	}

	return nil
}

// ParameterType is the type of a parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeInteger ParameterType = "integer"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// Parameter is a parameter of a tool.
// It defines the specification and constraints of a single input parameter.
type Parameter struct {
	// Title is the user-friendly name of the parameter.
	Title string

	// Type is the type of the parameter.
	Type ParameterType

	// Description is the description of the parameter.
	Description string

	// Required is the list of required field names when Type is Object.
	Required []string

	// Enum is the list of allowed values for the parameter.
	Enum []string

	// Properties is the properties of the parameter for object types.
	Properties map[string]*Parameter

	// Items is the element type for array parameters.
	Items *Parameter

	// Number constraints.
	Minimum *float64
	Maximum *float64

	// String constraints.
	MinLength *int
	MaxLength *int
	Pattern   string

	// Array constraints.
	MinItems *int
	MaxItems *int

	// Default value for the parameter.
	Default any
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("parameter", p))

	if p.Type == "" {
		return eb.Wrap(ErrInvalidParameter, "type is required")
	}

	if p.Type == TypeObject {
		if p.Properties == nil {
			return eb.Wrap(ErrInvalidParameter, "properties is required for object type")
		}
		for _, prop := range p.Properties {
			if err := prop.Validate(); err != nil {
				return eb.Wrap(ErrInvalidParameter, "invalid property")
			}
		}
		for _, req := range p.Required {
			if _, ok := p.Properties[req]; !ok {
				return eb.Wrap(ErrInvalidParameter, "required field not found in properties", goerr.V("field", req))
			}
		}
	}

	if p.Type == TypeArray {
		if p.Items == nil {
			return eb.Wrap(ErrInvalidParameter, "items is required for array type")
		}
		if err := p.Items.Validate(); err != nil {
			return eb.Wrap(ErrInvalidParameter, "invalid items")
		}
		if p.MinItems != nil && p.MaxItems != nil && *p.MinItems > *p.MaxItems {
			return eb.Wrap(ErrInvalidParameter, "minItems must be less than or equal to maxItems")
		}
	}

	if p.Type == TypeNumber || p.Type == TypeInteger {
		if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
			return eb.Wrap(ErrInvalidParameter, "minimum must be less than or equal to maximum")
		}
	}

	if p.Type == TypeString {
		if p.MinLength != nil && p.MaxLength != nil && *p.MinLength > *p.MaxLength {
			return eb.Wrap(ErrInvalidParameter, "minLength must be less than or equal to maxLength")
		}
		if p.Pattern != "" {
			if _, err := regexp.Compile(p.Pattern); err != nil {
				return eb.Wrap(ErrInvalidParameter, "invalid pattern", goerr.V("pattern", p.Pattern))
			}
		}
	}

	return nil
}

// Tool is specification and execution of an action that can be called by the LLM.
type Tool interface {
	// Spec returns the specification of the tool. It's called when starting an
	// LLM session to register the tool with the LLM.
	Spec() ToolSpec

	// Run is the execution of the tool. Even if the method returns an error,
	// the agent loop is not aborted; the error is passed back to the LLM as a
	// tool response.
	Run(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ToolSet is a set of tools managed as a single unit, such as all tools backed
// by one external API client or one MCP server.
type ToolSet interface {
	// Specs returns the specifications of the tools in the set.
	Specs(ctx context.Context) ([]ToolSpec, error)

	// Run executes the named tool in the set.
	Run(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}
