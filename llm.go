package factagent

import (
	"context"
	"log/slog"
)

// LLMClient is a client for a hosted LLM service. The agent runtime treats the
// model as an opaque request/response capability.
type LLMClient interface {
	NewSession(ctx context.Context, options ...SessionOption) (Session, error)
}

// Session is a stateful chat session with an LLM. Implementations maintain the
// message history across Generate calls.
type Session interface {
	Generate(ctx context.Context, input ...Input) (*Response, error)
}

// SessionConfig holds the configuration assembled from SessionOption values.
type SessionConfig struct {
	systemPrompt string
	tools        []Tool
}

// NewSessionConfig builds a SessionConfig from options. Provider clients call
// this at the top of NewSession.
func NewSessionConfig(options ...SessionOption) SessionConfig {
	var cfg SessionConfig
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

func (c *SessionConfig) SystemPrompt() string { return c.systemPrompt }
func (c *SessionConfig) Tools() []Tool        { return c.tools }

// SessionOption is the type for options of a new LLM session.
type SessionOption func(*SessionConfig)

// WithSessionSystemPrompt sets the system prompt for the session.
func WithSessionSystemPrompt(prompt string) SessionOption {
	return func(c *SessionConfig) {
		c.systemPrompt = prompt
	}
}

// WithSessionTools sets the tools available to the LLM in the session.
func WithSessionTools(tools ...Tool) SessionOption {
	return func(c *SessionConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// FunctionCall is a tool invocation requested by the LLM.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Response is a general response type for one LLM generation.
type Response struct {
	Texts         []string
	FunctionCalls []*FunctionCall
	InputToken    int
	OutputToken   int
}

func (r *Response) HasData() bool {
	return len(r.Texts) > 0 || len(r.FunctionCalls) > 0
}

// Input is one element of a prompt turn: user text or a tool response.
type Input interface {
	isInput() restrictedValue
	LogValue() slog.Value
	String() string
}

type restrictedValue struct{}

// Text is a text input as prompt.
// Usage:
//
//	input := factagent.Text("Hello, world!")
type Text string

func (t Text) isInput() restrictedValue {
	return restrictedValue{}
}

func (t Text) LogValue() slog.Value {
	return slog.StringValue(string(t))
}

func (t Text) String() string {
	return string(t)
}

// FunctionResponse is the result of a tool call, fed back to the LLM.
type FunctionResponse struct {
	ID    string
	Name  string
	Data  map[string]any
	Error error
}

func (f FunctionResponse) isInput() restrictedValue {
	return restrictedValue{}
}

// String returns a string representation of the FunctionResponse.
func (f FunctionResponse) String() string {
	if f.Error != nil {
		return f.Name + " (error: " + f.Error.Error() + ")"
	}
	return f.Name + " (success)"
}

// LogValue returns a slog.Value for the FunctionResponse.
func (f FunctionResponse) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", f.ID),
		slog.String("name", f.Name),
	}

	if f.Data != nil {
		attrs = append(attrs, slog.Any("data", f.Data))
	}

	if f.Error != nil {
		attrs = append(attrs, slog.String("error", f.Error.Error()))
	}

	return slog.GroupValue(attrs...)
}
