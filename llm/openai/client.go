// Package openai is the OpenAI backend for the agent runtime.
package openai

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/cofacts/factagent"
)

const DefaultModel = "gpt-4o"

// Client is a client for the OpenAI chat API.
type Client struct {
	client       *openai.Client
	defaultModel string
	apiKey       string
}

// Option is a configuration option for the OpenAI client.
type Option func(*Client)

// WithModel sets the model to use for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithAPIKey sets the API key. Defaults to the OPENAI_API_KEY environment
// variable.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// New creates a new client for the OpenAI API.
func New(ctx context.Context, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: DefaultModel,
		apiKey:       os.Getenv("OPENAI_API_KEY"),
	}

	for _, option := range options {
		option(client)
	}

	if client.apiKey == "" {
		return nil, goerr.Wrap(factagent.ErrNoCredential, "OPENAI_API_KEY is not set")
	}
	client.client = openai.NewClient(client.apiKey)

	return client, nil
}

// NewSession creates a new session for the OpenAI chat API.
func (c *Client) NewSession(ctx context.Context, options ...factagent.SessionOption) (factagent.Session, error) {
	cfg := factagent.NewSessionConfig(options...)

	openaiTools := make([]openai.Tool, len(cfg.Tools()))
	for i, tool := range cfg.Tools() {
		openaiTools[i] = convertTool(tool)
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		tools:        openaiTools,
	}

	if prompt := cfg.SystemPrompt(); prompt != "" {
		session.messages = append(session.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		})
	}

	return session, nil
}

// Session is a session for the OpenAI chat.
type Session struct {
	client       *openai.Client
	defaultModel string
	tools        []openai.Tool
	messages     []openai.ChatCompletionMessage
}

// Generate sends the input to the model and returns the response.
func (s *Session) Generate(ctx context.Context, input ...factagent.Input) (*factagent.Response, error) {
	for _, in := range input {
		switch v := in.(type) {
		case factagent.Text:
			s.messages = append(s.messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: string(v),
			})
		case factagent.FunctionResponse:
			var content string
			if v.Error != nil {
				raw, err := json.Marshal(map[string]any{"error_message": v.Error.Error()})
				if err != nil {
					return nil, goerr.Wrap(err, "failed to marshal function error")
				}
				content = string(raw)
			} else {
				raw, err := json.Marshal(v.Data)
				if err != nil {
					return nil, goerr.Wrap(err, "failed to marshal function response")
				}
				content = string(raw)
			}
			s.messages = append(s.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: v.ID,
			})
		default:
			return nil, goerr.Wrap(factagent.ErrInvalidParameter, "invalid input type for OpenAI")
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    s.defaultModel,
		Messages: s.messages,
	}
	if len(s.tools) > 0 {
		req.Tools = s.tools
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion")
	}

	if len(resp.Choices) == 0 {
		return &factagent.Response{}, nil
	}

	response := &factagent.Response{
		InputToken:  resp.Usage.PromptTokens,
		OutputToken: resp.Usage.CompletionTokens,
	}

	message := resp.Choices[0].Message
	s.messages = append(s.messages, message)

	if message.Content != "" {
		response.Texts = append(response.Texts, message.Content)
	}

	for _, toolCall := range message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tool arguments",
				goerr.V("arguments", toolCall.Function.Arguments),
			)
		}

		response.FunctionCalls = append(response.FunctionCalls, &factagent.FunctionCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: args,
		})
	}

	return response, nil
}
