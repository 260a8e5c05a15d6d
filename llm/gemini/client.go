// Package gemini is the Gemini backend for the agent runtime.
package gemini

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/cofacts/factagent"
)

const (
	DefaultModel = "gemini-2.5-flash"
)

// Client is a client for the Gemini API.
type Client struct {
	client *genai.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	apiKey string

	// Vertex AI backend fields. When projectID is set the client talks to
	// Vertex AI instead of the Gemini API.
	projectID string
	location  string

	generationConfig *genai.GenerateContentConfig
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
func WithModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithAPIKey sets the Gemini API key. Defaults to the GEMINI_API_KEY
// environment variable.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithVertexAI switches the client to the Vertex AI backend for the given
// project and location.
func WithVertexAI(projectID, location string) Option {
	return func(c *Client) {
		c.projectID = projectID
		c.location = location
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 2.0
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		if c.generationConfig == nil {
			c.generationConfig = &genai.GenerateContentConfig{}
		}
		c.generationConfig.Temperature = &temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		if c.generationConfig == nil {
			c.generationConfig = &genai.GenerateContentConfig{}
		}
		c.generationConfig.MaxOutputTokens = maxTokens
	}
}

// New creates a new client for the Gemini API.
func New(ctx context.Context, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: DefaultModel,
		apiKey:       os.Getenv("GEMINI_API_KEY"),
	}

	for _, option := range options {
		option(client)
	}

	config := &genai.ClientConfig{}
	if client.projectID != "" {
		config.Project = client.projectID
		config.Location = client.location
		config.Backend = genai.BackendVertexAI
	} else {
		if client.apiKey == "" {
			return nil, goerr.Wrap(factagent.ErrNoCredential, "GEMINI_API_KEY is not set")
		}
		config.APIKey = client.apiKey
		config.Backend = genai.BackendGeminiAPI
	}

	newClient, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	client.client = newClient
	return client, nil
}

// NewSession creates a new chat session. It converts the provided tools to
// Gemini's function declarations.
func (c *Client) NewSession(ctx context.Context, options ...factagent.SessionOption) (factagent.Session, error) {
	cfg := factagent.NewSessionConfig(options...)

	config := &genai.GenerateContentConfig{}
	if c.generationConfig != nil {
		*config = *c.generationConfig
	}

	if prompt := cfg.SystemPrompt(); prompt != "" {
		config.SystemInstruction = &genai.Content{
			Role: "system",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		}
	}

	if tools := cfg.Tools(); len(tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, len(tools))
		for i, tool := range tools {
			declarations[i] = convertTool(tool)
		}
		config.Tools = []*genai.Tool{
			{FunctionDeclarations: declarations},
		}
	}

	return &Session{
		client: c.client,
		model:  c.defaultModel,
		config: config,
	}, nil
}

// Session is a session for the Gemini chat. It maintains the conversation
// history across Generate calls.
type Session struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	history []*genai.Content
}

func (s *Session) convertInputs(input ...factagent.Input) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(input))

	for _, in := range input {
		switch v := in.(type) {
		case factagent.Text:
			parts = append(parts, &genai.Part{Text: string(v)})
		case factagent.FunctionResponse:
			if v.Error != nil {
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name: v.Name,
						Response: map[string]any{
							"error_message": fmt.Sprintf("%+v", v.Error),
						},
					},
				})
			} else {
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name:     v.Name,
						Response: v.Data,
					},
				})
			}
		default:
			return nil, goerr.Wrap(factagent.ErrInvalidParameter, "invalid input type for Gemini")
		}
	}
	return parts, nil
}

// Generate sends the input to the model and returns the response, appending
// both to the session history.
func (s *Session) Generate(ctx context.Context, input ...factagent.Input) (*factagent.Response, error) {
	parts, err := s.convertInputs(input...)
	if err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(s.history), len(s.history)+2)
	copy(contents, s.history)
	if len(parts) > 0 {
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: parts,
		})
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	response := processResponse(result)

	// Append the turn to the history.
	if len(parts) > 0 {
		s.history = append(s.history, &genai.Content{Role: "user", Parts: parts})
	}
	var modelParts []*genai.Part
	for _, text := range response.Texts {
		modelParts = append(modelParts, &genai.Part{Text: text})
	}
	for _, fc := range response.FunctionCalls {
		modelParts = append(modelParts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				Name: fc.Name,
				Args: fc.Arguments,
			},
		})
	}
	if len(modelParts) > 0 {
		s.history = append(s.history, &genai.Content{Role: "model", Parts: modelParts})
	}

	return response, nil
}

func processResponse(resp *genai.GenerateContentResponse) *factagent.Response {
	response := &factagent.Response{}

	if resp.UsageMetadata != nil {
		response.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		response.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				response.Texts = append(response.Texts, part.Text)
			}

			if part.FunctionCall != nil {
				// Gemini does not assign call IDs; synthesize one.
				response.FunctionCalls = append(response.FunctionCalls, &factagent.FunctionCall{
					ID:        fmt.Sprintf("%s_%d", part.FunctionCall.Name, time.Now().UnixNano()),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}

	return response
}
