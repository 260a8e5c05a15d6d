// Package factagent is an agent runtime for the Cofacts fact-checking
// assistants. An Agent binds a hosted LLM to an instruction prompt and a tool
// list, and Execute drives the generate/tool-dispatch loop until the model
// produces a final answer.
package factagent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent/trace"
)

const (
	DefaultLoopLimit = 32
)

// Agent is the core structure of the package.
type Agent struct {
	name        string
	description string
	llm         LLMClient

	loopLimit   int
	instruction string

	tools    []Tool
	toolSets []ToolSet

	msgCallback  MsgCallback
	toolCallback ToolCallback

	logger *slog.Logger
}

// MsgCallback is called for every text message generated by the LLM.
type MsgCallback func(ctx context.Context, msg string) error

// ToolCallback is called just before executing a tool. Returning an error
// aborts the Execute loop.
type ToolCallback func(ctx context.Context, call FunctionCall) error

func defaultMsgCallback(ctx context.Context, msg string) error         { return nil }
func defaultToolCallback(ctx context.Context, call FunctionCall) error { return nil }

// New creates a new agent bound to the given LLM client. The name identifies
// the agent in delegation records and trace spans.
func New(name string, llmClient LLMClient, options ...Option) *Agent {
	a := &Agent{
		name:         name,
		llm:          llmClient,
		loopLimit:    DefaultLoopLimit,
		msgCallback:  defaultMsgCallback,
		toolCallback: defaultToolCallback,
		logger:       slog.New(slog.DiscardHandler),
	}

	for _, opt := range options {
		opt(a)
	}

	return a
}

// Name returns the agent's identifying name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description, used when the agent is exposed
// as a sub-agent tool.
func (a *Agent) Description() string { return a.description }

// Option is the type for the options of an agent.
type Option func(*Agent)

// WithDescription sets a human-readable description of the agent.
func WithDescription(description string) Option {
	return func(a *Agent) {
		a.description = description
	}
}

// WithInstruction sets the system prompt for the agent.
func WithInstruction(instruction string) Option {
	return func(a *Agent) {
		a.instruction = instruction
	}
}

// WithLoopLimit sets the maximum number of loops for one Execute call (ask the
// LLM and run the requested tools is one loop).
func WithLoopLimit(loopLimit int) Option {
	return func(a *Agent) {
		a.loopLimit = loopLimit
	}
}

// WithTools adds tools to the agent.
func WithTools(tools ...Tool) Option {
	return func(a *Agent) {
		a.tools = append(a.tools, tools...)
	}
}

// WithToolSets adds tool sets to the agent.
func WithToolSets(toolSets ...ToolSet) Option {
	return func(a *Agent) {
		a.toolSets = append(a.toolSets, toolSets...)
	}
}

// WithMsgCallback sets a callback for text messages generated by the LLM.
func WithMsgCallback(callback MsgCallback) Option {
	return func(a *Agent) {
		a.msgCallback = callback
	}
}

// WithToolCallback sets a callback invoked just before each tool execution.
func WithToolCallback(callback ToolCallback) Option {
	return func(a *Agent) {
		a.toolCallback = callback
	}
}

// WithLogger sets the logger for the agent. Default is a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// Execute runs the agent with the given prompt and returns the final text
// response. The whole run is recorded as one agent span; each tool execution
// is recorded as a child span.
func (a *Agent) Execute(ctx context.Context, prompt string) (string, error) {
	logger := a.logger.With("factagent.request_id", uuid.New().String(), "agent", a.name)
	ctx = ctxWithLogger(ctx, logger)

	return trace.AgentCall(ctx, a.name, "process", prompt, func(ctx context.Context) (string, error) {
		return a.run(ctx, prompt)
	})
}

func (a *Agent) run(ctx context.Context, prompt string) (string, error) {
	logger := LoggerFromContext(ctx)
	logger.Info("starting agent execution", "prompt", prompt)

	toolMap, toolList, err := a.setupTools(ctx)
	if err != nil {
		return "", err
	}

	sessionOptions := []SessionOption{
		WithSessionSystemPrompt(a.instruction),
	}
	if len(toolList) > 0 {
		sessionOptions = append(sessionOptions, WithSessionTools(toolList...))
	}

	ssn, err := a.llm.NewSession(ctx, sessionOptions...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	var finalTexts []string
	input := []Input{Text(prompt)}

	for i := 0; i < a.loopLimit; i++ {
		logger.Debug("agent loop", "loop", i, "input", input)

		resp, err := ssn.Generate(ctx, input...)
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate response")
		}
		input = nil

		for _, text := range resp.Texts {
			if err := a.msgCallback(ctx, text); err != nil {
				return "", goerr.Wrap(err, "failed to call message callback")
			}
		}

		// The session ends when the LLM responds without any tool call.
		if len(resp.FunctionCalls) == 0 {
			finalTexts = resp.Texts
			break
		}

		for _, toolCall := range resp.FunctionCalls {
			logger.Debug("agent received tool request", "tool", toolCall.Name, "args", toolCall.Arguments)

			if err := a.toolCallback(ctx, *toolCall); err != nil {
				return "", goerr.Wrap(err, "failed to call tool callback")
			}

			tool, ok := toolMap[toolCall.Name]
			if !ok {
				logger.Info("agent tool not found", "call", toolCall)
				input = append(input, FunctionResponse{
					ID:    toolCall.ID,
					Name:  toolCall.Name,
					Error: goerr.New(toolCall.Name+" is not found", goerr.V("call", toolCall)),
				})
				continue
			}

			result, err := trace.ToolCall(ctx, toolCall.Name, toolCall.Arguments, func(ctx context.Context) (map[string]any, error) {
				return tool.Run(ctx, toolCall.Arguments)
			})
			if err != nil {
				logger.Info("agent tool error", "call", toolCall, "error", err)
				input = append(input, FunctionResponse{
					ID:    toolCall.ID,
					Name:  toolCall.Name,
					Error: goerr.Wrap(err, toolCall.Name+" failed to run", goerr.V("call", toolCall)),
				})
				continue
			}

			logger.Info("agent tool response", "call", toolCall, "result", result)

			// Sanitize the result into a generic JSON-compatible structure so
			// every provider can serialize it.
			if result != nil {
				marshaled, err := json.Marshal(result)
				if err != nil {
					return "", goerr.Wrap(err, "failed to marshal tool result")
				}
				var unmarshaled map[string]any
				if err := json.Unmarshal(marshaled, &unmarshaled); err != nil {
					return "", goerr.Wrap(err, "failed to unmarshal tool result")
				}
				result = unmarshaled
			}

			input = append(input, FunctionResponse{
				ID:   toolCall.ID,
				Name: toolCall.Name,
				Data: result,
			})
		}

		if i == a.loopLimit-1 {
			return "", goerr.Wrap(ErrLoopLimitExceeded, "agent execution stopped", goerr.V("loop_limit", a.loopLimit))
		}
	}

	return strings.Join(finalTexts, "\n"), nil
}

func (a *Agent) setupTools(ctx context.Context) (map[string]Tool, []Tool, error) {
	toolMap, err := buildToolMap(ctx, a.tools, a.toolSets)
	if err != nil {
		return nil, nil, err
	}

	toolList := make([]Tool, 0, len(toolMap))
	toolNames := make([]string, 0, len(toolMap))
	for _, tool := range toolMap {
		toolList = append(toolList, tool)
		toolNames = append(toolNames, tool.Spec().Name)
	}
	LoggerFromContext(ctx).Debug("agent tool list", "names", toolNames)

	return toolMap, toolList, nil
}

type toolWrapper struct {
	spec ToolSpec
	run  func(ctx context.Context, args map[string]any) (map[string]any, error)
}

func (x *toolWrapper) Spec() ToolSpec {
	return x.spec
}

func (x *toolWrapper) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	return x.run(ctx, args)
}

func buildToolMap(ctx context.Context, tools []Tool, toolSets []ToolSet) (map[string]Tool, error) {
	toolMap := map[string]Tool{}

	for _, tool := range tools {
		if _, ok := toolMap[tool.Spec().Name]; ok {
			return nil, goerr.Wrap(ErrToolNameConflict, "tool name conflict (builtin tools)", goerr.V("tool_name", tool.Spec().Name))
		}
		toolMap[tool.Spec().Name] = tool
	}

	for _, toolSet := range toolSets {
		specs, err := toolSet.Specs(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get tool set specs")
		}

		for _, spec := range specs {
			if _, ok := toolMap[spec.Name]; ok {
				return nil, goerr.Wrap(ErrToolNameConflict, "tool name conflict (tool sets)", goerr.V("tool_name", spec.Name))
			}
			toolMap[spec.Name] = &toolWrapper{
				spec: spec,
				run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
					return toolSet.Run(ctx, spec.Name, args)
				},
			}
		}
	}

	return toolMap, nil
}
