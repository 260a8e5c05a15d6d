package factagent

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent/trace"
)

// SubAgent exposes an Agent as a tool so a parent agent can delegate to it.
// When the call chain runs under an active workflow orchestrator, the
// delegation is routed through it so the workflow span records the
// participant; otherwise the sub-agent is invoked directly.
type SubAgent struct {
	name        string
	description string
	agent       *Agent
	taskName    string
}

// SubAgentOption is the type for options when creating a SubAgent.
type SubAgentOption func(*SubAgent)

// WithTaskName sets the task description recorded on delegation spans.
// Defaults to the sub-agent's tool name.
func WithTaskName(taskName string) SubAgentOption {
	return func(s *SubAgent) {
		s.taskName = taskName
	}
}

// NewSubAgent creates a SubAgent tool wrapping an existing agent. The
// description helps the parent LLM decide when to delegate.
func NewSubAgent(name, description string, agent *Agent, opts ...SubAgentOption) *SubAgent {
	s := &SubAgent{
		name:        name,
		description: description,
		agent:       agent,
		taskName:    name,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the sub-agent's identifying name for delegation records.
func (s *SubAgent) Name() string {
	return s.agent.Name()
}

// Execute runs the underlying agent with the given input.
func (s *SubAgent) Execute(ctx context.Context, input string) (string, error) {
	return s.agent.Execute(ctx, input)
}

// Spec returns the ToolSpec for this SubAgent: a single "query" parameter
// carrying the natural-language task.
func (s *SubAgent) Spec() ToolSpec {
	return ToolSpec{
		Name:        s.name,
		Description: s.description,
		Parameters: map[string]*Parameter{
			"query": {
				Type:        TypeString,
				Description: "Natural language query to send to the subagent",
			},
		},
		Required: []string{"query"},
	}
}

// Run executes the SubAgent as a tool call.
func (s *SubAgent) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	queryVal, ok := args["query"]
	if !ok {
		return nil, goerr.Wrap(ErrInvalidParameter, "query parameter is required")
	}
	query, ok := queryVal.(string)
	if !ok {
		return nil, goerr.Wrap(ErrInvalidParameter, "query parameter must be a string")
	}

	var response string
	var err error
	if w := trace.WorkflowFrom(ctx); w != nil {
		response, err = w.Delegate(ctx, s, s.taskName, query)
	} else {
		response, err = s.Execute(ctx, query)
	}
	if err != nil {
		return map[string]any{
			"response": "",
			"status":   "error",
		}, goerr.Wrap(err, "subagent execution failed")
	}

	return map[string]any{
		"response": response,
		"status":   "success",
	}, nil
}
