// Package agents defines the Cofacts fact-checking agent team and the
// secretary assistant: declarative agent definitions (instructions bound to a
// model and a tool list) plus the workflow that orchestrates them.
package agents

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cofacts/factagent"
	"github.com/cofacts/factagent/apis/cofacts"
	"github.com/cofacts/factagent/apis/discord"
	"github.com/cofacts/factagent/apis/github"
	"github.com/cofacts/factagent/apis/hackmd"
)

// NewInvestigator builds the deep-research agent. It searches the Cofacts
// database and gathers credible sources for the claims in a message.
func NewInvestigator(llm factagent.LLMClient, cofactsTools *cofacts.ToolSet, opts ...factagent.Option) *factagent.Agent {
	options := []factagent.Option{
		factagent.WithDescription("AI agent specialized in deep research for fact-checking, including Cofacts database search and web investigation."),
		factagent.WithInstruction(investigatorInstruction),
		factagent.WithToolSets(cofactsTools),
	}
	return factagent.New("investigator", llm, append(options, opts...)...)
}

// NewVerifier builds the source-verification agent. It has no tools; it
// relies on the model's own URL context capabilities.
func NewVerifier(llm factagent.LLMClient, opts ...factagent.Option) *factagent.Agent {
	options := []factagent.Option{
		factagent.WithDescription("AI agent specialized in verifying claims against provided sources and URLs."),
		factagent.WithInstruction(verifierInstruction),
	}
	return factagent.New("verifier", llm, append(options, opts...)...)
}

// NewProofreaders builds the three political-perspective reviewers.
func NewProofreaders(llm factagent.LLMClient, opts ...factagent.Option) []*factagent.Agent {
	perspectives := []struct {
		name        string
		instruction string
	}{
		{"proofreader_progressive", proofreaderProgressiveInstruction},
		{"proofreader_conservative", proofreaderConservativeInstruction},
		{"proofreader_centrist", proofreaderCentristInstruction},
	}

	agents := make([]*factagent.Agent, 0, len(perspectives))
	for _, p := range perspectives {
		options := []factagent.Option{
			factagent.WithDescription("AI agent that reviews fact-check replies from a " + p.name[len("proofreader_"):] + " political perspective."),
			factagent.WithInstruction(p.instruction),
		}
		agents = append(agents, factagent.New(p.name, llm, append(options, opts...)...))
	}
	return agents
}

// NewWriter builds the orchestrating writer agent with the given sub-agents
// exposed as delegation tools.
func NewWriter(llm factagent.LLMClient, cofactsTools *cofacts.ToolSet, subAgents []*factagent.SubAgent, opts ...factagent.Option) *factagent.Agent {
	tools := make([]factagent.Tool, 0, len(subAgents))
	for _, sa := range subAgents {
		tools = append(tools, sa)
	}

	options := []factagent.Option{
		factagent.WithDescription("AI agent that orchestrates the fact-checking process and composes final fact-check replies for Cofacts."),
		factagent.WithInstruction(fmt.Sprintf(writerInstruction, time.Now().Format("2006-01-02"))),
		factagent.WithToolSets(cofactsTools),
		factagent.WithTools(tools...),
	}
	return factagent.New("writer", llm, append(options, opts...)...)
}

// NewSecretary builds the meeting-notes assistant with HackMD, GitHub, and
// Discord tools.
func NewSecretary(llm factagent.LLMClient, hackmdTools *hackmd.ToolSet, githubTools *github.ToolSet, discordTools *discord.ToolSet, opts ...factagent.Option) *factagent.Agent {
	options := []factagent.Option{
		factagent.WithDescription("Agent to interact with HackMD documents, create GitHub issues, read GitHub issues, pull requests, and comments, and read Discord channel messages."),
		factagent.WithInstruction(fmt.Sprintf(secretaryInstruction, time.Now().Format("2006-01-02"))),
		factagent.WithToolSets(hackmdTools, githubTools, discordTools),
	}
	return factagent.New("hackmd_agent", llm, append(options, opts...)...)
}

// TeamOption is a functional option shared by team constructors.
type TeamOption func(*teamConfig)

type teamConfig struct {
	logger       *slog.Logger
	agentOptions []factagent.Option
}

// WithLogger sets the logger propagated to every agent in the team.
func WithLogger(logger *slog.Logger) TeamOption {
	return func(c *teamConfig) {
		c.logger = logger
		c.agentOptions = append(c.agentOptions, factagent.WithLogger(logger))
	}
}
