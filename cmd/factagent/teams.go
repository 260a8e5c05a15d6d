package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/cofacts/factagent"
	"github.com/cofacts/factagent/agents"
	"github.com/cofacts/factagent/apis/cofacts"
	"github.com/cofacts/factagent/apis/discord"
	"github.com/cofacts/factagent/apis/github"
	"github.com/cofacts/factagent/apis/hackmd"
	"github.com/cofacts/factagent/llm/gemini"
	"github.com/cofacts/factagent/llm/openai"
)

func newLLMClient(ctx context.Context, cmd *cli.Command) (factagent.LLMClient, error) {
	model := cmd.String("model")

	switch backend := cmd.String("llm"); backend {
	case "gemini":
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		return gemini.New(ctx, opts...)
	case "openai":
		var opts []openai.Option
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		return openai.New(ctx, opts...)
	default:
		return nil, goerr.New("unknown LLM backend", goerr.V("backend", backend))
	}
}

// mcpToolSets builds tool sets for the MCP servers configured on the command
// line, e.g. the HackMD MCP server over stdio. Server processes inherit the
// parent environment, which carries their credentials.
func mcpToolSets(cmd *cli.Command) ([]factagent.ToolSet, error) {
	var sets []factagent.ToolSet
	for _, command := range cmd.StringSlice("mcp-stdio") {
		parts := strings.Fields(command)
		if len(parts) == 0 {
			return nil, goerr.New("empty mcp-stdio command")
		}
		sets = append(sets, factagent.NewMCPStdio(parts[0], parts[1:]))
	}
	for _, baseURL := range cmd.StringSlice("mcp-sse") {
		sets = append(sets, factagent.NewMCPSSE(baseURL))
	}
	return sets, nil
}

func buildTeams(ctx context.Context, cmd *cli.Command, logger *slog.Logger) (*agents.FactCheckTeam, *agents.SecretaryTeam, error) {
	llmClient, err := newLLMClient(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}

	factCheck := agents.NewFactCheckTeam(llmClient,
		cofacts.NewToolSet(cofacts.New()),
		agents.WithLogger(logger),
	)

	secretaryOpts := []factagent.Option{factagent.WithLogger(logger)}
	mcpSets, err := mcpToolSets(cmd)
	if err != nil {
		return nil, nil, err
	}
	if len(mcpSets) > 0 {
		secretaryOpts = append(secretaryOpts, factagent.WithToolSets(mcpSets...))
	}

	secretary := agents.NewSecretary(llmClient,
		hackmd.NewToolSet(hackmd.New()),
		github.NewToolSet(github.New()),
		discord.NewToolSet(discord.New()),
		secretaryOpts...,
	)

	return factCheck, agents.NewSecretaryTeam(secretary, agents.WithLogger(logger)), nil
}
