package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cofacts/factagent"
	"github.com/cofacts/factagent/apis/cofacts"
	"github.com/cofacts/factagent/redirect"
	"github.com/cofacts/factagent/trace"
)

const factCheckWorkflow = "cofacts_factcheck"

// FactCheckTeam wires the writer orchestrator and its sub-agents into one
// fact-checking workflow.
type FactCheckTeam struct {
	writer   *factagent.Agent
	resolver *redirect.Resolver
	logger   *slog.Logger
}

// NewFactCheckTeam assembles the full agent hierarchy: the writer as
// orchestrator with the investigator, verifier, and three proofreaders
// available as delegation tools.
func NewFactCheckTeam(llm factagent.LLMClient, cofactsTools *cofacts.ToolSet, opts ...TeamOption) *FactCheckTeam {
	cfg := &teamConfig{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	investigator := NewInvestigator(llm, cofactsTools, cfg.agentOptions...)
	verifier := NewVerifier(llm, cfg.agentOptions...)
	proofreaders := NewProofreaders(llm, cfg.agentOptions...)

	subAgents := []*factagent.SubAgent{
		factagent.NewSubAgent("ai_investigator", investigator.Description(), investigator,
			factagent.WithTaskName("research_claims")),
		factagent.NewSubAgent("ai_verifier", verifier.Description(), verifier,
			factagent.WithTaskName("verify_sources")),
	}
	for _, pr := range proofreaders {
		subAgents = append(subAgents, factagent.NewSubAgent("ai_"+pr.Name(), pr.Description(), pr,
			factagent.WithTaskName("review_reply")))
	}

	return &FactCheckTeam{
		writer:   NewWriter(llm, cofactsTools, subAgents, cfg.agentOptions...),
		resolver: redirect.New(),
		logger:   cfg.logger,
	}
}

// FactCheck runs one fact-checking conversation turn over the suspicious
// message. The whole run is tracked as a multi-agent workflow span; sub-agent
// delegations appear as child spans. Redirect-service URLs in the reply are
// resolved to their destinations before returning.
//
// On failure the returned text is a user-facing degradation message carrying
// the conversation id so the trace can be inspected; the error is returned
// alongside for the caller's own handling.
func (t *FactCheckTeam) FactCheck(ctx context.Context, message string) (string, error) {
	ctx = trace.EnsureConversation(ctx)
	conversationID := trace.GetOrCreateID(ctx)

	ctx, workflow := trace.StartWorkflow(ctx, factCheckWorkflow, message)

	reply, err := t.writer.Execute(ctx, message)
	if err != nil {
		workflow.Close(err)
		t.logger.Error("fact-check workflow failed", "conversation_id", conversationID, "error", err)
		degraded := fmt.Sprintf(
			"I couldn't complete the fact-check for this message. Please try again later. (conversation %s)",
			conversationID,
		)
		return degraded, err
	}

	if resolved, changed := t.resolver.Rewrite(ctx, reply); changed {
		workflow.RecordIntermediate("redirects_resolved", true)
		reply = resolved
	}

	workflow.RecordOutput(reply)
	workflow.Close(nil)
	return reply, nil
}

// SecretaryTeam wraps the secretary assistant for HackMD/GitHub/Discord
// conversations.
type SecretaryTeam struct {
	secretary *factagent.Agent
	logger    *slog.Logger
}

// NewSecretaryTeam assembles the secretary assistant.
func NewSecretaryTeam(secretary *factagent.Agent, opts ...TeamOption) *SecretaryTeam {
	cfg := &teamConfig{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &SecretaryTeam{
		secretary: secretary,
		logger:    cfg.logger,
	}
}

// Chat runs one secretary conversation turn.
func (t *SecretaryTeam) Chat(ctx context.Context, message string) (string, error) {
	ctx = trace.EnsureConversation(ctx)
	conversationID := trace.GetOrCreateID(ctx)

	reply, err := t.secretary.Execute(ctx, message)
	if err != nil {
		t.logger.Error("secretary turn failed", "conversation_id", conversationID, "error", err)
		return fmt.Sprintf(
			"I couldn't finish that request. Please try again later. (conversation %s)",
			conversationID,
		), err
	}
	return reply, nil
}
