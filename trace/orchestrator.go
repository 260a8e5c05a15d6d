package trace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
)

// Delegatable is the capability an orchestrated target must expose: a stable
// identifying name and an execute entry point. The orchestrator depends on
// nothing else about the target.
type Delegatable interface {
	Name() string
	Execute(ctx context.Context, input string) (string, error)
}

type workflowKey struct{}

// Workflow tracks one multi-agent workflow as a single parent span. It is
// created by StartWorkflow, mutated by Delegate calls, and finalized exactly
// once by Close.
type Workflow struct {
	name string
	span *Span

	mu           sync.Mutex
	calls        int
	participants []string
	closed       bool
}

// StartWorkflow opens the workflow parent span and installs the workflow in
// the returned context so sub-agent tools can route their calls through it.
func StartWorkflow(ctx context.Context, workflowName, userInput string) (context.Context, *Workflow) {
	ctx, span := StartSpan(ctx, "agent.multi_agent_workflow."+workflowName, userInput,
		attribute.String("workflow_name", workflowName),
		attribute.String("operation_type", "multi_agent_workflow"),
	)

	w := &Workflow{
		name: workflowName,
		span: span,
	}
	return context.WithValue(ctx, workflowKey{}, w), w
}

// WorkflowFrom returns the active workflow, or nil when the chain is not
// running under an orchestrator.
func WorkflowFrom(ctx context.Context) *Workflow {
	w, _ := ctx.Value(workflowKey{}).(*Workflow)
	return w
}

// Delegate invokes the target under a "{workflow}_to_{target}" child span,
// records the outcome, and returns the target's result untouched. Failed
// delegations are not retried here; the error propagates to the caller.
func (w *Workflow) Delegate(ctx context.Context, target Delegatable, taskName, input string) (string, error) {
	targetName := target.Name()
	if targetName == "" {
		targetName = "unknown_agent"
	}

	w.mu.Lock()
	w.calls++
	found := false
	for _, p := range w.participants {
		if p == targetName {
			found = true
			break
		}
	}
	if !found {
		w.participants = append(w.participants, targetName)
	}
	w.mu.Unlock()

	ctx, span := StartSpan(ctx, "agent."+w.name+"_to_"+targetName+".delegate", input,
		attribute.String("delegating_agent", w.name),
		attribute.String("target_agent", targetName),
		attribute.String("task_description", taskName),
		attribute.String("operation_type", "agent_delegation"),
	)

	result, err := target.Execute(ctx, input)
	if err != nil {
		span.SetAttr("delegation.success", false)
		span.SetAttr("delegation.error", err.Error())
		span.RecordOutput(err.Error(), false)
		span.End(err)
		return result, err
	}

	span.SetAttr("delegation.success", true)
	span.RecordOutput(result, true)
	span.End(nil)
	return result, nil
}

// RecordOutput records the workflow's final output on the still-open parent
// span. Best effort; safe to call on a nil workflow.
func (w *Workflow) RecordOutput(output string) {
	if w == nil {
		return
	}
	w.span.RecordOutput(output, true)
}

// RecordIntermediate records a named intermediate result on the parent span.
func (w *Workflow) RecordIntermediate(stepName string, value any) {
	if w == nil {
		return
	}
	w.span.SetAttr("workflow.step."+stepName, truncate(stringify(value), stepPreviewLimit))
}

// Close finalizes the parent span with the delegation summary. The count
// reflects the number of Delegate calls; the participant list is deduplicated
// in order of first appearance. Only the first Close takes effect.
func (w *Workflow) Close(err error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	calls := w.calls
	participants := strings.Join(w.participants, ",")
	w.mu.Unlock()

	if err != nil {
		w.span.SetAttr("workflow.error.type", fmt.Sprintf("%T", err))
		w.span.SetAttr("workflow.error.message", err.Error())
	}

	w.span.SetAttr("workflow.delegations_count", calls)
	if participants != "" {
		w.span.SetAttr("workflow.agents_used", participants)
	}

	w.span.End(err)
}
