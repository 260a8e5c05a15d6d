package trace_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cofacts/factagent/trace"
)

type fakeAgent struct {
	name    string
	execute func(ctx context.Context, input string) (string, error)
}

func (a *fakeAgent) Name() string { return a.name }

func (a *fakeAgent) Execute(ctx context.Context, input string) (string, error) {
	if a.execute != nil {
		return a.execute(ctx, input)
	}
	return "done by " + a.name, nil
}

func TestWorkflowDelegate(t *testing.T) {
	exporter := setupExporter(t)

	ctx, w := trace.StartWorkflow(context.Background(), "cofacts_factcheck", "check this")

	result, err := w.Delegate(ctx, &fakeAgent{name: "investigator"}, "research_claims", "the claim")
	gt.NoError(t, err)
	gt.Equal(t, result, "done by investigator")

	w.Close(nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 2)

	var delegation, parent *tracetest.SpanStub
	for i := range spans {
		switch spans[i].Name {
		case "agent.cofacts_factcheck_to_investigator.delegate":
			delegation = &spans[i]
		case "agent.multi_agent_workflow.cofacts_factcheck":
			parent = &spans[i]
		}
	}
	gt.Value(t, delegation).NotNil()
	gt.Value(t, parent).NotNil()
	gt.Equal(t, delegation.Parent.SpanID(), parent.SpanContext.SpanID())

	target, ok := findAttr(*delegation, "target_agent")
	gt.True(t, ok)
	gt.Equal(t, target.AsString(), "investigator")

	task, ok := findAttr(*delegation, "task_description")
	gt.True(t, ok)
	gt.Equal(t, task.AsString(), "research_claims")

	opType, ok := findAttr(*delegation, "operation_type")
	gt.True(t, ok)
	gt.Equal(t, opType.AsString(), "agent_delegation")

	success, ok := findAttr(*delegation, "delegation.success")
	gt.True(t, ok)
	gt.Equal(t, success.AsString(), "true")
}

func TestWorkflowSummary(t *testing.T) {
	exporter := setupExporter(t)

	ctx, w := trace.StartWorkflow(context.Background(), "cofacts_factcheck", "check this")

	agents := []string{"investigator", "verifier", "investigator"}
	for _, name := range agents {
		_, err := w.Delegate(ctx, &fakeAgent{name: name}, "task", "input")
		gt.NoError(t, err)
	}
	w.Close(nil)

	spans := exporter.GetSpans()
	var parent *tracetest.SpanStub
	for i := range spans {
		if spans[i].Name == "agent.multi_agent_workflow.cofacts_factcheck" {
			parent = &spans[i]
		}
	}
	gt.Value(t, parent).NotNil()

	// Count reflects every delegation, including repeats.
	count, ok := findAttr(*parent, "workflow.delegations_count")
	gt.True(t, ok)
	gt.Equal(t, count.AsString(), "3")

	// Participants are deduplicated in first-appearance order.
	used, ok := findAttr(*parent, "workflow.agents_used")
	gt.True(t, ok)
	gt.Equal(t, used.AsString(), "investigator,verifier")
}

func TestWorkflowDelegateError(t *testing.T) {
	exporter := setupExporter(t)
	sentinel := errors.New("sub-agent failed")

	ctx, w := trace.StartWorkflow(context.Background(), "cofacts_factcheck", "check this")

	failing := &fakeAgent{
		name: "verifier",
		execute: func(ctx context.Context, input string) (string, error) {
			return "", sentinel
		},
	}
	_, err := w.Delegate(ctx, failing, "verify_sources", "input")
	gt.True(t, errors.Is(err, sentinel))

	w.Close(err)

	spans := exporter.GetSpans()
	var delegation, parent *tracetest.SpanStub
	for i := range spans {
		switch spans[i].Name {
		case "agent.cofacts_factcheck_to_verifier.delegate":
			delegation = &spans[i]
		case "agent.multi_agent_workflow.cofacts_factcheck":
			parent = &spans[i]
		}
	}
	gt.Value(t, delegation).NotNil()
	gt.Equal(t, delegation.Status.Code, codes.Error)

	delegated, ok := findAttr(*delegation, "delegation.success")
	gt.True(t, ok)
	gt.Equal(t, delegated.AsString(), "false")

	delegationErr, ok := findAttr(*delegation, "delegation.error")
	gt.True(t, ok)
	gt.Equal(t, delegationErr.AsString(), "sub-agent failed")

	gt.Value(t, parent).NotNil()
	errMsg, ok := findAttr(*parent, "workflow.error.message")
	gt.True(t, ok)
	gt.Equal(t, errMsg.AsString(), "sub-agent failed")

	_, ok = findAttr(*parent, "workflow.error.type")
	gt.True(t, ok)
}

func TestWorkflowCloseOnce(t *testing.T) {
	exporter := setupExporter(t)

	_, w := trace.StartWorkflow(context.Background(), "cofacts_factcheck", "input")
	w.Close(nil)
	w.Close(errors.New("ignored"))

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)
	gt.NotEqual(t, spans[0].Status.Code, codes.Error)
}

func TestWorkflowFrom(t *testing.T) {
	gt.Value(t, trace.WorkflowFrom(context.Background())).Nil()

	setupExporter(t)
	ctx, w := trace.StartWorkflow(context.Background(), "cofacts_factcheck", "input")
	gt.Equal(t, trace.WorkflowFrom(ctx), w)
	w.Close(nil)
}

func TestWorkflowNilSafe(t *testing.T) {
	var w *trace.Workflow
	w.RecordOutput("out")
	w.RecordIntermediate("step", "v")
}

func TestWorkflowUnknownAgentName(t *testing.T) {
	exporter := setupExporter(t)

	ctx, w := trace.StartWorkflow(context.Background(), "cofacts_factcheck", "input")
	_, err := w.Delegate(ctx, &fakeAgent{name: ""}, "task", "input")
	gt.NoError(t, err)
	w.Close(nil)

	spans := exporter.GetSpans()
	found := false
	for _, s := range spans {
		if s.Name == "agent.cofacts_factcheck_to_unknown_agent.delegate" {
			found = true
		}
	}
	gt.True(t, found)
}
