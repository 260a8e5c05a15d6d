package trace

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
)

// AgentCall runs fn under an "agent.{name}.{operation}" span. The output is
// recorded truncated on success; on error the span is marked ERROR and the
// error is returned to the caller unchanged.
func AgentCall(ctx context.Context, agentName, operation, input string, fn func(ctx context.Context) (string, error)) (string, error) {
	ctx, span := StartSpan(ctx, "agent."+agentName+"."+operation, input,
		attribute.String("agent_name", agentName),
		attribute.String("agent_type", "llm_agent"),
		attribute.String("operation_type", "agent_interaction"),
	)

	result, err := fn(ctx)
	if err != nil {
		span.RecordOutput(err.Error(), false)
		span.End(err)
		return result, err
	}

	span.RecordOutput(result, true)
	span.End(nil)
	return result, nil
}

// ToolCall runs fn under a "tool.{name}" span, recording the arguments as the
// input preview and the result under the tool preview cap. When the arguments
// carry a recognizable user input, it is recorded as input.content alongside
// the raw input.data. Like AgentCall it only observes: the result and error
// pass through untouched.
func ToolCall(ctx context.Context, toolName string, args map[string]any, fn func(ctx context.Context) (map[string]any, error)) (map[string]any, error) {
	var input any
	if len(args) > 0 {
		input = args
	}
	ctx, span := StartSpan(ctx, "tool."+toolName, input,
		attribute.String("tool_name", toolName),
		attribute.String("tool_type", "function_call"),
		attribute.String("operation_type", "tool_execution"),
	)
	if preview := ExtractInput(args); preview != "" {
		span.SetAttr("input.content", truncate(preview, inputPreviewLimit))
	}

	result, err := fn(ctx)
	if err != nil {
		span.RecordToolResult(map[string]any{"error": err.Error()}, false)
		span.End(err)
		return result, err
	}

	span.RecordToolResult(result, true)
	span.End(nil)
	return result, nil
}

// ExtractInput pulls a best-effort user input string out of tool arguments:
// the conventional keys first, then the first string value in key order.
// ToolCall uses it for the input.content preview; it is advisory only and
// operations never depend on it.
func ExtractInput(args map[string]any) string {
	for _, key := range []string{"message", "input"} {
		if v, ok := args[key].(string); ok {
			return v
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v, ok := args[k].(string); ok {
			return v
		}
	}
	return ""
}
