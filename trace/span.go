package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	tracerName  = "github.com/cofacts/factagent/trace"
	serviceName = "factagent"

	// Attribute payload caps, in characters. Full lengths are recorded
	// separately so the backend can tell a short value from a truncated one.
	inputPreviewLimit  = 1000
	outputPreviewLimit = 1000
	resultPreviewLimit = 500
	stepPreviewLimit   = 200
)

func tracer() otelTrace.Tracer {
	return otelAPI.GetTracerProvider().Tracer(tracerName)
}

// Span is a handle to one open trace span. All methods are nil-safe so
// callers never have to branch on whether tracing is configured.
type Span struct {
	span otelTrace.Span
}

// StartSpan opens a span with the uniform attribute contract: conversation id,
// service name, and a truncated input preview. Extra attributes are attached
// as-is. The returned context carries the span for child nesting.
func StartSpan(ctx context.Context, operationName string, inputData any, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := tracer().Start(ctx, operationName, otelTrace.WithSpanKind(otelTrace.SpanKindInternal))

	conversationID := GetOrCreateID(ctx)
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.String("conversation.session_id", conversationID),
		attribute.String("service.name", serviceName),
	)
	if conversationType, ok := ConversationType(ctx); ok {
		span.SetAttributes(attribute.String("conversation.type", conversationType))
	}

	switch input := inputData.(type) {
	case nil:
	case string:
		if input != "" {
			span.SetAttributes(
				attribute.String("input.content", truncate(input, inputPreviewLimit)),
				attribute.Int("input.length", utf8.RuneCountInString(input)),
			)
		}
	default:
		span.SetAttributes(attribute.String("input.data", truncate(stringify(input), inputPreviewLimit)))
	}

	span.SetAttributes(attrs...)

	return ctx, &Span{span: span}
}

// SetAttr attaches one stringified attribute. Nil values are dropped.
func (s *Span) SetAttr(key string, value any) {
	if s == nil || value == nil {
		return
	}
	s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
}

// RecordOutput records the operation's output preview and success flag.
func (s *Span) RecordOutput(output any, success bool) {
	if s == nil {
		return
	}

	switch v := output.(type) {
	case nil:
	case string:
		s.span.SetAttributes(
			attribute.String("output.content", truncate(v, outputPreviewLimit)),
			attribute.Int("output.length", utf8.RuneCountInString(v)),
		)
	default:
		s.span.SetAttributes(attribute.String("output.data", truncate(stringify(v), outputPreviewLimit)))
	}

	s.span.SetAttributes(attribute.Bool("operation.success", success))
	if success {
		s.span.SetStatus(codes.Ok, "")
	} else {
		s.span.SetStatus(codes.Error, "")
	}
}

// RecordToolResult records a tool execution result with a shorter preview cap
// and tool-specific summary attributes.
func (s *Span) RecordToolResult(result map[string]any, success bool) {
	if s == nil {
		return
	}

	if result != nil {
		resultStr := stringify(result)
		s.span.SetAttributes(
			attribute.Int("tool.result_length", utf8.RuneCountInString(resultStr)),
			attribute.String("tool.result_preview", truncate(resultStr, resultPreviewLimit)),
		)

		if data, ok := result["data"].(map[string]any); ok {
			if total, ok := data["totalCount"]; ok {
				s.SetAttr("cofacts.results_count", total)
			}
		}
	}

	s.span.SetAttributes(attribute.Bool("tool.success", success))
	if success {
		s.span.SetStatus(codes.Ok, "")
	} else {
		s.span.SetStatus(codes.Error, "")
	}
}

// RecordStep records an intermediate processing step under a short preview cap.
func (s *Span) RecordStep(stepName string, value any) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.String("step."+stepName, truncate(stringify(value), stepPreviewLimit)))
}

// End finalizes the span. A non-nil error marks the span ERROR with the error
// type and message; the error itself is never modified.
func (s *Span) End(err error) {
	if s == nil {
		return
	}

	if err != nil {
		s.span.SetAttributes(
			attribute.String("error.type", fmt.Sprintf("%T", err)),
			attribute.String("error.message", err.Error()),
		)
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}

	s.span.End()
}

// truncate caps s at limit characters, never splitting a rune. Most previews
// are Traditional Chinese, so byte slicing would cut the cap to a third and
// leave an invalid trailing sequence.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func stringify(v any) string {
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
