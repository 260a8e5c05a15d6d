package trace_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkTrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cofacts/factagent/trace"
)

func setupExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdkTrace.NewTracerProvider(
		sdkTrace.WithSyncer(exporter),
	)
	prev := otelAPI.GetTracerProvider()
	otelAPI.SetTracerProvider(tp)
	t.Cleanup(func() {
		otelAPI.SetTracerProvider(prev)
	})
	return exporter
}

func findAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartSpanAttributes(t *testing.T) {
	exporter := setupExporter(t)
	ctx := trace.WithConversationID(context.Background(), "conv-42")

	_, span := trace.StartSpan(ctx, "agent.writer.process", "suspicious message")
	span.End(nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)
	gt.Equal(t, spans[0].Name, "agent.writer.process")

	convID, ok := findAttr(spans[0], "conversation.id")
	gt.True(t, ok)
	gt.Equal(t, convID.AsString(), "conv-42")

	sessionID, ok := findAttr(spans[0], "conversation.session_id")
	gt.True(t, ok)
	gt.Equal(t, sessionID.AsString(), "conv-42")

	service, ok := findAttr(spans[0], "service.name")
	gt.True(t, ok)
	gt.Equal(t, service.AsString(), "factagent")

	content, ok := findAttr(spans[0], "input.content")
	gt.True(t, ok)
	gt.Equal(t, content.AsString(), "suspicious message")

	length, ok := findAttr(spans[0], "input.length")
	gt.True(t, ok)
	gt.Equal(t, length.AsInt64(), int64(len("suspicious message")))
}

func TestStartSpanTruncatesLongInput(t *testing.T) {
	t.Run("ascii", func(t *testing.T) {
		exporter := setupExporter(t)
		long := strings.Repeat("x", 5000)

		_, span := trace.StartSpan(context.Background(), "agent.writer.process", long)
		span.End(nil)

		spans := exporter.GetSpans()
		gt.Equal(t, len(spans), 1)

		content, ok := findAttr(spans[0], "input.content")
		gt.True(t, ok)
		gt.Equal(t, len(content.AsString()), 1000)

		length, ok := findAttr(spans[0], "input.length")
		gt.True(t, ok)
		gt.Equal(t, length.AsInt64(), int64(5000))
	})

	// The cap counts characters, not bytes: a 2000-character Chinese message
	// keeps a 1000-character preview and never splits a rune.
	t.Run("multibyte", func(t *testing.T) {
		exporter := setupExporter(t)
		long := strings.Repeat("謠言訊息", 500)

		_, span := trace.StartSpan(context.Background(), "agent.writer.process", long)
		span.End(nil)

		spans := exporter.GetSpans()
		gt.Equal(t, len(spans), 1)

		content, ok := findAttr(spans[0], "input.content")
		gt.True(t, ok)
		gt.Equal(t, utf8.RuneCountInString(content.AsString()), 1000)
		gt.True(t, utf8.ValidString(content.AsString()))
		gt.True(t, strings.HasPrefix(content.AsString(), "謠言訊息"))

		length, ok := findAttr(spans[0], "input.length")
		gt.True(t, ok)
		gt.Equal(t, length.AsInt64(), int64(2000))
	})
}

func TestStartSpanConversationType(t *testing.T) {
	exporter := setupExporter(t)
	ctx := trace.NewConversation(context.Background())
	trace.SetConversationType(ctx, "cofacts_factcheck")

	_, span := trace.StartSpan(ctx, "agent.writer.process", "in")
	span.End(nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)

	conversationType, ok := findAttr(spans[0], "conversation.type")
	gt.True(t, ok)
	gt.Equal(t, conversationType.AsString(), "cofacts_factcheck")
}

func TestStartSpanStructuredInput(t *testing.T) {
	exporter := setupExporter(t)

	_, span := trace.StartSpan(context.Background(), "tool.search", map[string]any{"query": "test"})
	span.End(nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)

	data, ok := findAttr(spans[0], "input.data")
	gt.True(t, ok)
	gt.S(t, data.AsString()).Contains(`"query":"test"`)

	_, ok = findAttr(spans[0], "input.content")
	gt.False(t, ok)
}

func TestRecordOutput(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		exporter := setupExporter(t)

		_, span := trace.StartSpan(context.Background(), "agent.writer.process", "in")
		span.RecordOutput("查核結果如下", true)
		span.End(nil)

		spans := exporter.GetSpans()
		gt.Equal(t, len(spans), 1)

		content, ok := findAttr(spans[0], "output.content")
		gt.True(t, ok)
		gt.Equal(t, content.AsString(), "查核結果如下")

		length, ok := findAttr(spans[0], "output.length")
		gt.True(t, ok)
		gt.Equal(t, length.AsInt64(), int64(6))

		success, ok := findAttr(spans[0], "operation.success")
		gt.True(t, ok)
		gt.True(t, success.AsBool())
		gt.Equal(t, spans[0].Status.Code, codes.Ok)
	})

	t.Run("failure", func(t *testing.T) {
		exporter := setupExporter(t)

		_, span := trace.StartSpan(context.Background(), "agent.writer.process", "in")
		span.RecordOutput("boom", false)
		span.End(nil)

		spans := exporter.GetSpans()
		success, ok := findAttr(spans[0], "operation.success")
		gt.True(t, ok)
		gt.False(t, success.AsBool())
		gt.Equal(t, spans[0].Status.Code, codes.Error)
	})
}

func TestRecordToolResult(t *testing.T) {
	exporter := setupExporter(t)

	result := map[string]any{
		"data": map[string]any{"totalCount": 7},
	}

	_, span := trace.StartSpan(context.Background(), "tool.search_cofacts_database", nil)
	span.RecordToolResult(result, true)
	span.End(nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)

	preview, ok := findAttr(spans[0], "tool.result_preview")
	gt.True(t, ok)
	gt.S(t, preview.AsString()).Contains("totalCount")

	_, ok = findAttr(spans[0], "tool.result_length")
	gt.True(t, ok)

	count, ok := findAttr(spans[0], "cofacts.results_count")
	gt.True(t, ok)
	gt.Equal(t, count.AsString(), "7")

	success, ok := findAttr(spans[0], "tool.success")
	gt.True(t, ok)
	gt.True(t, success.AsBool())
}

func TestRecordToolResultTruncatesPreview(t *testing.T) {
	exporter := setupExporter(t)

	result := map[string]any{"body": strings.Repeat("y", 2000)}

	_, span := trace.StartSpan(context.Background(), "tool.read_hackmd_note", nil)
	span.RecordToolResult(result, true)
	span.End(nil)

	spans := exporter.GetSpans()
	preview, ok := findAttr(spans[0], "tool.result_preview")
	gt.True(t, ok)
	gt.Equal(t, len(preview.AsString()), 500)

	length, ok := findAttr(spans[0], "tool.result_length")
	gt.True(t, ok)
	gt.True(t, length.AsInt64() > 2000)
}

func TestSpanEndWithError(t *testing.T) {
	exporter := setupExporter(t)

	_, span := trace.StartSpan(context.Background(), "agent.writer.process", "in")
	span.End(errTest{})

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)
	gt.Equal(t, spans[0].Status.Code, codes.Error)

	errType, ok := findAttr(spans[0], "error.type")
	gt.True(t, ok)
	gt.S(t, errType.AsString()).Contains("errTest")

	errMsg, ok := findAttr(spans[0], "error.message")
	gt.True(t, ok)
	gt.Equal(t, errMsg.AsString(), "synthetic failure")
	gt.Equal(t, len(spans[0].Events), 1)
}

func TestNilSpanIsSafe(t *testing.T) {
	var span *trace.Span
	span.SetAttr("key", "value")
	span.RecordOutput("out", true)
	span.RecordToolResult(map[string]any{}, true)
	span.RecordStep("step", "v")
	span.End(nil)
}

type errTest struct{}

func (errTest) Error() string { return "synthetic failure" }
