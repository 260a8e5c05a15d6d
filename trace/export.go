package trace

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/m-mizutani/goerr/v2"
	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultOTLPEndpoint = "https://cloud.langfuse.com/api/public/otel/v1/traces"

// ShutdownFunc flushes and stops the span exporter. Always safe to call.
type ShutdownFunc func(ctx context.Context) error

// Setup configures the global tracer provider with an OTLP/HTTP exporter
// authenticated against Langfuse. When LANGFUSE_PUBLIC_KEY or
// LANGFUSE_SECRET_KEY is unset, tracing stays on the default no-op provider
// and Setup returns a no-op shutdown, so the harness runs cleanly without an
// observability backend.
func Setup(ctx context.Context) (ShutdownFunc, error) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return func(ctx context.Context) error { return nil }, nil
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	auth := base64.StdEncoding.EncodeToString([]byte(publicKey + ":" + secretKey))

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
		otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Basic " + auth,
		}),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OTLP trace exporter")
	}

	res, err := sdkresource.Merge(sdkresource.Default(),
		sdkresource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build trace resource")
	}

	// Batched export keeps span flushing off the request path.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otelAPI.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
