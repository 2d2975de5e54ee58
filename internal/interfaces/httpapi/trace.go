package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("career-coach/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startSpan opens a child span for handler methods only. Middleware and
// response helpers share the request span, and untraced routes get none.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix)
}
