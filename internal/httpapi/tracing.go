package httpapi

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/haze/nocap/internal/httpapi"

// TracingMiddleware starts a server span per request, continuing any
// W3C trace context carried in the headers. The span is named after the
// route pattern once routing is done.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := otel.Tracer(tracerName).Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.request.method", r.Method)),
		)
		defer span.End()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(sr, r)

		span.SetName(r.Method + " " + routePatternOrPath(r))
		span.SetAttributes(attribute.Int("http.response.status_code", sr.status))
		if sr.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sr.status))
		}
	})
}
