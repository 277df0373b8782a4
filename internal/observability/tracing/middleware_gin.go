package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/pamdes/internal/observability/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName    = "pamdes/http"
	HeaderTraceID = "X-Trace-Id"
)

// untraced routes are polled by infrastructure and would drown real traffic.
var untraced = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// GinMiddleware opens one server span per matched route and returns the
// trace id to the caller. Register it after the request logger so the span
// can carry the request id.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if untraced[route] {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		parent := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := otel.Tracer(tracerName).Start(parent, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", c.Request.URL.Path),
			),
		)
		defer span.End()

		if id := obslogger.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("pamdes.request_id", id))
		}
		if village := c.Param("village_id"); village != "" {
			span.SetAttributes(attribute.String("pamdes.village_id", village))
		}
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status < http.StatusInternalServerError {
			return
		}
		for _, ginErr := range c.Errors {
			span.RecordError(ginErr.Err)
		}
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
