package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// TraceIDHeader is the request and response header carrying the trace ID
const TraceIDHeader = "X-Request-ID"

type traceIDKey struct{}

// TraceIDKey is the key used to store the trace ID in the request context
var TraceIDKey = traceIDKey{}

// Trace creates a middleware that assigns every request a trace ID, reusing
// an incoming X-Request-ID when present, and echoes it in the response.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}
			w.Header().Set(TraceIDHeader, traceID)

			next.ServeHTTP(w, AddTraceIDToRequest(r, traceID))
		})
	}
}

// AddTraceIDToRequest returns a copy of r carrying traceID
func AddTraceIDToRequest(r *http.Request, traceID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), TraceIDKey, traceID))
}

// GetTraceID extracts the trace ID from the request context.
// Returns an empty string if no trace ID is found.
func GetTraceID(r *http.Request) string {
	return GetTraceIDFromContext(r.Context())
}

// GetTraceIDFromContext extracts the trace ID from a context.
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
