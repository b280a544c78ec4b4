package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// viewerIDKey is the context key for the authenticated viewer ID.
type viewerIDKey struct{}

// errorCodeKey is the context key for the error-code holder.
type errorCodeKey struct{}

// errorCodeHolder carries the error code set by a handler back out to the
// logging middleware, which installed it before the handler ran.
type errorCodeHolder struct {
	code string
}

// SetViewerID stores the authenticated viewer ID in the context.
// This should be called by authentication middleware after validating the
// request identity.
func SetViewerID(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerIDKey{}, viewerID)
}

// GetViewerID retrieves the viewer ID from context. Returns empty string if not present.
func GetViewerID(ctx context.Context) string {
	if id, ok := ctx.Value(viewerIDKey{}).(string); ok {
		return id
	}
	return ""
}

// withErrorCodeHolder installs a writable error-code slot in the context.
func withErrorCodeHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, &errorCodeHolder{})
}

// SetErrorCode records an error code for the current request so the logging
// middleware can include it. This should be called by handlers when
// returning error responses. A no-op outside the logging middleware.
func SetErrorCode(ctx context.Context, code string) {
	if holder, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		holder.code = code
	}
}

// GetErrorCode retrieves the error code for the current request. Returns
// empty string if none was set.
func GetErrorCode(ctx context.Context) string {
	if holder, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		return holder.code
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
// Only the first call sets the status code; subsequent calls are ignored
// to match http.ResponseWriter behavior where only the first status is sent.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// newResponseWriter creates a new responseWriter with default 200 status.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment.
// In production (env == "production"), it returns a JSON handler.
// Otherwise, it returns a text handler for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging is a middleware that logs HTTP requests with structured fields.
// It captures: method, path, status, latency (ms), request ID, viewer ID
// (if present), response size, and error_code (for error responses).
//
// Note: If a handler panics, the log entry will not be written. To ensure logging
// even on panics, place a recovery middleware outside of the logging middleware.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Install the error-code slot and wrap the response writer to
			// capture status and size.
			r = r.WithContext(withErrorCodeHolder(r.Context()))
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			latency := time.Since(start).Milliseconds()

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", latency),
				slog.Int("size", rw.size),
			}

			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			if viewerID := GetViewerID(r.Context()); viewerID != "" {
				attrs = append(attrs, slog.String("viewer_id", viewerID))
			}

			// Add error code for error responses (4xx and 5xx)
			if rw.statusCode >= 400 {
				if errorCode := GetErrorCode(r.Context()); errorCode != "" {
					attrs = append(attrs, slog.String("error_code", errorCode))
				}
			}

			// Log at appropriate level based on status code using LogAttrs
			if rw.statusCode >= 500 {
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", attrs...)
			} else if rw.statusCode >= 400 {
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", attrs...)
			} else {
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}
		})
	}
}
