package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	StartTimeKey contextKey = "start_time"
)

const requestIDHeader = "X-Request-ID"

type LoggingMiddleware struct {
	logger  *Logger
	metrics *MetricsCollector
}

func NewLoggingMiddleware(logger *Logger, metrics *MetricsCollector) *LoggingMiddleware {
	if logger == nil {
		logger = NopLogger()
	}
	return &LoggingMiddleware{
		logger:  logger,
		metrics: metrics,
	}
}

// Handler tags each request with an id (reusing X-Request-ID when the
// caller sent one), logs it and records route metrics.
func (lm *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, StartTimeKey, startTime)
		r = r.WithContext(ctx)
		w.Header().Set(requestIDHeader, requestID)

		lm.logger.Debug("request_started").
			Component("http").
			Operation("handle_request").
			HTTP(r.Method, r.URL.Path, 0).
			Request(r.UserAgent(), r.RemoteAddr, requestID).
			Log()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(startTime)

		lm.logger.Info("request_completed").
			Component("http").
			Operation("handle_request").
			HTTP(r.Method, r.URL.Path, wrapped.statusCode).
			Request(r.UserAgent(), r.RemoteAddr, requestID).
			Duration(duration).
			Log()

		lm.metrics.RecordRequest(routePattern(r), duration, wrapped.statusCode)
	})
}

// routePattern keeps metric cardinality bounded by labelling with the chi
// pattern instead of the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	return rw.ResponseWriter.Write(b)
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func GetStartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}
