package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// SetChain wraps handler with the given middlewares, outermost first.
func SetChain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return handler
}

// SetRouteChain wraps a single route's handler func, outermost first.
func SetRouteChain(handlerFunc http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handlerFunc = middlewares[i](handlerFunc)
	}

	return handlerFunc
}

// HTTPResponseTraceInjection copies the active trace id onto the response so
// clients can reference it in bug reports.
func HTTPResponseTraceInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if span.SpanContext().HasTraceID() {
			w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}

		next.ServeHTTP(w, r)
	})
}

type HTTPRequestLogger struct {
	logger          *logrus.Logger
	debug           bool
	errorStatusCode int
}

func NewHTTPRequestLogger(logger *logrus.Logger, debug bool, errorStatusCode int) *HTTPRequestLogger {
	return &HTTPRequestLogger{
		logger:          logger,
		debug:           debug,
		errorStatusCode: errorStatusCode,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (l *HTTPRequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := l.logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.statusCode,
			"duration": time.Since(start).String(),
		})

		switch {
		case rec.statusCode >= l.errorStatusCode:
			entry.Error()
		case l.debug:
			entry.Info()
		}
	})
}
