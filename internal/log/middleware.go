package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware puts logger, tagged with the request id, into the request context.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// StructuredLogger emits the fixed-shape records shared across binaries.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a completed request at a level derived from its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogChange records a successful finance mutation.
func (sl *StructuredLogger) LogChange(ctx context.Context, entity, op, id string) {
	fields := NewFields().
		WithChange(entity, op, id).
		WithComponent(ComponentFinance)
	sl.logger.Logger.InfoContext(ctx, "Finance data changed", fields.ToSlice()...)
}

// LogError logs err with component and operation context.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)
	sl.logger.Logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
