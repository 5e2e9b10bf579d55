// Package trace assigns request ids and logs every HTTP request once it
// completes.
package trace

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"moneyflow/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger
	base      *log.Logger

	totalRequests int64
	totalMicros   int64
}

// Metrics is a snapshot of the request counters.
type Metrics struct {
	TotalRequests       int64
	AverageResponseTime time.Duration
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    log.NewStructuredLogger(logger),
		base:      logger,
	}
}

// Middleware tags the request with an id (reusing a well-formed incoming
// X-Request-ID), stores a request logger in the context and logs completion.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		ctx = log.NewContext(ctx, m.base.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		atomic.AddInt64(&m.totalRequests, 1)
		atomic.AddInt64(&m.totalMicros, elapsed.Microseconds())

		m.logger.LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP)
	})
}

func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.totalRequests)
	metrics := Metrics{TotalRequests: total}
	if total > 0 {
		metrics.AverageResponseTime = time.Duration(atomic.LoadInt64(&m.totalMicros)/total) * time.Microsecond
	}
	return metrics
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades pass through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID returns the id assigned by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
