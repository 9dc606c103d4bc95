// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apperrors "collections-dashboard/internal/common/errors"
	commonhttp "collections-dashboard/internal/common/http"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/metrics"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the RequestID middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID keeps an incoming X-Request-ID or assigns a new uuid.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Instrument logs each request and records it in the HTTP metrics, labelled
// by route template rather than raw path.
func Instrument(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			route := routeName(r)
			elapsed := time.Since(start)
			metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

			fields := map[string]interface{}{
				"requestId":  RequestID(r.Context()),
				"method":     r.Method,
				"route":      route,
				"status":     rec.status,
				"bytes":      rec.bytes,
				"durationMs": elapsed.Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				log.Warn("request served with error", fields)
				return
			}
			log.Debug("request served", fields)
		})
	}
}

// RateLimit builds an in-memory limiter from a formatted rate such as "100-S".
func RateLimit(formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	mw := stdlib.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			commonhttp.WriteJSON(w, http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: apperrors.NewRateLimitedError(),
			})
		}),
	)
	return mw.Handler, nil
}
