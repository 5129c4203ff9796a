package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
)

// RequestIDHeader carries the per-request id back to the caller
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by requestIDMiddleware, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		common.ProxyLogger.Info("%s %s %d - %v [%s]", r.Method, r.URL.Path, rec.status,
			time.Since(start), RequestIDFromContext(r.Context()))
	})
}

// corsMiddleware admits the single configured origin with GET and POST.
// Requests without an Origin header are same-origin or non-browser and pass through.
func corsMiddleware(allowedOrigin string) mux.MiddlewareFunc {
	allowed := config.NormalizeOrigin(allowedOrigin)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if config.NormalizeOrigin(origin) != allowed {
				common.ProxyLogger.Warn("Rejected request from origin %s", origin)
				sendError(w, http.StatusForbidden, "origin not allowed", nil)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				switch r.Header.Get("Access-Control-Request-Method") {
				case "", http.MethodGet, http.MethodPost:
					w.WriteHeader(http.StatusNoContent)
				default:
					sendError(w, http.StatusForbidden, "method not allowed by CORS policy", nil)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
