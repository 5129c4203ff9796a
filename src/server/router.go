package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
)

// Route paths
const (
	PathRoot    = "/"
	PathHealth  = "/health"
	PathStatCan = "/api/statcan"
)

// NewRouter creates and configures the HTTP router. Only GET and POST reach
// handlers. Request IDs, logging and CORS wrap the whole router, so a
// rejected origin gets 403 on every path and method.
func NewRouter(g *HTTPGateway) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(PathRoot, g.handleRoot).Methods(http.MethodGet)
	r.HandleFunc(PathHealth, g.handleHealth).Methods(http.MethodGet)
	r.HandleFunc(PathStatCan, g.handleStatCan).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	var handler http.Handler = r
	for _, mw := range []mux.MiddlewareFunc{
		corsMiddleware(g.allowedOrigin),
		loggingMiddleware,
		requestIDMiddleware,
	} {
		handler = mw(handler)
	}

	if g.compress {
		return gzhttp.GzipHandler(handler)
	}
	return handler
}
