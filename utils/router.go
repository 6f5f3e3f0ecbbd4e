package utils

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"curator/handlers"
)

// WithCORS allows any origin on every response, including 404 and 405, and
// answers CORS preflights with 200.
func WithCORS(h http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		// every method is listed so 405 replies still carry the CORS headers
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodHead,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	})(h)
}

// NewRouter constructs the base mux router with common routes: /health and /metrics.
// mws wrap every matched route, outermost first. Serve the router through WithCORS.
func NewRouter(mws ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()

	r.Use(mws...)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
