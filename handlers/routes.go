package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register mounts the recommendation routes on r. limit wraps the POST
// handlers and may be nil.
func Register(r *mux.Router, h *RecommendHandler, limit mux.MiddlewareFunc) {
	wrap := func(fn http.HandlerFunc) http.Handler {
		if limit == nil {
			return fn
		}
		return limit(fn)
	}

	routes := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/api/recommend", h.Recommend},
		{"/api/recommend/music", h.RecommendMusic},
		{"/api/music", h.RecommendMusic},
	}
	for _, rt := range routes {
		r.Handle(rt.path, wrap(rt.handler)).Methods(http.MethodPost)
		r.HandleFunc(rt.path, Preflight).Methods(http.MethodOptions)
	}
}
