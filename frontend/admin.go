package frontend

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/icecave/quarry/statuspage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewAdminRouter returns the handler for the admin listener, which serves
// prometheus metrics and the health-check.
func NewAdminRouter(healthCheck http.Handler) chi.Router {
	pages := &statuspage.TemplateWriter{}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/health", healthCheck)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		pages.Write(w, req, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		pages.Write(w, req, http.StatusMethodNotAllowed)
	})

	return r
}
