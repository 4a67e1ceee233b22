// Package httpapi assembles the service router. Handlers delegate to domain
// services; transport concerns stay here.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gatehandler "gatehouse/internal/gate/handler"
	"gatehouse/internal/platform/middleware"
)

// NewRouter wires all endpoints. Gate and approval routes require an
// authenticated operator; health and metrics do not.
func NewRouter(h *gatehandler.Handler, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		h.Register(r)
	})

	return r
}
