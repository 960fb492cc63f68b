// Package httpapi exposes the quest, mission and cascade services over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/contract"
)

// ReadyFunc reports whether a service can take traffic.
type ReadyFunc func(ctx context.Context) error

type message struct {
	Message string `json:"message"`
}

// newRouter returns a router with the middleware and probes every service
// shares.
func newRouter(service string, ready ReadyFunc, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(AccessLog(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, message{Message: service + " service is online"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				logger.Warn("readiness check failed", zap.String("service", service), zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, contract.ErrorBody{
					Error:   "not_ready",
					Message: service + " service not ready: " + err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, message{Message: service + " service is ready"})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, contract.ErrorBody{Error: "endpoint_not_found"})
	})
	return r
}
