package session

import (
	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/remote-broker/pkg/audit"
	"github.com/opsdeck/remote-broker/pkg/telemetry"
)

// NewRouter creates a chi router with session lifecycle routes, the
// per-session audit history, and the telemetry ingest endpoint.
func NewRouter(registry *Registry, consent *ConsentCoordinator, ledger *audit.Store, sink *telemetry.Sink) chi.Router {
	r := chi.NewRouter()

	r.Post("/", createSessionHandler(registry))
	r.Get("/", listSessionsHandler(registry))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", getSessionHandler(registry))
		r.Post("/end", endSessionHandler(registry))
		r.Post("/consent/grant", grantConsentHandler(consent))
		r.Post("/consent/deny", denyConsentHandler(consent))
		r.Post("/metrics", recordMetricsHandler(sink))
		r.Get("/audit", audit.SessionHistoryHandler(ledger))
	})

	return r
}
