package audit

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with audit query routes.
func NewRouter(store *Store) chi.Router {
	r := chi.NewRouter()
	r.Get("/", listHandler(store))
	return r
}
