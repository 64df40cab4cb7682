package policy

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with policy API routes.
func NewRouter(store *Store) chi.Router {
	r := chi.NewRouter()
	r.Get("/", getPolicyHandler(store))
	r.Patch("/", patchPolicyHandler(store))
	return r
}
