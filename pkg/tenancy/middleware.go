package tenancy

import (
	"encoding/json"
	"net/http"
)

// Middleware returns HTTP middleware that resolves the org context using
// the provided OrgResolver and stores it in the request context. On
// resolution failure it responds with a 400 JSON error.
func Middleware(resolver OrgResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			oc, err := resolver.Resolve(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "bad_request",
					"message": err.Error(),
				})
				return
			}

			ctx := WithOrg(r.Context(), oc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewMiddleware is a convenience function that creates middleware with
// the appropriate resolver for the given TenancyMode.
func NewMiddleware(mode TenancyMode) func(http.Handler) http.Handler {
	var resolver OrgResolver
	switch mode {
	case ModeOrg:
		resolver = HeaderOrgResolver{}
	default:
		resolver = SingleOrgResolver{}
	}
	return Middleware(resolver)
}
