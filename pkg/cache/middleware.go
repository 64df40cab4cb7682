package cache

import (
	"bytes"
	"net/http"

	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

// responseRecorder wraps http.ResponseWriter to capture the body and
// status code for storage in the cache.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (w *responseRecorder) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	if !w.written {
		w.statusCode = http.StatusOK
		w.written = true
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// cacheKey scopes cache entries per organization. Responses on these
// endpoints differ per org, never per query string, so the key is the
// org id plus the request path.
func cacheKey(orgID, path string) string {
	return orgID + ":" + path
}

// Middleware returns HTTP middleware that caches GET responses in the
// provided LRUCache, keyed per organization.
//
// Behavior:
//   - GET hit: the cached body is written as JSON with a 200 status and
//     an X-Cache: HIT header.
//   - GET miss: the handler runs; a 200 response body is stored. An
//     X-Cache: MISS header is added. Non-200 responses are never cached.
//   - Mutating methods pass through, then invalidate the org's entry so
//     a policy update is visible on the next read.
func Middleware(c *LRUCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cacheKey(tenancy.OrgIDFromContext(r.Context()), r.URL.Path)

			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				c.Invalidate(key)
				return
			}

			if cached, ok := c.Get(key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(cached)
				return
			}

			rec := &responseRecorder{ResponseWriter: w}
			rec.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(rec, r)

			if rec.statusCode == http.StatusOK {
				c.Set(key, rec.body.Bytes())
			}
		})
	}
}
