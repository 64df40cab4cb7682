package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"GETCachedOnSecondCall", testGETCachedOnSecondCall},
		{"KeysScopedPerOrg", testKeysScopedPerOrg},
		{"PatchInvalidatesEntry", testPatchInvalidatesEntry},
		{"Non200NotCached", testNon200NotCached},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

// orgRequest builds a request carrying an org context, the way the
// tenancy middleware would hand it down.
func orgRequest(method, target, org string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := tenancy.WithOrg(req.Context(), tenancy.OrgContext{OrgID: org})
	return req.WithContext(ctx)
}

func testGETCachedOnSecondCall(t *testing.T) {
	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"enabled":true}`))
	})

	c := NewLRUCache(10, 5*time.Second)
	wrapped := Middleware(c)(handler)

	rec1 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec1, orgRequest(http.MethodGet, "/api/v1/policy", "acme"))

	if callCount != 1 {
		t.Fatalf("expected handler called once, got %d", callCount)
	}
	if rec1.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected X-Cache: MISS, got %q", rec1.Header().Get("X-Cache"))
	}

	rec2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec2, orgRequest(http.MethodGet, "/api/v1/policy", "acme"))

	if callCount != 1 {
		t.Fatalf("expected handler not called again, got %d", callCount)
	}
	if rec2.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected X-Cache: HIT, got %q", rec2.Header().Get("X-Cache"))
	}

	body, _ := io.ReadAll(rec2.Result().Body)
	if string(body) != `{"enabled":true}` {
		t.Fatalf("expected cached body, got %q", string(body))
	}
}

func testKeysScopedPerOrg(t *testing.T) {
	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"org":"` + tenancy.OrgIDFromContext(r.Context()) + `"}`))
	})

	c := NewLRUCache(10, 5*time.Second)
	wrapped := Middleware(c)(handler)

	rec1 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec1, orgRequest(http.MethodGet, "/api/v1/policy", "acme"))

	// A different org must not see acme's cached response.
	rec2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec2, orgRequest(http.MethodGet, "/api/v1/policy", "globex"))

	if callCount != 2 {
		t.Fatalf("expected handler called per org, got %d calls", callCount)
	}
	body, _ := io.ReadAll(rec2.Result().Body)
	if string(body) != `{"org":"globex"}` {
		t.Fatalf("got cross-org response %q", string(body))
	}
}

func testPatchInvalidatesEntry(t *testing.T) {
	value := `{"enabled":true}`
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			value = `{"enabled":false}`
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(value))
	})

	c := NewLRUCache(10, 5*time.Second)
	wrapped := Middleware(c)(handler)

	// Prime the cache.
	wrapped.ServeHTTP(httptest.NewRecorder(), orgRequest(http.MethodGet, "/api/v1/policy", "acme"))

	// Mutate through the same middleware.
	wrapped.ServeHTTP(httptest.NewRecorder(), orgRequest(http.MethodPatch, "/api/v1/policy", "acme"))

	// The next read must reflect the update, not the stale entry.
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, orgRequest(http.MethodGet, "/api/v1/policy", "acme"))

	body, _ := io.ReadAll(rec.Result().Body)
	if string(body) != `{"enabled":false}` {
		t.Fatalf("expected fresh body after PATCH, got %q", string(body))
	}
}

func testNon200NotCached(t *testing.T) {
	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})

	c := NewLRUCache(10, 5*time.Second)
	wrapped := Middleware(c)(handler)

	wrapped.ServeHTTP(httptest.NewRecorder(), orgRequest(http.MethodGet, "/api/v1/policy", "acme"))
	wrapped.ServeHTTP(httptest.NewRecorder(), orgRequest(http.MethodGet, "/api/v1/policy", "acme"))

	if callCount != 2 {
		t.Fatalf("expected error responses uncached, got %d calls", callCount)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Size())
	}
}
