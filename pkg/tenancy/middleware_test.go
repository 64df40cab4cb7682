package tenancy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		mode       TenancyMode
		url        string
		header     string
		wantStatus int
		wantOrg    string // expected org in context (empty if error expected)
	}{
		{
			name:       "single mode: no org param -> default",
			mode:       ModeSingle,
			url:        "/api/test",
			wantStatus: http.StatusOK,
			wantOrg:    "default",
		},
		{
			name:       "single mode: org param provided -> still default",
			mode:       ModeSingle,
			url:        "/api/test?org=acme",
			wantStatus: http.StatusOK,
			wantOrg:    "default",
		},
		{
			name:       "org mode: org from query param",
			mode:       ModeOrg,
			url:        "/api/test?org=acme",
			wantStatus: http.StatusOK,
			wantOrg:    "acme",
		},
		{
			name:       "org mode: org from header",
			mode:       ModeOrg,
			url:        "/api/test",
			header:     "globex",
			wantStatus: http.StatusOK,
			wantOrg:    "globex",
		},
		{
			name:       "org mode: missing org -> 400",
			mode:       ModeOrg,
			url:        "/api/test",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "org mode: invalid org -> 400",
			mode:       ModeOrg,
			url:        "/api/test?org=Not_Valid",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOrg string
			handler := NewMiddleware(tt.mode)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotOrg = OrgIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				r.Header.Set(OrgHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantOrg != "" && gotOrg != tt.wantOrg {
				t.Errorf("org in context = %q, want %q", gotOrg, tt.wantOrg)
			}
		})
	}
}

func TestOrgFromContext_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	if _, ok := OrgFromContext(r.Context()); ok {
		t.Error("expected no org context on a bare request")
	}
	if got := OrgIDFromContext(r.Context()); got != "" {
		t.Errorf("OrgIDFromContext = %q, want empty", got)
	}
}
