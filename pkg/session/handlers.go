package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/remote-broker/pkg/authz"
	"github.com/opsdeck/remote-broker/pkg/telemetry"
	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

// createRequest is the POST /sessions body.
type createRequest struct {
	AssetID string `json:"assetId"`
}

// createResponse carries the created session and the transport token.
type createResponse struct {
	Session Session `json:"session"`
	Token   string  `json:"token"`
}

// consentRequest optionally overrides the deciding user; defaults to
// the authenticated caller.
type consentRequest struct {
	DecidedBy string `json:"decidedBy,omitempty"`
}

func createSessionHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oc, _ := tenancy.OrgFromContext(r.Context())

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.AssetID == "" {
			writeError(w, http.StatusBadRequest, "assetId is required")
			return
		}

		operator := Operator{UserID: oc.UserID, Name: oc.UserName, Role: oc.Role}
		netCtx := NetworkContext{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		}

		created, signed, err := registry.Create(oc.OrgID, req.AssetID, operator, netCtx)
		if err != nil {
			writeDomainError(w, err, "failed to create session")
			return
		}

		writeJSON(w, http.StatusCreated, createResponse{Session: *created, Token: signed})
	}
}

func getSessionHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := tenancy.OrgIDFromContext(r.Context())

		got, err := registry.Get(orgID, chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err, "failed to get session")
			return
		}
		writeJSON(w, http.StatusOK, got)
	}
}

func listSessionsHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := tenancy.OrgIDFromContext(r.Context())

		pageSize := 0
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			n, err := strconv.Atoi(ps)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid pageSize: %v", err))
				return
			}
			pageSize = n
		}

		filter := ListFilter{
			AssetID:        r.URL.Query().Get("asset"),
			OperatorUserID: r.URL.Query().Get("operator"),
			Status:         Status(r.URL.Query().Get("status")),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status filter: %q", filter.Status))
			return
		}

		out, err := registry.List(orgID, filter, pageSize, r.URL.Query().Get("pageToken"))
		if err != nil {
			writeDomainError(w, err, "failed to list sessions")
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func endSessionHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := tenancy.OrgIDFromContext(r.Context())

		ended, err := registry.UpdateStatus(orgID, chi.URLParam(r, "id"), StatusEnded)
		if err != nil {
			writeDomainError(w, err, "failed to end session")
			return
		}
		writeJSON(w, http.StatusOK, ended)
	}
}

func grantConsentHandler(consent *ConsentCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oc, _ := tenancy.OrgFromContext(r.Context())

		granted, err := consent.Grant(oc.OrgID, chi.URLParam(r, "id"), decidedBy(r, oc))
		if err != nil {
			writeDomainError(w, err, "failed to grant consent")
			return
		}
		writeJSON(w, http.StatusOK, granted)
	}
}

func denyConsentHandler(consent *ConsentCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oc, _ := tenancy.OrgFromContext(r.Context())

		denied, err := consent.Deny(oc.OrgID, chi.URLParam(r, "id"), decidedBy(r, oc))
		if err != nil {
			writeDomainError(w, err, "failed to deny consent")
			return
		}
		writeJSON(w, http.StatusOK, denied)
	}
}

func recordMetricsHandler(sink *telemetry.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := tenancy.OrgIDFromContext(r.Context())

		var sample telemetry.Sample
		if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		if err := sink.Record(orgID, chi.URLParam(r, "id"), sample); err != nil {
			writeDomainError(w, err, "failed to record metrics")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// decidedBy resolves who made a consent decision: explicit body field
// first, then the authenticated caller, then "system".
func decidedBy(r *http.Request, oc tenancy.OrgContext) string {
	var req consentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.DecidedBy != "" {
		return req.DecidedBy
	}
	if oc.UserID != "" {
		return oc.UserID
	}
	return "system"
}

// clientIP strips the port from the request remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeDomainError maps domain sentinel errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, authz.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, authz.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", context, err))
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
