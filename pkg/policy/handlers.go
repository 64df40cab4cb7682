package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

// getPolicyHandler returns a handler that retrieves the org policy,
// creating the default policy if none exists.
func getPolicyHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := tenancy.OrgIDFromContext(r.Context())

		record, err := store.GetOrCreate(orgID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load policy: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, toAPI(record))
	}
}

// patchPolicyHandler returns a handler that updates the org policy.
// Only fields present in the request body are updated.
func patchPolicyHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oc, _ := tenancy.OrgFromContext(r.Context())

		var patch PolicyPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		updatedBy := oc.UserID
		if updatedBy == "" {
			updatedBy = "system"
		}

		record, err := store.Update(oc.OrgID, patch, updatedBy)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "policy not found: create it first via GET")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update policy: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, toAPI(record))
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
