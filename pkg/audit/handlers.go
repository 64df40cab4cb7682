package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

// listHandler returns a handler for the org-wide ledger view consumed
// by the compliance/reporting UI.
func listHandler(store *Store) http.HandlerFunc {
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

		records, nextToken, totalSize, err := store.List(
			orgID, pageSize,
			r.URL.Query().Get("pageToken"),
			r.URL.Query().Get("action"),
		)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit entries: %v", err))
			return
		}

		out := APIEntryList{
			Entries:       make([]APIEntry, 0, len(records)),
			NextPageToken: nextToken,
			TotalSize:     totalSize,
		}
		for i := range records {
			out.Entries = append(out.Entries, toAPI(&records[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// SessionHistoryHandler returns a handler for a single session's ledger,
// ascending by timestamp. Mounted under the session routes.
func SessionHistoryHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := tenancy.OrgIDFromContext(r.Context())
		sessionID := chi.URLParam(r, "id")

		records, err := store.BySession(orgID, sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load session audit history: %v", err))
			return
		}

		entries := make([]APIEntry, 0, len(records))
		for i := range records {
			entries = append(entries, toAPI(&records[i]))
		}
		writeJSON(w, http.StatusOK, APIEntryList{Entries: entries, TotalSize: len(entries)})
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
