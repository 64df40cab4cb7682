package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/remote-broker/pkg/telemetry"
	"github.com/opsdeck/remote-broker/pkg/tenancy"
)

// newTestAPI mounts the session router behind org middleware, the way
// the server wires it.
func newTestAPI(t *testing.T) (*testEnv, http.Handler) {
	t.Helper()
	env := newTestEnv(t)
	sink := telemetry.NewSink(env.store)
	router := NewRouter(env.registry, env.consent, env.ledger, sink)
	return env, tenancy.NewMiddleware(tenancy.ModeOrg)(router)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set(tenancy.OrgHeader, "acme")
	r.Header.Set(tenancy.UserIDHeader, "u-1")
	r.Header.Set(tenancy.UserNameHeader, "Alice")
	r.Header.Set(tenancy.RoleHeader, "admin")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestAPI_CreateAndGetSession(t *testing.T) {
	env, handler := newTestAPI(t)
	env.directory.Add("acme", "a-1", true)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, StatusActive, created.Session.Status)
	assert.NotEmpty(t, created.Token)

	w = doJSON(t, handler, http.MethodGet, "/"+created.Session.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.Session.ID, got.ID)
}

func TestAPI_Create_MissingAsset(t *testing.T) {
	_, handler := newTestAPI(t)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Create_CapabilityOff(t *testing.T) {
	env, handler := newTestAPI(t)
	env.directory.Add("acme", "a-1", false)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_Create_Conflict(t *testing.T) {
	env, handler := newTestAPI(t)
	env.directory.Add("acme", "a-1", true)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_Create_EmptyBody(t *testing.T) {
	_, handler := newTestAPI(t)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_EndSession(t *testing.T) {
	env, handler := newTestAPI(t)
	env.directory.Add("acme", "a-1", true)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, handler, http.MethodPost, "/"+created.Session.ID+"/end", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ended Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ended))
	assert.Equal(t, StatusEnded, ended.Status)

	// A second end is refused.
	w = doJSON(t, handler, http.MethodPost, "/"+created.Session.ID+"/end", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_ConsentFlow(t *testing.T) {
	env, handler := newTestAPI(t)
	env.directory.Add("acme", "a-1", true)
	env.requireConsent(t, "acme", true)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, StatusPending, created.Session.Status)

	w = doJSON(t, handler, http.MethodPost, "/"+created.Session.ID+"/consent/grant",
		map[string]string{"decidedBy": "end-user-7"})
	require.Equal(t, http.StatusOK, w.Code)

	var granted Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &granted))
	assert.Equal(t, StatusActive, granted.Status)
	assert.Equal(t, "end-user-7", granted.ConsentBy)

	// Granting again is a state conflict.
	w = doJSON(t, handler, http.MethodPost, "/"+created.Session.ID+"/consent/grant", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_MetricsAndAudit(t *testing.T) {
	env, handler := newTestAPI(t)
	env.directory.Add("acme", "a-1", true)

	w := doJSON(t, handler, http.MethodPost, "/", map[string]string{"assetId": "a-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, handler, http.MethodPost, "/"+created.Session.ID+"/metrics",
		map[string]any{"latencyMs": 55, "fps": 30})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, handler, http.MethodGet, "/"+created.Session.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.QualityMetrics)
	assert.Equal(t, 55, got.QualityMetrics.LatencyMs)

	w = doJSON(t, handler, http.MethodGet, "/"+created.Session.ID+"/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "session_start", history.Entries[0].Action)
}

func TestAPI_List_StatusFilterValidation(t *testing.T) {
	_, handler := newTestAPI(t)

	w := doJSON(t, handler, http.MethodGet, "/?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_MissingOrg(t *testing.T) {
	_, handler := newTestAPI(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
