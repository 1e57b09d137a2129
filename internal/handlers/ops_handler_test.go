package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheStats_CountsHitsAndMisses(t *testing.T) {
	api, _, _ := newTestAPI(t)
	r := testRouter(api)
	token := tokenFor(t, "u-1", "alice")

	require.Equal(t, http.StatusCreated, uploadFile(t, r, token, "docs", "a.txt", "x").Code)

	// One miss, one hit.
	code, _ := getJSON(t, r, "/api/files?path=docs", token)
	require.Equal(t, http.StatusOK, code)
	code, _ = getJSON(t, r, "/api/files?path=docs", token)
	require.Equal(t, http.StatusOK, code)

	code, body := getJSON(t, r, "/api/ops/cache/stats", token)
	require.Equal(t, http.StatusOK, code)
	require.GreaterOrEqual(t, body["hits"].(float64), float64(1))
	require.GreaterOrEqual(t, body["misses"].(float64), float64(1))
}

func TestVectorStoreBindings_Snapshot(t *testing.T) {
	api, _, _ := newTestAPI(t)
	r := testRouter(api)
	token := tokenFor(t, "u-1", "alice")

	require.Equal(t, http.StatusCreated, uploadFile(t, r, token, "clients/alice", "notes.txt", "x").Code)
	session := startSession(t, r, token, "clients/alice")

	code, body := getJSON(t, r, "/api/ops/vector-stores", token)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(1), body["count"])

	bindings := body["bindings"].([]any)
	binding := bindings[0].(map[string]any)
	require.Equal(t, session.SessionID, binding["scopeId"])
	require.Equal(t, "vs-1", binding["resourceId"])
	require.Equal(t, "active", binding["state"])
}

func TestDestroyVectorStore_SchedulesDestruction(t *testing.T) {
	api, prov, _ := newTestAPI(t)
	r := testRouter(api)
	token := tokenFor(t, "u-1", "alice")

	req := httptest.NewRequest(http.MethodDelete, "/api/ops/vector-stores/vs-orphan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	waitFor(t, time.Second, func() bool { return prov.destroyed("vs-orphan") })
}
