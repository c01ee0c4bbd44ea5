package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hungg523/helpdesk-assistant/internal/stats"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealth(t *testing.T) {
	s, err := New(Options{BackendURL: "http://localhost:5000", Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatRoutesForwardToBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/session/get-or-create", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"userId":395}`, string(body))
		w.Write([]byte(`{"success":true,"data":{"id":12}}`))
	}))
	defer backend.Close()

	s, err := New(Options{BackendURL: backend.URL, Logger: discardLogger()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/session/get-or-create",
		strings.NewReader(`{"userId":395}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":12}}`, rec.Body.String())
}

func TestBackendUnreachableYieldsEnvelope(t *testing.T) {
	s, err := New(Options{BackendURL: "http://127.0.0.1:1", Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/session/1/messages/latest", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, false, env["success"])
}

func TestStatisticsFallsBackToCache(t *testing.T) {
	cache, err := stats.OpenCache(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	defer cache.Close()
	require.NoError(t, cache.Put("", "", &stats.Overview{TotalSessions: 42}))

	// Backend that always fails.
	statsClient := stats.New(stats.Options{
		BaseURL: "http://127.0.0.1:1",
		Cache:   cache,
		Logger:  discardLogger(),
	})

	s, err := New(Options{BackendURL: "http://localhost:5000", Stats: statsClient, Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  stats.Overview `json:"data"`
		Stale bool           `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Stale)
	assert.Equal(t, 42, resp.Data.TotalSessions)
}
