package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spkap/GATIS/pkg/api"
)

// mockReadiness is a mock implementation of ModelReadiness
type mockReadiness struct {
	ready bool
}

func (m *mockReadiness) Ready() bool { return m.ready }

func TestHealthHandler_Ready(t *testing.T) {
	handler := NewHealthHandler(setupTestLogger(), &mockReadiness{ready: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.ModelsLoaded)
}

func TestHealthHandler_NotReady(t *testing.T) {
	handler := NewHealthHandler(setupTestLogger(), &mockReadiness{ready: false})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.Health(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "starting", resp.Status)
	assert.False(t, resp.ModelsLoaded)
}

func TestHealthHandler_Welcome(t *testing.T) {
	handler := NewHealthHandler(setupTestLogger(), &mockReadiness{ready: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.Welcome(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GATIS")
}
