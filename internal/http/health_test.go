package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) BackendName() string            { return s.name }
func (s stubChecker) Ping(ctx context.Context) error { return s.err }

func TestHealthController_Status(t *testing.T) {
	tests := []struct {
		name       string
		store      HealthChecker
		wantCode   int
		wantStatus string
		wantCheck  string
	}{
		{"healthy backend", stubChecker{name: "sqlite"}, http.StatusOK, "healthy", "ok"},
		{"failing backend", stubChecker{name: "kv", err: errors.New("read-only filesystem")}, http.StatusServiceUnavailable, "unhealthy", "error: read-only filesystem"},
		{"no store", nil, http.StatusOK, "healthy", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthController(tt.store, "1.2.3").Status)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/health", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantCheck, resp.Checks["storage"])
			assert.Equal(t, "1.2.3", resp.Version)
		})
	}
}

func TestHealthController_RealLibrary(t *testing.T) {
	router := NewRouter(RouterConfig{Library: newTestLibrary(t), Version: "dev"})

	w := doJSON(t, router, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend": "kv"`)
}
