package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/kvstore"
	"github.com/mrlokans/choirbook/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLibrary(t *testing.T) *storage.Service {
	t.Helper()
	svc := storage.NewService(kvstore.New(afero.NewMemMapFs(), "/data"))
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

// eventLog records every emission on a bus.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(bus *events.Bus) *eventLog {
	l := &eventLog{}
	for _, name := range events.All {
		name := name
		bus.On(name, func(payload any) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.events = append(l.events, events.Event{Name: name, Payload: payload})
		})
	}
	return l
}

func (l *eventLog) names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Name)
	}
	return out
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "loyw3v28a1b2c3d4e5"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, "loyw3v28a1b2c3d4e5", id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Blank(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "  "}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestRespondStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", storage.ErrNotFound, http.StatusNotFound, "song not found"},
		{"wrapped not found", errors.Join(errors.New("lookup"), storage.ErrNotFound), http.StatusNotFound, "song not found"},
		{"not initialized", storage.ErrNotInitialized, http.StatusServiceUnavailable, "storage_unavailable"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondStoreError(c, tt.err, "song", "test")

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}
