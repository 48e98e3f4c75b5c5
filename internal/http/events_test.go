package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/events"
)

func TestEventsController_Stream(t *testing.T) {
	bus := events.NewBus()
	controller := NewEventsController(bus)
	router := gin.New()
	router.GET("/api/events", controller.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/events?events=songs:added", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return bus.Len(events.SongsAdded) == 1 }, time.Second, 5*time.Millisecond)
	bus.Emit(events.MembersAdded, gin.H{"id": "m1"})
	bus.Emit(events.SongsAdded, gin.H{"id": "1"})

	// Give the handler a moment to drain the channel before disconnecting.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, "event:songs:added")
	assert.Contains(t, body, `{"id":"1"}`)
	assert.NotContains(t, body, "members:added")
	assert.Equal(t, 0, bus.Len(events.SongsAdded), "subscription released on disconnect")
}
