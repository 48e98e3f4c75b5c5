package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	eventBuffer       = 32
	heartbeatInterval = 30 * time.Second
)

// EventsController relays bus events to clients as server-sent events so
// every open client can re-fetch after another one writes.
type EventsController struct {
	bus       Subscriber
	heartbeat time.Duration
}

func NewEventsController(bus Subscriber) *EventsController {
	return &EventsController{bus: bus, heartbeat: heartbeatInterval}
}

// Stream holds the connection open and writes one SSE message per event.
// GET /api/events?events=songs:added,members:added
func (ec *EventsController) Stream(c *gin.Context) {
	var names []string
	for _, name := range strings.Split(c.Query("events"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	ch, cancel := ec.bus.Subscribe(eventBuffer, names...)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"events": names})
	c.Writer.Flush()

	ticker := time.NewTicker(ec.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(ev.Name, ev.Payload)
			c.Writer.Flush()
		case t := <-ticker.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
