package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadOnlyMiddleware blocks write operations when enabled.
// GET, HEAD and OPTIONS always pass, as does the event stream.
type ReadOnlyMiddleware struct {
	enabled bool
}

func NewReadOnlyMiddleware(enabled bool) *ReadOnlyMiddleware {
	return &ReadOnlyMiddleware{enabled: enabled}
}

func (m *ReadOnlyMiddleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that rejects writes with 403.
func (m *ReadOnlyMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error: "This action is disabled in read-only mode",
			Code:  "read_only",
		})
	}
}
