package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/sse"
	"github.com/GTDGit/catalog_api/internal/utils"
)

const sseKeepAlive = 30 * time.Second

// SSEHandler streams listing write-back events to vendor dashboards.
type SSEHandler struct {
	hub       *sse.Hub
	jwtSecret string
	keepAlive time.Duration
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub, jwtSecret string) *SSEHandler {
	return &SSEHandler{hub: hub, jwtSecret: jwtSecret, keepAlive: sseKeepAlive}
}

// Stream handles GET /v1/vendor/events?token=<jwt>
// EventSource cannot set headers, so the token travels in the query string.
func (h *SSEHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Missing token query parameter")
		return
	}

	claims, err := utils.ValidateJWT(h.jwtSecret, token)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, utils.ErrInvalidToken.Error(), "Invalid or expired token")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := h.hub.Register(claims.VendorID)
	defer h.hub.Unregister(client)

	c.SSEvent("connected", gin.H{
		"clientId":  client.ID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", client.ID).Str("vendor_id", claims.VendorID).Msg("Vendor SSE stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("listing", string(data))
			return true
		case <-time.After(h.keepAlive):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
