package handlers

import (
	"errors"
	"io"
	"net/http"

	"gemini-proxy/middleware"
	"gemini-proxy/service"
	"gemini-proxy/version"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const (
	livenessMessage    = "Gemini proxy attivo"
	msgInvalidJSONBody = "corpo della richiesta JSON non valido"
)

// Handlers represents the HTTP handlers
type Handlers struct {
	relay *service.Service
}

// NewHandlers creates new HTTP handlers
func NewHandlers(relay *service.Service) *Handlers {
	return &Handlers{relay: relay}
}

// Liveness answers 200 whether or not the upstream credential is configured.
func (h *Handlers) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": livenessMessage,
	})
}

// Version returns build information.
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

// Generate relays a prompt and optional inline image to Gemini.
func (h *Handlers) Generate(c *gin.Context) {
	var req service.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": middleware.MsgBodyTooLarge})
			return
		}
		log.FromContext(c.Request.Context()).WithError(err).Warn("invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSONBody})
		return
	}

	resp := h.relay.Generate(c.Request.Context(), req)

	if resp.Error != "" {
		body := gin.H{"error": resp.Error}
		if resp.UpstreamStatus != 0 {
			body["status"] = resp.UpstreamStatus
		}
		c.JSON(resp.StatusCode, body)
		return
	}

	c.JSON(resp.StatusCode, gin.H{"text": resp.Text})
}
