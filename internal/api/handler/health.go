package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	catalogSize int
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalogSize int) *HealthHandler {
	return &HealthHandler{catalogSize: catalogSize}
}

// Health returns the health status of the service. It does not call Reddit
// or the scorer.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"catalog": h.catalogSize,
	})
}
