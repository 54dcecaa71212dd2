package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memefinder/internal/web"
)

// Index serves the embedded browser client.
func Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML())
}
