package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memefinder/internal/logger"
	"github.com/timmy/memefinder/internal/service"
)

// ImageFetcher fetches a meme image for download.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL, title string) (*service.DownloadedImage, error)
}

// DownloadHandler proxies meme images so the browser can save cross-origin
// images as attachments.
type DownloadHandler struct {
	fetcher ImageFetcher
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(fetcher ImageFetcher) *DownloadHandler {
	return &DownloadHandler{fetcher: fetcher}
}

// Download handles GET /api/memes/download?url=&title=.
func (h *DownloadHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	imageURL := c.Query("url")

	img, err := h.fetcher.Fetch(ctx, imageURL, c.Query("title"))
	switch {
	case errors.Is(err, service.ErrNotImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is not a supported image"})
		return
	case err != nil:
		logger.CtxWarn(ctx, "Image download failed: url=%s, error=%v", imageURL, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to download image"})
		return
	}

	c.Header("Content-Disposition", service.ContentDisposition(img.Filename))
	c.Data(http.StatusOK, img.ContentType, img.Data)
}
