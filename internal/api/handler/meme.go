package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memefinder/internal/domain"
	"github.com/timmy/memefinder/internal/logger"
	"github.com/timmy/memefinder/internal/service"
)

// Error bodies returned to clients. Details go to the log only.
const (
	errFetchMemes     = "Failed to fetch memes"
	errFetchSubreddit = "Failed to fetch subreddit info"
)

// MemeFinder is the search surface the meme endpoints depend on.
type MemeFinder interface {
	Search(ctx context.Context, req *service.SearchRequest) (*domain.MemePage, error)
	RankSubreddits(ctx context.Context) ([]domain.SubredditSummary, error)
}

// MemeHandler handles the /api/memes endpoints.
type MemeHandler struct {
	finder MemeFinder
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - finder: search service instance.
//
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(finder MemeFinder) *MemeHandler {
	return &MemeHandler{
		finder: finder,
	}
}

// SearchMemes handles GET /api/memes.
// Query parameters: query (free text), subreddits (comma-separated, empty
// means the catalog) and after (pagination cursor).
func (h *MemeHandler) SearchMemes(c *gin.Context) {
	ctx := c.Request.Context()

	req := &service.SearchRequest{
		Query:      c.Query("query"),
		Subreddits: service.ParseSubredditList(c.Query("subreddits")),
		After:      c.Query("after"),
	}

	page, err := h.finder.Search(ctx, req)
	if err != nil {
		logger.CtxError(ctx, "Meme search failed: query=%q, error=%v", req.Query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errFetchMemes})
		return
	}

	c.JSON(http.StatusOK, page)
}

// RankSubreddits handles POST /api/memes and returns the catalog
// subreddits ranked by subscribers.
func (h *MemeHandler) RankSubreddits(c *gin.Context) {
	ctx := c.Request.Context()

	ranked, err := h.finder.RankSubreddits(ctx)
	if err != nil {
		logger.CtxError(ctx, "Subreddit ranking failed: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errFetchSubreddit})
		return
	}

	c.JSON(http.StatusOK, ranked)
}
