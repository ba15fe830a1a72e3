package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed requests
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed/reels", h.GetReelFeed)
	g.GET("/feed/posts", h.GetPostFeed)
}

// GetReelFeed returns reels newest first. Without ?limit every reel is returned.
func (h *FeedHandler) GetReelFeed(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p := readPage(c, 10, true)

	reels, err := h.feed.FeedReels(c.Request().Context(), currentUserID, p.skip(), p.limit)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"reels": reels})
}

// GetPostFeed returns a page of posts newest first.
func (h *FeedHandler) GetPostFeed(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p := readPage(c, 10, false)

	posts, err := h.feed.FeedPosts(c.Request().Context(), currentUserID, p.skip(), p.limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": posts},
		"meta": echo.Map{
			"currentPage":     p.page,
			"itemsPerPage":    p.limit,
			"hasNextPage":     len(posts) == p.limit,
			"hasPreviousPage": p.page > 1,
		},
	})
}
