package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// BookmarkHandler handles private saves of posts and reels.
type BookmarkHandler struct {
	toggles *services.ToggleService
	feed    *services.FeedService
}

func NewBookmarkHandler(toggles *services.ToggleService, feed *services.FeedService) *BookmarkHandler {
	return &BookmarkHandler{toggles: toggles, feed: feed}
}

// RegisterBookmarkRoutes registers bookmark routes
func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/bookmarks/toggle", h.ToggleBookmark)
	g.GET("/bookmarks", h.GetBookmarks)
}

func (h *BookmarkHandler) ToggleBookmark(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	target, err := bindContentTarget(c)
	if err != nil {
		return err
	}

	res, err := h.toggles.Toggle(c.Request().Context(), currentUserID, models.RelationBookmark, target, services.ToggleOptions{
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"bookmarked": res.Active})
}

// GetBookmarks lists the caller's saved posts and reels, newest save first.
func (h *BookmarkHandler) GetBookmarks(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.feed.Bookmarked(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"bookmarks": items})
}
