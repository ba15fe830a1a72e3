package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ReelHandler handles HTTP requests related to reels
type ReelHandler struct {
	content *services.ContentService
	feed    *services.FeedService
}

func NewReelHandler(content *services.ContentService, feed *services.FeedService) *ReelHandler {
	return &ReelHandler{content: content, feed: feed}
}

// RegisterReelRoutes registers reel routes
func (h *ReelHandler) RegisterReelRoutes(g *echo.Group) {
	g.POST("/reels", h.CreateReel)
	g.DELETE("/reels/:id", h.DeleteReel)
	g.POST("/reels/:id/views", h.IncrementViews)
	g.GET("/users/:id/reels", h.GetUserReels)
}

// CreateReel publishes an uploaded video
func (h *ReelHandler) CreateReel(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateReelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reel, err := h.content.CreateReel(c.Request().Context(), currentUserID, req)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusCreated, echo.Map{"reel": reel})
}

// DeleteReel removes a reel and everything that references it. Owner only.
func (h *ReelHandler) DeleteReel(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	reelID, err := parseIDParam(c, "id", "reel")
	if err != nil {
		return err
	}
	target, err := models.ContentTarget(models.ContentReel, reelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.content.DeleteContent(c.Request().Context(), currentUserID, target); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// IncrementViews records one activation of the reel by a player.
func (h *ReelHandler) IncrementViews(c echo.Context) error {
	if _, err := requireUserID(c); err != nil {
		return err
	}
	reelID, err := parseIDParam(c, "id", "reel")
	if err != nil {
		return err
	}
	if _, err := h.content.IncrementViews(c.Request().Context(), reelID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUserReels lists a user's reels, newest first
func (h *ReelHandler) GetUserReels(c echo.Context) error {
	ownerID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	p := readPage(c, 12, true)

	reels, err := h.feed.UserReels(c.Request().Context(), getUserIDFromContext(c), ownerID, p.skip(), p.limit)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"reels": reels})
}
