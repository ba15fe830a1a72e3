package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to image posts
type PostHandler struct {
	content *services.ContentService
	feed    *services.FeedService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(content *services.ContentService, feed *services.FeedService) *PostHandler {
	return &PostHandler{content: content, feed: feed}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// CreatePost publishes an uploaded image
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.content.CreatePost(c.Request().Context(), currentUserID, req)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusCreated, echo.Map{"post": post})
}

// DeletePost removes a post and everything that references it. Owner only.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}
	target, err := models.ContentTarget(models.ContentPost, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.content.DeleteContent(c.Request().Context(), currentUserID, target); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUserPosts lists a user's posts, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	ownerID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	p := readPage(c, 12, true)

	posts, err := h.feed.UserPosts(c.Request().Context(), getUserIDFromContext(c), ownerID, p.skip(), p.limit)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"posts": posts})
}
