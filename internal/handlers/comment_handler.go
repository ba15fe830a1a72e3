package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comments", h.CreateComment)
	g.GET("/comments", h.GetComments)
}

// CreateComment appends a comment to a post or reel
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	target, err := models.TargetFromRefs(req.PostID, req.ReelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.AddComment(c.Request().Context(), currentUserID, target, req.Content)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusCreated, echo.Map{"id": comment.ID, "comment": comment})
}

// GetComments lists the comments of ?post_id= or ?reel_id=, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID, err := parseOptionalID(c.QueryParam("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	reelID, err := parseOptionalID(c.QueryParam("reel_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid reel ID")
	}
	target, err := models.TargetFromRefs(postID, reelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comments, err := h.comments.ListComments(c.Request().Context(), target)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"comments": comments})
}
