package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	toggles *services.ToggleService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(toggles *services.ToggleService) *LikeHandler {
	return &LikeHandler{toggles: toggles}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/likes/toggle", h.ToggleLike)
}

// ToggleLike likes or unlikes the post or reel named in the body.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	target, err := bindContentTarget(c)
	if err != nil {
		return err
	}

	res, err := h.toggles.Toggle(c.Request().Context(), currentUserID, models.RelationLike, target, services.ToggleOptions{
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"liked": res.Active})
}

func bindContentTarget(c echo.Context) (models.TargetRef, error) {
	var req models.ContentRefRequest
	if err := c.Bind(&req); err != nil {
		return models.TargetRef{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	target, err := req.Target()
	if err != nil {
		return models.TargetRef{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return target, nil
}
