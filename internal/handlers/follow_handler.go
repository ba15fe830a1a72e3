package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow toggles.
type FollowHandler struct {
	toggles *services.ToggleService
}

func NewFollowHandler(toggles *services.ToggleService) *FollowHandler {
	return &FollowHandler{toggles: toggles}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow/toggle", h.ToggleFollow)
}

// ToggleFollow follows the user when not yet followed and unfollows otherwise.
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	target, err := models.PrincipalTarget(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.toggles.Toggle(c.Request().Context(), currentUserID, models.RelationFollow, target, services.ToggleOptions{
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": res.Active})
}
