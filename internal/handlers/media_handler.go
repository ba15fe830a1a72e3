package handlers

import (
	"net/http"

	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// RegisterMediaRequest is sent by the client once an upload to object storage finishes.
type RegisterMediaRequest struct {
	StorageID   string `json:"storage_id" validate:"required,max=128"`
	URL         string `json:"url" validate:"required,url"`
	ContentType string `json:"content_type" validate:"required,max=64"`
}

// MediaHandler records completed uploads in the media registry.
type MediaHandler struct {
	content *services.ContentService
}

func NewMediaHandler(content *services.ContentService) *MediaHandler {
	return &MediaHandler{content: content}
}

func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/media", h.RegisterMedia)
}

func (h *MediaHandler) RegisterMedia(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req RegisterMediaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	asset, err := h.content.RegisterUpload(c.Request().Context(), currentUserID, req.StorageID, req.URL, req.ContentType)
	if err != nil {
		return serviceError(err)
	}
	return success(c, http.StatusCreated, echo.Map{"media": asset})
}
