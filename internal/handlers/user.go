package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, followRepository: followRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetProfile)
	g.PUT("/users/me", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/suggested", h.GetSuggestedUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/is-following", h.IsFollowing)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(id)
	if err != nil {
		return userLookupError(err)
	}

	isFollowing := false
	if viewer := getUserIDFromContext(c); viewer != 0 && viewer != id {
		if isFollowing, err = h.followRepository.IsFollowing(viewer, id); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load follow state").SetInternal(err)
		}
	}
	return success(c, http.StatusOK, echo.Map{"user": user, "is_following": isFollowing})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return userLookupError(err)
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

// UpdateProfile updates the authenticated user's display name and bio
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Bio = strings.TrimSpace(req.Bio)
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.userRepository.UpdateProfile(currentUserID, req.Fullname, req.Bio); err != nil {
		return userLookupError(err)
	}
	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return userLookupError(err)
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

// SearchUsers matches ?q= against usernames and full names
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return success(c, http.StatusOK, echo.Map{"users": []models.UserCompact{}})
	}
	users, err := h.userRepository.SearchUsers(query, 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to search users").SetInternal(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

// GetSuggestedUsers lists users the caller does not follow yet
func (h *UserHandler) GetSuggestedUsers(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	users, err := h.userRepository.GetSuggestedUsers(currentUserID, 10)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load suggestions").SetInternal(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

func (h *UserHandler) GetFollowers(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowers(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load followers").SetInternal(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

func (h *UserHandler) GetFollowing(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowing(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load following").SetInternal(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

// IsFollowing reports whether the caller follows :id
func (h *UserHandler) IsFollowing(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	following, err := h.followRepository.IsFollowing(currentUserID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load follow state").SetInternal(err)
	}
	return success(c, http.StatusOK, echo.Map{"following": following})
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user").SetInternal(err)
}
