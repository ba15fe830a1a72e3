package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/snapreel/backend/internal/middleware"
	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxUsernameAttempts = 20

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9_.]+`)

// AuthConfig configures the session exchange.
type AuthConfig struct {
	Verifier  middleware.IDTokenVerifier
	JWTSecret []byte
	TokenTTL  time.Duration
	Logger    *zap.Logger
	Clock     func() time.Time
}

// AuthHandler exchanges a Firebase ID token for a local session JWT.
type AuthHandler struct {
	userRepository repositories.UserRepository
	cfg            AuthConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, cfg AuthConfig) *AuthHandler {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	return &AuthHandler{userRepository: userRepo, cfg: cfg}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/session", h.CreateSession, middleware.FirebaseAuthMiddleware(h.cfg.Verifier))
}

// CreateSession upserts the principal behind a verified Firebase token and
// returns a local JWT for it.
func (h *AuthHandler) CreateSession(c echo.Context) error {
	token, ok := c.Get(middleware.FirebaseTokenKey).(*auth.Token)
	if !ok || token == nil || token.UID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing Firebase identity")
	}
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	user, created, err := h.upsertUser(token.UID, email, name, picture)
	if err != nil {
		h.cfg.Logger.Error("session upsert failed", zap.String("firebase_uid", token.UID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user").SetInternal(err)
	}

	localJWT, err := middleware.IssueToken(h.cfg.JWTSecret, user.ID, user.Email, h.cfg.TokenTTL, h.cfg.Clock())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT").SetInternal(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return success(c, status, echo.Map{"token": localJWT, "user": user})
}

func (h *AuthHandler) upsertUser(firebaseUID, email, name, picture string) (*models.User, bool, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(firebaseUID)
	if err == nil {
		changed := false
		if email != "" && email != user.Email {
			user.Email, changed = email, true
		}
		if picture != "" && picture != user.ImageURL {
			user.ImageURL, changed = picture, true
		}
		if changed {
			if err := h.userRepository.UpdateIdentity(user); err != nil {
				return nil, false, err
			}
		}
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	username, err := h.pickUsername(email, name)
	if err != nil {
		return nil, false, err
	}
	fullname := strings.TrimSpace(name)
	if fullname == "" {
		fullname = username
	}
	user = &models.User{
		FirebaseUID: firebaseUID,
		Username:    username,
		Fullname:    fullname,
		Email:       email,
		ImageURL:    picture,
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// pickUsername derives a handle from the email local part or display name and
// appends a number until it is free.
func (h *AuthHandler) pickUsername(email, name string) (string, error) {
	base := email
	if at := strings.IndexByte(base, '@'); at > 0 {
		base = base[:at]
	}
	if base == "" {
		base = name
	}
	base = usernameUnsafe.ReplaceAllString(strings.ToLower(base), "")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		taken, err := h.userRepository.UsernameTaken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", fmt.Errorf("no free username for %q", base)
}
