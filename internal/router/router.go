package router

import (
	"time"

	"github.com/anonto42/snapreel/backend/internal/handlers"
	"github.com/anonto42/snapreel/backend/internal/middleware"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/anonto42/snapreel/backend/internal/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Dependencies is everything SetupRoutes wires into the handlers.
type Dependencies struct {
	Services  services.Config
	Media     repositories.MediaRepository
	Verifier  middleware.IDTokenVerifier
	JWTSecret []byte
	TokenTTL  time.Duration
	Logger    *zap.Logger
}

// Services are the long-lived services built by SetupRoutes. The caller
// owns background work such as the receipt janitor.
type Services struct {
	Toggles  *services.ToggleService
	Comments *services.CommentService
	Content  *services.ContentService
	Feed     *services.FeedService
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, handlers.IdempotencyKeyHeader},
	}))
	e.Use(middleware.RequestLogger(logger))
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) (*Services, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deps.Services.Logger = logger
	db := deps.Services.Database

	e.Validator = validators.NewValidator()

	toggles, err := services.NewToggleService(deps.Services)
	if err != nil {
		return nil, err
	}
	comments, err := services.NewCommentService(deps.Services)
	if err != nil {
		return nil, err
	}
	content, err := services.NewContentService(services.ContentConfig{Config: deps.Services, Media: deps.Media})
	if err != nil {
		return nil, err
	}
	feed, err := services.NewFeedService(deps.Services)
	if err != nil {
		return nil, err
	}

	e.GET("/health", handlers.NewHealthHandler(db).HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, handlers.AuthConfig{
		Verifier:  deps.Verifier,
		JWTSecret: deps.JWTSecret,
		TokenTTL:  deps.TokenTTL,
		Logger:    logger,
	}).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret))

	handlers.NewUserHandler(userRepo, followRepo).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(toggles).RegisterFollowRoutes(api)
	handlers.NewLikeHandler(toggles).RegisterLikeRoutes(api)
	handlers.NewBookmarkHandler(toggles, feed).RegisterBookmarkRoutes(api)
	handlers.NewCommentHandler(comments).RegisterCommentRoutes(api)
	handlers.NewMediaHandler(content).RegisterMediaRoutes(api)
	handlers.NewPostHandler(content, feed).RegisterPostRoutes(api)
	handlers.NewReelHandler(content, feed).RegisterReelRoutes(api)
	handlers.NewFeedHandler(feed).RegisterFeedRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)

	logger.Info("routes configured", zap.Int("count", len(e.Routes())))
	return &Services{Toggles: toggles, Comments: comments, Content: content, Feed: feed}, nil
}
