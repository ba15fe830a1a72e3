package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/snapreel/backend/internal/middleware"
	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// IdempotencyKeyHeader carries the client's retry key for toggles.
const IdempotencyKeyHeader = "Idempotency-Key"

// getUserIDFromContext returns the authenticated user's ID, or 0 when the
// request carries no valid session.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.UserClaimsKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

func requireUserID(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseIDParam(c echo.Context, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return uint(id), nil
}

func parseOptionalID(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	v := uint(id)
	return &v, nil
}

type pageParams struct {
	page  int
	limit int
}

func (p pageParams) skip() int {
	return (p.page - 1) * p.limit
}

// readPage reads page/limit. A missing limit means "everything" when
// allowAll is set, otherwise defaultLimit.
func readPage(c echo.Context, defaultLimit int, allowAll bool) pageParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	switch {
	case err != nil && allowAll:
		limit = 0
	case limit < 1 || limit > 50:
		limit = defaultLimit
	}
	return pageParams{page: page, limit: limit}
}

func paginationMeta(p pageParams, total int64) echo.Map {
	totalPages := 1
	if p.limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.limit)))
	}
	return echo.Map{
		"currentPage":     p.page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    p.limit,
		"hasNextPage":     p.page < totalPages,
		"hasPreviousPage": p.page > 1,
	}
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// serviceError converts a services.Error into the matching HTTP error.
func serviceError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindUnauthenticated:
		status = http.StatusUnauthorized
	case services.KindInvalidArgument:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "Internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, services.Message(err)).SetInternal(err)
}
