package validators

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Content string `validate:"required,max=5"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Validate(&sample{Content: "hey"}))

	err := v.Validate(&sample{})
	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, "content is required", httpErr.Message)

	err = v.Validate(&sample{Content: "too long"})
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "content must be at most 5 characters", httpErr.Message)
}
