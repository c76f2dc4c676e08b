package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/auth"
	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/observability"
)

// errorResponse maps a service error to its HTTP status. Unexpected errors
// are logged and reported without detail.
func (h *Handler) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": clientMessage(err, domain.ErrValidation)})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrNotAdmin):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	observability.FromContext(c.Request().Context(), h.logger).Error("request failed",
		"path", c.Path(),
		"error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// clientMessage strips the sentinel prefix, "validation failed: x" -> "x".
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

// pathID returns the :id path parameter, which must be a UUID.
func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: id must be a UUID", domain.ErrValidation)
	}
	return id, nil
}
