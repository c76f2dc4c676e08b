package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/auth"
)

const adminContextKey = "admin"

// RequireAdmin rejects requests without a valid admin bearer token.
func (h *Handler) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		admin, err := h.authenticate(c)
		if err != nil {
			return h.errorResponse(c, err)
		}
		c.Set(adminContextKey, admin)
		return next(c)
	}
}

func (h *Handler) authenticate(c echo.Context) (*auth.Admin, error) {
	token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	admin, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Debug("admin authentication failed", "path", c.Path(), "error", err)
		return nil, err
	}
	return admin, nil
}
