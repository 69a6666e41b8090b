package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dpetukhov/livetalks/internal/server/auth"
)

const userIDContextKey = "userID"

const bearerPrefix = "Bearer "

// requireAuth extracts and validates the JWT access token from the
// Authorization header and stores the user ID on the request context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(header, bearerPrefix), s.jwtSecret)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication failed"})
		}

		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

// currentUserID returns the user ID stored by requireAuth, or "" on
// unauthenticated routes.
func currentUserID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)
	return id
}
