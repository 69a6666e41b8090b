package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

// handleEventChat upgrades the connection to a websocket after checking
// the chat key passed in the query string. Browsers cannot set headers on
// websocket handshakes, hence the query parameter.
func (s *Server) handleEventChat(c echo.Context) error {
	ctx := c.Request().Context()

	key := c.QueryParam("chat_key")
	if key == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "chat key required"})
	}

	user, err := s.tokens.Authenticate(ctx, models.TokenPurposeChat, key)
	if err != nil {
		return s.jsonError(c, err)
	}

	event, err := s.events.GetByID(ctx, c.Param("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	hub := s.chatRooms.Hub(event.ID)
	if err := hub.Serve(c.Response(), c.Request(), user.UserName); err != nil {
		// Serve replies to the handshake itself on failure
		s.logger.Warn(ctx, "websocket upgrade failed", "error", err)
	}
	return nil
}
