package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// streamAuthRequest is the callback body sent by the media server on
// publish and play attempts.
type streamAuthRequest struct {
	StreamURL string `json:"stream_url"`
	Param     string `json:"param"`
}

// streamAuthResponse is the envelope the media server expects. The code
// field is always 0; SRS decides on the HTTP status alone.
type streamAuthResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (s *Server) streamAuthResult(c echo.Context, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, streamAuthResponse{Code: 0, Msg: "OK"})
	}

	status := statusFromError(err)
	msg := http.StatusText(status)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "stream authorization error", "error", err, "path", c.Path())
	}
	return c.JSON(status, streamAuthResponse{Code: 0, Msg: msg})
}

func (s *Server) handleStreamPublish(c echo.Context) error {
	var req streamAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, streamAuthResponse{Code: 0, Msg: "invalid request"})
	}

	err := s.stream.Publish(c.Request().Context(), req.StreamURL, req.Param)
	return s.streamAuthResult(c, err)
}

func (s *Server) handleStreamPlay(c echo.Context) error {
	var req streamAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, streamAuthResponse{Code: 0, Msg: "invalid request"})
	}

	err := s.stream.Play(c.Request().Context(), req.StreamURL, req.Param)
	return s.streamAuthResult(c, err)
}

// handlePlayKey issues a long-lived play key for the authenticated user.
func (s *Server) handlePlayKey(c echo.Context) error {
	_, plaintext, err := s.tokens.IssuePlayKey(c.Request().Context(), currentUserID(c))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"play_key": plaintext})
}

// handleChatKey issues a short-lived chat key for the authenticated user.
func (s *Server) handleChatKey(c echo.Context) error {
	token, plaintext, err := s.tokens.IssueChatKey(c.Request().Context(), currentUserID(c))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"chat_key":   plaintext,
		"expires_at": token.Expires,
	})
}
