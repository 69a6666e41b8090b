package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type verifyEmailRequest struct {
	VerificationKey string `json:"verification_key"`
}

type resendVerificationRequest struct {
	UserName string `json:"user_name"`
}

func (s *Server) handleVerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := s.verification.VerifyEmail(c.Request().Context(), req.VerificationKey); err != nil {
		return s.jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// handleResendVerification is unauthenticated: unverified users cannot
// log in, so they could never reach a protected resend endpoint.
func (s *Server) handleResendVerification(c echo.Context) error {
	var req resendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := s.verification.Resend(c.Request().Context(), req.UserName); err != nil {
		return s.jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
